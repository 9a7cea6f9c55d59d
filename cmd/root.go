/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-serial-bridge/internal/config"
	"github.com/allbin/go-serial-bridge/internal/util"
)

// skipConfig marks commands that run without loading settings
const skipConfig = "skip-config"

var (
	cfgFile string
	cfg     *config.Config
)

// v merges flags, MBBRIDGE_* env and the config file
var v = viper.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mbbridge",
	Short: "Bridge a serial multiboot cable to a worker program",
	Long: `mbbridge connects a multiboot cable on a serial port to a worker program.

Bytes from the cable are split into text, which is printed, and control
bytes 0-5, which are forwarded to the worker as commands. The worker opens
the port, writes to the cable and asks for files over a JSON or CBOR
message channel, either on its stdin/stdout or over a WebSocket.

Settings come from flags, MBBRIDGE_* environment variables and an optional
mbbridge.toml in the working directory or $HOME/.config/mbbridge.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] != "" {
			return nil
		}
		loaded, err := config.Load(v, nil, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return util.SetLevel(cfg.Log.Level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./mbbridge.toml or $HOME/.config/mbbridge/mbbridge.toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("driver", "native", "Serial driver: native, bugst, tarm")

	bindFlag(rootCmd.PersistentFlags().Lookup("log-level"), config.KeyLogLevel)
	bindFlag(rootCmd.PersistentFlags().Lookup("driver"), config.KeySerialDriver)
}
