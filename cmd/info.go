/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serial-bridge"
	"github.com/allbin/go-serial-bridge/internal/transport"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Show how the bridge sees a cable",
	Long: `Show a port as the bridge would use it: its line settings, the
configured driver and, for USB cables, the sysfs metadata reset-on-loss
relies on.

With --open the port is opened and closed again exactly as an open-port
request from a worker would, so permission and busy-device problems show
up before a bridge session.

Examples:
  mbbridge info /dev/ttyUSB0
  mbbridge info /dev/ttyUSB0 --open --driver bugst`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		tryOpen, _ := cmd.Flags().GetBool("open")

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		labelStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			Width(14)

		fmt.Printf("Port Information: %s\n\n", info.Path)
		for _, row := range describeCable(info, cfg.Driver()) {
			fmt.Printf("  %s %s\n", labelStyle.Render(row.label+":"), row.value)
		}

		if !tryOpen {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		opener := transport.SerialOpener(cfg.Driver(), cfg.Serial.ReadTimeout)
		if err := checkCable(ctx, info.Path, opener); err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			os.Exit(1)
		}
		successStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)
		fmt.Printf("\n%s Opened and closed %s\n", successStyle.Render("✓"), transport.NewPortConfig(info.Path))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("open", false, "Open the port at the bridge's line settings to check it is usable")
}
