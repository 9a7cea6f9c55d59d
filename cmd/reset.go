/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <port|--serial id>",
	Short: "USB-reset a hung multiboot cable",
	Long: `Perform a USB-level reset of a multiboot cable. This recovers a cable
that hangs after an aborted transfer without unplugging it. It is the same
reset 'mbbridge run --reset-on-loss' performs when a session loses its port.

The cable re-enumerates after the reset, so its port path may change
(/dev/ttyUSB0 might become /dev/ttyUSB1). Reset by USB serial number to
find it again reliably.

Requires the usbreset utility (usbutils) and usually root.

Examples:
  sudo mbbridge reset /dev/ttyUSB0
  sudo mbbridge reset --serial NC7ILXW1`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		if serialFlag == "" && len(args) != 1 {
			return errors.New("requires either a port path argument or --serial flag")
		}
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both port path and --serial flag")
		}
		return nil
	},
	Annotations: map[string]string{skipConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		serialFlag, _ := cmd.Flags().GetString("serial")

		portPath := ""
		if len(args) == 1 {
			portPath = args[0]
		}

		if err := resetCable(portPath, serialFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Cable reset; it will re-enumerate (port path may change)")
		fmt.Println("Use 'mbbridge list --table' to find it again")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial", "s", "", "Reset the cable with this USB serial number")
}
