/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sigurn/crc16"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/allbin/go-serial-bridge/internal/transport"
)

var sendCRCTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <port> [file]",
	Short: "Write raw bytes to a multiboot cable",
	Long: `Write a file or hex bytes to a serial port at 57600 8N1.

This is a smoke test for a cable without a worker: the bytes go out
exactly as given, through the same connection layer the bridge uses.

Example usage:
  mbbridge send /dev/ttyUSB0 payload.bin
  mbbridge send /dev/ttyUSB0 --hex "01 02 03"
  mbbridge send /dev/ttyUSB0 --hex 0x48656c6c6f`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		hexData, _ := cmd.Flags().GetString("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		data, err := sendPayload(afero.NewOsFs(), args[1:], hexData)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := sendData(portPath, data, timeout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringP("hex", "x", "", "Send these hex bytes instead of a file (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for opening the port and sending")
}

// sendPayload picks the bytes to send: the file in args, or hexData
func sendPayload(fs afero.Fs, args []string, hexData string) ([]byte, error) {
	switch {
	case hexData != "" && len(args) > 0:
		return nil, errors.New("cannot specify both a file and --hex")
	case hexData != "":
		return parseHexString(hexData)
	case len(args) == 0:
		return nil, errors.New("requires a file argument or --hex")
	}

	data, err := afero.ReadFile(fs, args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

// parseHexString converts hex strings to bytes. Supports both:
// - Space-separated: "48 65 6C 6C 6F"
// - Continuous: "48656C6C6F", optionally with 0x prefixes
func parseHexString(hexStr string) ([]byte, error) {
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr) == 0 {
		return nil, errors.New("empty hex data")
	}
	if len(hexStr)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(hexStr))
	}

	result := make([]byte, 0, len(hexStr)/2)
	for i := 0; i < len(hexStr); i += 2 {
		hexByte := hexStr[i : i+2]
		b, err := strconv.ParseUint(hexByte, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s'", hexByte)
		}
		result = append(result, byte(b))
	}
	return result, nil
}

func sendData(portPath string, data []byte, timeout time.Duration) error {
	// Styled output
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	portConfig := transport.NewPortConfig(portPath)
	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), portConfig)

	adapter := transport.New(transport.Options{
		Opener: transport.SerialOpener(cfg.Driver(), cfg.Serial.ReadTimeout),
	})
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := adapter.Open(ctx, portConfig); err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	fmt.Printf("%s Connected successfully\n", successStyle.Render("✓"))

	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	written := make(chan error, 1)
	go func() {
		_, err := adapter.Write(data)
		written <- err
	}()

	select {
	case err := <-written:
		if err != nil {
			return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), ctx.Err())
	}

	fmt.Printf("%s Successfully sent %d bytes, crc16 %04X\n",
		successStyle.Render("✓"), len(data), crc16.Checksum(data, sendCRCTable))

	// Show data preview (first 50 bytes)
	preview := data
	suffix := ""
	if len(preview) > 50 {
		preview = preview[:50]
		suffix = "..."
	}
	fmt.Printf("%s Data: % X%s\n", infoStyle.Render("📋"), preview, suffix)

	return nil
}
