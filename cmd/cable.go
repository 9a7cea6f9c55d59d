/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	serial "github.com/allbin/go-serial-bridge"
	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/transport"
	"github.com/allbin/go-serial-bridge/internal/util"
)

var errUSBResetMissing = fmt.Errorf("%w (install usbutils)", serial.ErrUSBResetNotAvailable)

// resetCable USB-resets the cable behind portPath, or the one with the
// given USB serial number when portPath is empty
func resetCable(portPath, serialNumber string) error {
	if !serial.IsUSBResetAvailable() {
		return errUSBResetMissing
	}

	if portPath == "" {
		util.LogInfo("Resetting cable with USB serial %s", serialNumber)
		return serial.ResetUSBDeviceBySerial(serialNumber)
	}

	util.LogInfo("Resetting cable on %s", portPath)
	if err := serial.ResetUSBDevice(portPath); err != nil {
		if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
			return fmt.Errorf("%s is not a USB cable: %w", portPath, err)
		}
		return err
	}
	return nil
}

// resetAfterLoss resets the cable a bridge lost, when enabled. The next
// run can then reopen it without a replug.
func resetAfterLoss(runErr error, portPath string, enabled bool) error {
	if !enabled || portPath == "" || !errors.Is(runErr, bridge.ErrSerialLost) {
		return nil
	}
	util.LogWarning("Connection to %s lost, resetting the cable", portPath)
	return cableReset(portPath, "")
}

// cableReset is swapped out in tests
var cableReset = resetCable

// cableRow is one line of info output
type cableRow struct {
	label string
	value string
}

// describeCable lists what the bridge knows about a port
func describeCable(info *serial.PortInfo, driver serial.Driver) []cableRow {
	rows := []cableRow{
		{"Name", info.Name},
		{"Description", info.Description},
		{"Bridge line", transport.NewPortConfig(info.Path).LineSettings()},
		{"Driver", driver.String()},
	}
	if !info.IsUSB() {
		return append(rows, cableRow{"USB", "no (reset-on-loss unavailable)"})
	}

	usb := []cableRow{
		{"Vendor ID", info.VendorID},
		{"Product ID", info.ProductID},
		{"Serial", info.SerialNumber},
		{"Interface", info.InterfaceNumber},
		{"Bus", info.BusNumber},
		{"Device", info.DeviceNumber},
		{"Manufacturer", info.Manufacturer},
		{"Product", info.Product},
	}
	for _, row := range usb {
		if row.value != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

// checkCable opens path the way an open-port request would and closes it
func checkCable(ctx context.Context, path string, opener transport.Opener) error {
	adapter := transport.New(transport.Options{Opener: opener})
	defer adapter.Close()
	return adapter.Open(ctx, transport.NewPortConfig(path))
}
