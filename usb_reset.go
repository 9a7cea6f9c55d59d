package serial

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// reenumerateDelay is how long ResetUSBDevice waits for the cable to come back
var reenumerateDelay = 2 * time.Second

// ResetUSBDevice performs a USB-level reset of the adapter behind portPath.
// Multiboot cables built on USB-serial bridges occasionally wedge after an
// aborted transfer; a reset recovers them without replugging.
//
// Requires the usbreset utility (usbutils) and usually root.
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	usbPath, err := usbDevicePath(info.BusNumber, info.DeviceNumber)
	if err != nil {
		return err
	}

	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	time.Sleep(reenumerateDelay)
	return nil
}

// ResetUSBDeviceBySerial resets the adapter whose USB serial number matches.
// Useful when the port path changes after re-enumeration.
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}
		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}

// usbDevicePath builds the BBB/DDD argument usbreset expects
func usbDevicePath(bus, device string) (string, error) {
	b, err := strconv.Atoi(bus)
	if err != nil {
		return "", fmt.Errorf("%w: bus %q", ErrUSBInfoNotAvailable, bus)
	}
	d, err := strconv.Atoi(device)
	if err != nil {
		return "", fmt.Errorf("%w: device %q", ErrUSBInfoNotAvailable, device)
	}
	return fmt.Sprintf("%03d/%03d", b, d), nil
}
