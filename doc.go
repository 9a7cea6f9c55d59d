// Package serial opens and drives the serial side of a multiboot cable.
//
// The package wraps three interchangeable backends behind one Port
// interface: a native Linux termios implementation built on
// golang.org/x/sys/unix, go.bug.st/serial, and github.com/tarm/serial.
// All of them are put into raw mode so bytes reach the caller exactly as
// the device sent them.
//
// # Basic Usage
//
// Open a port with the cable defaults (57600 8N1):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte{0x01})
//	buffer := make([]byte, 256)
//	n, err = port.Read(buffer)
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyACM0",
//	    serial.WithDriver(serial.DriverBugst),
//	    serial.WithReadTimeout(500*time.Millisecond),
//	)
//
// A Read that times out returns 0 bytes and a nil error, so read loops can
// poll a context between reads.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID)
//	}
//
// USB metadata comes from sysfs and is Linux-only. ResetUSBDevice uses the
// usbreset utility to recover a wedged adapter.
//
// # Error Handling
//
// Open failures map onto ErrDeviceNotFound, ErrPermissionDenied and
// ErrDeviceInUse regardless of driver; use errors.Is to test for them.
//
// # Default Configuration
//
//   - Driver: native
//   - BaudRate: 57600
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 200ms
package serial
