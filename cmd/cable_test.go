package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	serial "github.com/allbin/go-serial-bridge"
	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/transport"
)

// idlePort is a connected cable with nothing to say
type idlePort struct {
	closed atomic.Bool
}

func (p *idlePort) Read(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, serial.ErrPortClosed
	}
	time.Sleep(10 * time.Millisecond)
	return 0, nil
}

func (p *idlePort) ReadContext(ctx context.Context, b []byte) (int, error)  { return p.Read(b) }
func (p *idlePort) Write(b []byte) (int, error)                             { return len(b), nil }
func (p *idlePort) WriteContext(ctx context.Context, b []byte) (int, error) { return len(b), nil }
func (p *idlePort) Drain() error                                            { return nil }
func (p *idlePort) FlushInput() error                                       { return nil }
func (p *idlePort) Close() error                                            { p.closed.Store(true); return nil }

func rowValues(rows []cableRow) map[string]string {
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.label] = row.value
	}
	return values
}

func TestDescribeCableUSB(t *testing.T) {
	info := &serial.PortInfo{
		Path:         "/dev/ttyUSB0",
		Name:         "ttyUSB0",
		Description:  "FT232R USB UART",
		VendorID:     "0403",
		ProductID:    "6001",
		SerialNumber: "NC7ILXW1",
		BusNumber:    "1",
		DeviceNumber: "4",
	}

	values := rowValues(describeCable(info, serial.DriverBugst))

	expected := map[string]string{
		"Name":        "ttyUSB0",
		"Bridge line": "57600 8N1",
		"Driver":      serial.DriverBugst.String(),
		"Vendor ID":   "0403",
		"Serial":      "NC7ILXW1",
		"Bus":         "1",
	}
	for label, want := range expected {
		if got := values[label]; got != want {
			t.Errorf("%s: expected %q, got %q", label, want, got)
		}
	}
	if _, ok := values["Manufacturer"]; ok {
		t.Error("Expected empty USB fields to be left out")
	}
	if _, ok := values["USB"]; ok {
		t.Error("Expected no reset-on-loss warning for a USB cable")
	}
}

func TestDescribeCableNotUSB(t *testing.T) {
	info := &serial.PortInfo{Path: "/dev/ttyS0", Name: "ttyS0"}

	rows := describeCable(info, serial.DriverNative)

	last := rows[len(rows)-1]
	if last.label != "USB" {
		t.Fatalf("Expected USB row last, got %q", last.label)
	}
	if values := rowValues(rows); values["Vendor ID"] != "" {
		t.Errorf("Expected no vendor row, got %q", values["Vendor ID"])
	}
}

func TestResetAfterLoss(t *testing.T) {
	lost := fmt.Errorf("%w: serial read: input/output error", bridge.ErrSerialLost)

	tests := []struct {
		name    string
		runErr  error
		port    string
		enabled bool
		want    bool
	}{
		{"lost and enabled", lost, "/dev/ttyUSB0", true, true},
		{"lost but disabled", lost, "/dev/ttyUSB0", false, false},
		{"no port opened", lost, "", true, false},
		{"clean exit", nil, "/dev/ttyUSB0", true, false},
		{"worker lost", bridge.ErrWorkerLost, "/dev/ttyUSB0", true, false},
		{"cancelled", context.Canceled, "/dev/ttyUSB0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resetPort string
			original := cableReset
			cableReset = func(portPath, serialNumber string) error {
				resetPort = portPath
				return nil
			}
			defer func() { cableReset = original }()

			if err := resetAfterLoss(tt.runErr, tt.port, tt.enabled); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := resetPort != ""; got != tt.want {
				t.Errorf("Expected reset %v, got %v", tt.want, got)
			}
			if tt.want && resetPort != tt.port {
				t.Errorf("Expected reset of %s, got %s", tt.port, resetPort)
			}
		})
	}
}

func TestResetAfterLossReportsFailure(t *testing.T) {
	original := cableReset
	cableReset = func(portPath, serialNumber string) error { return errUSBResetMissing }
	defer func() { cableReset = original }()

	err := resetAfterLoss(bridge.ErrSerialLost, "/dev/ttyUSB0", true)
	if !errors.Is(err, serial.ErrUSBResetNotAvailable) {
		t.Errorf("Expected ErrUSBResetNotAvailable, got %v", err)
	}
}

func TestResetCableMissingDevice(t *testing.T) {
	err := resetCable("/dev/ttyNONEXISTENT99", "")
	if err == nil {
		t.Fatal("Expected error resetting a missing cable")
	}
	if !serial.IsUSBResetAvailable() && !errors.Is(err, errUSBResetMissing) {
		t.Errorf("Expected errUSBResetMissing, got %v", err)
	}
}

func TestCheckCable(t *testing.T) {
	port := &idlePort{}
	var opened string
	opener := func(cfg transport.PortConfig) (serial.Port, error) {
		opened = cfg.Path
		return port, nil
	}

	if err := checkCable(context.Background(), "/dev/ttyUSB0", opener); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opened != "/dev/ttyUSB0" {
		t.Errorf("Expected /dev/ttyUSB0 to be opened, got %q", opened)
	}
	if !port.closed.Load() {
		t.Error("Expected the port to be closed again")
	}
}

func TestCheckCableOpenFailure(t *testing.T) {
	opener := func(cfg transport.PortConfig) (serial.Port, error) {
		return nil, serial.ErrDeviceNotFound
	}

	err := checkCable(context.Background(), "/dev/ttyUSB9", opener)
	if !errors.Is(err, transport.ErrOpenFailed) {
		t.Errorf("Expected ErrOpenFailed, got %v", err)
	}
}
