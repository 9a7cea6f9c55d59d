package serial

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 57600 {
		t.Errorf("Expected BaudRate 57600, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.Driver != DriverNative {
		t.Errorf("Expected native driver, got %v", config.Driver)
	}

	if got := config.String(); got != "57600 8N1" {
		t.Errorf("Expected \"57600 8N1\", got %q", got)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	if err := WithBaudRate(9600)(&config); err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	if err := WithDataBits(7)(&config); err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	if err := WithStopBits(2)(&config); err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	if err := WithParity(ParityEven)(&config); err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	if err := WithDriver(DriverTarm)(&config); err != nil {
		t.Errorf("WithDriver failed: %v", err)
	}
	if config.Driver != DriverTarm {
		t.Errorf("Expected tarm driver, got %v", config.Driver)
	}

	if got := config.String(); got != "9600 7E2" {
		t.Errorf("Expected \"9600 7E2\", got %q", got)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"baud rate", WithBaudRate(123456), ErrInvalidBaudRate},
		{"data bits", WithDataBits(9), ErrInvalidConfig},
		{"stop bits", WithStopBits(3), ErrInvalidConfig},
		{"parity", WithParity(Parity(7)), ErrInvalidConfig},
		{"driver", WithDriver(Driver(9)), ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := tt.opt(&config)
			if err != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		input   string
		want    Driver
		wantErr bool
	}{
		{"", DriverNative, false},
		{"native", DriverNative, false},
		{"BUGST", DriverBugst, false},
		{" tarm ", DriverTarm, false},
		{"ftdi", DriverNative, true},
	}

	for _, tt := range tests {
		got, err := ParseDriver(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDriver(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownDriver) {
			t.Errorf("Expected ErrUnknownDriver for %q, got %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseDriver(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{115200, false},
		{9600, false},
		{57600, false},
		{123456, true},
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
		}
		if result == 0 {
			t.Errorf("Got zero result for valid baud rate %d", test.input)
		}
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	for _, driver := range []Driver{DriverNative, DriverBugst, DriverTarm} {
		t.Run(driver.String(), func(t *testing.T) {
			_, err := Open("/dev/nonexistent-multiboot", WithDriver(driver))
			if err == nil {
				t.Fatal("Expected error when opening non-existent device")
			}
			if driver == DriverNative && !errors.Is(err, ErrDeviceNotFound) {
				t.Errorf("Expected ErrDeviceNotFound, got %v", err)
			}
		})
	}
}

func TestOpenRejectsInvalidOption(t *testing.T) {
	_, err := Open("/dev/null", WithBaudRate(12))
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestClosedNativePort(t *testing.T) {
	port := &nativePort{fd: -1, closed: true}

	if _, err := port.Read(make([]byte, 4)); err != ErrPortClosed {
		t.Errorf("Expected ErrPortClosed from Read, got %v", err)
	}
	if _, err := port.Write([]byte("x")); err != ErrPortClosed {
		t.Errorf("Expected ErrPortClosed from Write, got %v", err)
	}
	if err := port.Drain(); err != ErrPortClosed {
		t.Errorf("Expected ErrPortClosed from Drain, got %v", err)
	}
	if err := port.Close(); err != ErrPortClosed {
		t.Errorf("Expected ErrPortClosed from Close, got %v", err)
	}
}

func TestContextAlreadyExpired(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Microsecond)
	defer cancel()
	<-ctx.Done()

	port := &nativePort{fd: -1, closed: true}

	if _, err := port.ReadContext(ctx, make([]byte, 10)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	if _, err := port.WriteContext(ctx, []byte("test")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
}

func TestWithContextReturnsResult(t *testing.T) {
	n, err := withContext(context.Background(), func() (int, error) { return 3, nil })
	if err != nil || n != 3 {
		t.Errorf("Expected (3, nil), got (%d, %v)", n, err)
	}
}
