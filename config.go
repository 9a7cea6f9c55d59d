package serial

import (
	"fmt"
	"strings"
	"time"
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	default:
		return "N"
	}
}

// Driver selects the backend used to talk to the device
type Driver int

const (
	DriverNative Driver = iota // termios via golang.org/x/sys/unix
	DriverBugst                // go.bug.st/serial
	DriverTarm                 // github.com/tarm/serial
)

func (d Driver) String() string {
	switch d {
	case DriverBugst:
		return "bugst"
	case DriverTarm:
		return "tarm"
	default:
		return "native"
	}
}

// ParseDriver maps a driver name from configuration to a Driver
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "native":
		return DriverNative, nil
	case "bugst":
		return DriverBugst, nil
	case "tarm":
		return DriverTarm, nil
	default:
		return DriverNative, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
}

// Config holds the configuration for a serial port
type Config struct {
	Driver      Driver
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	ReadTimeout time.Duration // rounded to tenths of a second (VTIME)
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns the multiboot cable settings: 57600 8N1
func DefaultConfig() Config {
	return Config{
		Driver:      DriverNative,
		BaudRate:    57600,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		ReadTimeout: 200 * time.Millisecond,
	}
}

// String renders the line settings the way terminals print them, e.g. "57600 8N1"
func (c Config) String() string {
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

// WithDriver selects the serial backend
func WithDriver(d Driver) Option {
	return func(c *Config) error {
		if d < DriverNative || d > DriverTarm {
			return ErrUnknownDriver
		}
		c.Driver = d
		return nil
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParityEven {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithReadTimeout sets how long a single Read waits for data.
// The termios VTIME field counts tenths of a second, so the timeout must be
// a multiple of 100ms between 0 and 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > 25500*time.Millisecond {
			return ErrInvalidConfig
		}
		if timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

func (c Config) readTimeoutTenths() uint8 {
	return uint8(c.ReadTimeout / (100 * time.Millisecond))
}
