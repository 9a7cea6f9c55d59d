// Package transport owns the serial connection used by the bridge. It opens
// the cable, turns reads into a stream of chunks and forwards writes.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	serial "github.com/allbin/go-serial-bridge"
	"github.com/allbin/go-serial-bridge/internal/util"
)

// Line settings of the multiboot cable
const (
	BaudRate = 57600
	DataBits = 8
	StopBits = 1
)

// DefaultReadBuffer is the size of one read from the port
const DefaultReadBuffer = 4096

var (
	ErrNotOpen    = errors.New("serial port not open")
	ErrOpenFailed = errors.New("failed to open serial port")
)

// PortConfig is everything needed to open the cable. Only Path comes from
// the worker; the line settings are fixed.
type PortConfig struct {
	Path     string
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits int
}

// NewPortConfig returns the cable configuration for path: 57600 8N1
func NewPortConfig(path string) PortConfig {
	return PortConfig{
		Path:     path,
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   serial.ParityNone,
		StopBits: StopBits,
	}
}

func (c PortConfig) String() string {
	return fmt.Sprintf("%s @ %s", c.Path, c.LineSettings())
}

// LineSettings formats the line as baud and frame, e.g. "57600 8N1"
func (c PortConfig) LineSettings() string {
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

// Opener opens a port. Tests substitute an in-memory port.
type Opener func(cfg PortConfig) (serial.Port, error)

// SerialOpener opens cfg with the root package using the given driver and
// read timeout
func SerialOpener(driver serial.Driver, readTimeout time.Duration) Opener {
	return func(cfg PortConfig) (serial.Port, error) {
		return serial.Open(cfg.Path,
			serial.WithDriver(driver),
			serial.WithBaudRate(cfg.BaudRate),
			serial.WithDataBits(cfg.DataBits),
			serial.WithParity(cfg.Parity),
			serial.WithStopBits(cfg.StopBits),
			serial.WithReadTimeout(readTimeout),
		)
	}
}

// Options tune an Adapter
type Options struct {
	Opener     Opener
	ReadBuffer int

	// FlushOnOpen discards input the cable buffered before the open
	FlushOnOpen bool
}

// Adapter holds at most one open connection and is its only writer
type Adapter struct {
	opts Options

	mu     sync.Mutex
	port   serial.Port
	config PortConfig
	cancel context.CancelFunc
	loopWg sync.WaitGroup

	data   chan []byte
	errors chan error
}

// New creates a closed adapter
func New(opts Options) *Adapter {
	if opts.Opener == nil {
		opts.Opener = SerialOpener(serial.DriverNative, 200*time.Millisecond)
	}
	if opts.ReadBuffer <= 0 {
		opts.ReadBuffer = DefaultReadBuffer
	}
	return &Adapter{
		opts:   opts,
		data:   make(chan []byte, 16),
		errors: make(chan error, 1),
	}
}

// Data yields chunks in the order the port delivered them
func (a *Adapter) Data() <-chan []byte { return a.data }

// Errors yields a read error that ended the connection
func (a *Adapter) Errors() <-chan error { return a.errors }

// Open connects to cfg.Path. An existing connection is closed first, so
// chunks after Open returns come only from the new port.
func (a *Adapter) Open(ctx context.Context, cfg PortConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port != nil {
		util.LogInfo("Closing %s before reopening", a.config.Path)
		a.closeLocked()
	}

	port, err := a.opts.Opener(cfg)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Path, err)
	}

	if a.opts.FlushOnOpen {
		if err := port.FlushInput(); err != nil {
			util.LogWarning("Failed to flush input on %s: %v", cfg.Path, err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.port = port
	a.config = cfg
	a.cancel = cancel

	a.loopWg.Add(1)
	go a.readLoop(loopCtx, port)

	util.LogInfo("Opened %s", cfg)
	return nil
}

func (a *Adapter) readLoop(ctx context.Context, port serial.Port) {
	defer a.loopWg.Done()

	buf := make([]byte, a.opts.ReadBuffer)
	for {
		n, err := port.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			select {
			case a.errors <- fmt.Errorf("serial read: %w", err):
			default:
			}
			return
		}
		if n == 0 {
			// read timeout
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		select {
		case a.data <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// Write transmits p verbatim. Before Open it fails with ErrNotOpen and
// sends nothing.
func (a *Adapter) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port == nil {
		return 0, ErrNotOpen
	}
	return a.port.Write(p)
}

// IsOpen reports whether a connection is held
func (a *Adapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.port != nil
}

// Config returns the configuration of the open connection
func (a *Adapter) Config() (PortConfig, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config, a.port != nil
}

// Close releases the connection, if any, and waits for its read loop
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closeLocked()
}

func (a *Adapter) closeLocked() error {
	if a.port == nil {
		return nil
	}

	a.cancel()
	err := a.port.Close()
	a.loopWg.Wait()

	a.port = nil
	a.cancel = nil
	a.drain()
	if errors.Is(err, serial.ErrPortClosed) {
		err = nil
	}
	return err
}

// drain drops chunks and errors still queued from a closed connection
func (a *Adapter) drain() {
	for {
		select {
		case <-a.data:
		case <-a.errors:
		default:
			return
		}
	}
}
