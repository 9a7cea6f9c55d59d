package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

// Port represents a serial port connection interface
type Port interface {
	io.ReadWriteCloser
	ReadContext(ctx context.Context, buf []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)
	Drain() error
	FlushInput() error
}

// Open opens a serial port with the given device path and options.
// The backend is chosen by the Driver option and defaults to the native
// termios implementation.
func Open(device string, opts ...Option) (Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	switch config.Driver {
	case DriverNative:
		return openNative(device, config)
	case DriverBugst:
		return openBugst(device, config)
	case DriverTarm:
		return openTarm(device, config)
	default:
		return nil, ErrUnknownDriver
	}
}

// nativePort talks to the tty through termios ioctls
type nativePort struct {
	mu     sync.RWMutex
	fd     int
	config Config
	closed bool
}

var _ Port = (*nativePort)(nil)

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 921600:
		return unix.B921600, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// openError maps the errno returned by open(2) onto the package sentinels
func openError(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	default:
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
}

func openNative(device string, config Config) (Port, error) {
	// O_NONBLOCK keeps open(2) from waiting on carrier detect; reads are
	// switched back to blocking once termios is in place.
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, openError(device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to clear O_NONBLOCK: %w", err)
	}

	return &nativePort{fd: fd, config: config}, nil
}

// configurePort puts the tty into raw mode with the requested line settings
func configurePort(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL | baudRate
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	}

	// VMIN=0 with VTIME>0: return as soon as any byte arrives, or after the timeout
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = config.readTimeoutTenths()

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}
	return nil
}

// Close closes the serial port
func (p *nativePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return unix.Close(p.fd)
}

// Read reads data from the serial port. A zero count with a nil error
// means the read timeout elapsed without data.
func (p *nativePort) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	n, err := unix.Read(p.fd, buf)
	if err == unix.EINTR || err == unix.EAGAIN {
		return 0, nil
	}
	if n < 0 {
		n = 0
	}
	return n, err
}

// Write writes all of data to the serial port
func (p *nativePort) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	written := 0
	for written < len(data) {
		n, err := unix.Write(p.fd, data[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (p *nativePort) ReadContext(ctx context.Context, buf []byte) (int, error) {
	return withContext(ctx, func() (int, error) { return p.Read(buf) })
}

func (p *nativePort) WriteContext(ctx context.Context, data []byte) (int, error) {
	return withContext(ctx, func() (int, error) { return p.Write(data) })
}

// Drain waits until all output written to the port has been transmitted
func (p *nativePort) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

// FlushInput discards any unread input data
func (p *nativePort) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIFLUSH)
}

// withContext runs a blocking I/O call and gives up when ctx ends first.
// The call itself keeps running until the port's read timeout fires.
func withContext(ctx context.Context, op func() (int, error)) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	type result struct {
		n   int
		err error
	}
	resultCh := make(chan result, 1)

	go func() {
		n, err := op()
		resultCh <- result{n: n, err: err}
	}()

	select {
	case r := <-resultCh:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
