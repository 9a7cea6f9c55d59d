package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	tarm "github.com/tarm/serial"
)

// tarmPort adapts github.com/tarm/serial to Port. tarm has no drain call,
// so Drain reports ErrNotSupported.
type tarmPort struct {
	mu     sync.RWMutex
	port   *tarm.Port
	closed bool
}

var _ Port = (*tarmPort)(nil)

func openTarm(device string, config Config) (Port, error) {
	cfg := &tarm.Config{
		Name:        device,
		Baud:        config.BaudRate,
		Size:        byte(config.DataBits),
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
		ReadTimeout: config.ReadTimeout,
	}
	switch config.Parity {
	case ParityOdd:
		cfg.Parity = tarm.ParityOdd
	case ParityEven:
		cfg.Parity = tarm.ParityEven
	}
	if config.StopBits == 2 {
		cfg.StopBits = tarm.Stop2
	}

	p, err := tarm.OpenPort(cfg)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
		case os.IsPermission(err):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, device)
		}
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}

	return &tarmPort{port: p}, nil
}

// Read goes through os.File, which reports an empty VTIME timeout as
// io.EOF; that is turned back into a zero count with a nil error.
func (p *tarmPort) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	n, err := p.port.Read(buf)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return p.port.Write(data)
}

func (p *tarmPort) ReadContext(ctx context.Context, buf []byte) (int, error) {
	return withContext(ctx, func() (int, error) { return p.Read(buf) })
}

func (p *tarmPort) WriteContext(ctx context.Context, data []byte) (int, error) {
	return withContext(ctx, func() (int, error) { return p.Write(data) })
}

func (p *tarmPort) Drain() error {
	return ErrNotSupported
}

// FlushInput uses tarm's Flush, which discards both directions
func (p *tarmPort) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.port.Flush()
}

func (p *tarmPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return p.port.Close()
}
