package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bugst "go.bug.st/serial"
)

// bugstPort adapts go.bug.st/serial to Port
type bugstPort struct {
	mu     sync.RWMutex
	port   bugst.Port
	closed bool
}

var _ Port = (*bugstPort)(nil)

func openBugst(device string, config Config) (Port, error) {
	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	switch config.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	}
	if config.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	p, err := bugst.Open(device, mode)
	if err != nil {
		return nil, bugstError(device, err)
	}

	if config.ReadTimeout > 0 {
		if err := p.SetReadTimeout(config.ReadTimeout); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	return &bugstPort{port: p}, nil
}

func bugstError(device string, err error) error {
	var portErr *bugst.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case bugst.PortNotFound:
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
		case bugst.PermissionDenied:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
		case bugst.PortBusy:
			return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
		case bugst.InvalidSpeed:
			return ErrInvalidBaudRate
		}
	}
	return fmt.Errorf("failed to open %s: %w", device, err)
}

// Read does not hold the lock across the call so that Close can interrupt
// a pending read; go.bug.st returns a PortClosed error in that case.
func (p *bugstPort) Read(buf []byte) (int, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		return 0, ErrPortClosed
	}
	n, err := p.port.Read(buf)
	var portErr *bugst.PortError
	if errors.As(err, &portErr) && portErr.Code() == bugst.PortClosed {
		return n, ErrPortClosed
	}
	return n, err
}

func (p *bugstPort) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return p.port.Write(data)
}

func (p *bugstPort) ReadContext(ctx context.Context, buf []byte) (int, error) {
	return withContext(ctx, func() (int, error) { return p.Read(buf) })
}

func (p *bugstPort) WriteContext(ctx context.Context, data []byte) (int, error) {
	return withContext(ctx, func() (int, error) { return p.Write(data) })
}

func (p *bugstPort) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.port.Drain()
}

func (p *bugstPort) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.port.ResetInputBuffer()
}

func (p *bugstPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return p.port.Close()
}
