package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// closeGrace is how long Close waits for the worker to exit after its
// stdin is closed before killing it
var closeGrace = 2 * time.Second

// ProcessConfig describes the worker command to spawn
type ProcessConfig struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	Codec   Codec

	// Stderr receives the worker's own stderr; defaults to os.Stderr
	Stderr io.Writer
}

// Process is a Channel to a spawned worker speaking the codec over its
// stdin and stdout
type Process struct {
	*Stream
	cmd   *exec.Cmd
	stdin io.WriteCloser

	waitOnce sync.Once
	waitErr  error
}

var _ Channel = (*Process)(nil)

// StartProcess spawns the worker. Cancelling ctx kills it.
func StartProcess(ctx context.Context, cfg ProcessConfig) (*Process, error) {
	if cfg.Command == "" {
		return nil, ErrNoCommand
	}
	codec := cfg.Codec
	if codec == nil {
		codec = JSON
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	cmd.Stderr = cfg.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create worker stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %s: %w", cfg.Command, err)
	}

	return &Process{
		Stream: NewStream(stdout, stdin, codec),
		cmd:    cmd,
		stdin:  stdin,
	}, nil
}

// Pid returns the worker's process id
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Err reports a decode failure, or else the worker's exit status once its
// output has ended
func (p *Process) Err() error {
	if err := p.Stream.Err(); err != nil {
		return err
	}
	select {
	case <-p.Done():
		return p.wait()
	default:
		return nil
	}
}

// wait may only run after the decode loop has stopped reading stdout
func (p *Process) wait() error {
	p.waitOnce.Do(func() {
		if err := p.cmd.Wait(); err != nil {
			p.waitErr = fmt.Errorf("worker exited: %w", err)
		}
	})
	return p.waitErr
}

// Close ends the worker's input and waits for it to exit, killing it if
// it does not do so within the grace period
func (p *Process) Close() error {
	p.stdin.Close()

	select {
	case <-p.Done():
	case <-time.After(closeGrace):
		p.cmd.Process.Kill()
		<-p.Done()
	}

	p.Stream.Close()
	p.wait()
	return nil
}
