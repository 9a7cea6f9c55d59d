// Package bridge connects the serial cable to the worker. It demultiplexes
// incoming serial chunks into text and control commands and carries out
// the worker's requests, all from a single dispatch loop.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sigurn/crc16"
	"github.com/spf13/afero"

	"github.com/allbin/go-serial-bridge/internal/demux"
	"github.com/allbin/go-serial-bridge/internal/transport"
	"github.com/allbin/go-serial-bridge/internal/util"
	"github.com/allbin/go-serial-bridge/internal/worker"
)

// DefaultConsolePrefix marks worker log lines on the diagnostic sink
const DefaultConsolePrefix = "worker: "

var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Transport is the serial side as seen by the controller
type Transport interface {
	Open(ctx context.Context, cfg transport.PortConfig) error
	Write(p []byte) (int, error)
	Data() <-chan []byte
	Errors() <-chan error
	Close() error
}

var _ Transport = (*transport.Adapter)(nil)

// Options wires a Controller
type Options struct {
	Transport Transport
	Worker    worker.Channel

	// Output receives the cable's text and write-stdout payloads verbatim
	Output io.Writer
	// Console receives write-console lines
	Console       io.Writer
	ConsolePrefix string

	// Files serves read-file-contents; defaults to the OS filesystem
	Files afero.Fs

	// ErrorEvents sends on-bridge-error to the worker when a request fails
	ErrorEvents bool

	Observer func(Activity)
}

// Controller owns the dispatch loop. Only the goroutine running Run may
// call HandleChunk and HandleRequest.
type Controller struct {
	transport   Transport
	worker      worker.Channel
	output      io.Writer
	console     io.Writer
	prefix      string
	files       afero.Fs
	errorEvents bool
	observer    func(Activity)
	port        string
}

// New creates a controller from opts
func New(opts Options) *Controller {
	c := &Controller{
		transport:   opts.Transport,
		worker:      opts.Worker,
		output:      opts.Output,
		console:     opts.Console,
		files:       opts.Files,
		errorEvents: opts.ErrorEvents,
		observer:    opts.Observer,
	}
	if c.output == nil {
		c.output = io.Discard
	}
	if c.console == nil {
		c.console = io.Discard
	}
	if c.files == nil {
		c.files = afero.NewOsFs()
	}

	prefix := opts.ConsolePrefix
	if prefix == "" {
		prefix = DefaultConsolePrefix
	}
	c.prefix = renderPrefix(c.console, prefix)
	return c
}

// renderPrefix colors the prefix only when the console is a terminal
func renderPrefix(w io.Writer, prefix string) string {
	label := strings.TrimRight(prefix, " ")
	if label == "" {
		return prefix
	}
	style := lipgloss.NewRenderer(w).NewStyle().
		Foreground(lipgloss.Color("#cba6f7")).
		Bold(true)
	return style.Render(label) + prefix[len(label):]
}

// Run announces args to the worker as on-program-config and then
// dispatches events until the worker goes away, the serial connection
// fails, a port cannot be opened, or ctx ends. A worker that closes its
// channel cleanly makes Run return nil.
func (c *Controller) Run(ctx context.Context, args []string) error {
	if err := c.worker.Send(worker.ProgramConfig(args)); err != nil {
		return fmt.Errorf("failed to send program config: %w", err)
	}
	util.LogDebug("Sent program config %q", args)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case m, ok := <-c.worker.Inbound():
			if !ok {
				// Err is only settled once Done is closed
				select {
				case <-c.worker.Done():
				case <-ctx.Done():
					return ctx.Err()
				}
				if err := c.worker.Err(); err != nil {
					return fmt.Errorf("%w: %w", ErrWorkerLost, err)
				}
				util.LogInfo("Worker finished")
				return nil
			}
			if err := c.HandleRequest(ctx, m); err != nil {
				if errors.Is(err, transport.ErrOpenFailed) {
					return err
				}
				c.requestFailed(m.Event, err)
			}

		case chunk := <-c.transport.Data():
			if err := c.HandleChunk(chunk); err != nil {
				// A worker that cannot take events is gone; its channel
				// closing ends the loop on the next iteration
				util.LogError("Failed to handle serial data: %v", err)
				c.observe(Activity{Kind: ActivityError, Err: err})
			}

		case err := <-c.transport.Errors():
			return fmt.Errorf("%w: %w", ErrSerialLost, err)
		}
	}
}

// Port returns the path of the last port a worker opened. Only read it
// once Run has returned.
func (c *Controller) Port() string {
	return c.port
}

func (c *Controller) requestFailed(event worker.Event, err error) {
	if errors.Is(err, ErrUnknownEvent) {
		util.LogWarning("Ignoring %v", err)
	} else {
		util.LogError("%s failed: %v", event, err)
	}
	c.observe(Activity{Kind: ActivityError, Text: string(event), Err: err})

	if !c.errorEvents {
		return
	}
	if sendErr := c.worker.Send(worker.BridgeError(event, err)); sendErr != nil {
		util.LogWarning("Failed to report error to worker: %v", sendErr)
	}
}

// HandleChunk writes the chunk's text to the output and then sends one
// on-remote-command per control byte, in order
func (c *Controller) HandleChunk(chunk []byte) error {
	text, commands := demux.Demultiplex(chunk)

	if len(text) > 0 {
		if _, err := c.output.Write(text); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		c.observe(Activity{Kind: ActivityText, Data: text})
	}

	for _, command := range commands {
		if err := c.worker.Send(worker.RemoteCommand(command)); err != nil {
			return fmt.Errorf("failed to send command 0x%02X: %w", command, err)
		}
		c.observe(Activity{Kind: ActivityCommand, Data: []byte{command}})
	}
	return nil
}

// HandleRequest carries out one worker request
func (c *Controller) HandleRequest(ctx context.Context, m worker.Message) error {
	util.LogDebug("Worker request: %s", m)

	switch m.Event {
	case worker.EventOpenPort:
		cfg := transport.NewPortConfig(m.Path)
		if err := c.transport.Open(ctx, cfg); err != nil {
			return err
		}
		c.port = m.Path
		c.observe(Activity{Kind: ActivityPortOpened, Text: cfg.String()})
		return nil

	case worker.EventWriteSerial:
		n, err := c.transport.Write(m.Data)
		if err != nil {
			return fmt.Errorf("failed to write %d bytes: %w", len(m.Data), err)
		}
		c.observe(Activity{Kind: ActivityWrite, Data: m.Data[:n]})
		return nil

	case worker.EventReadFileContents:
		return c.readFile(m.Path)

	case worker.EventWriteConsole:
		if _, err := fmt.Fprintf(c.console, "%s%s\n", c.prefix, m.Text); err != nil {
			return err
		}
		c.observe(Activity{Kind: ActivityConsole, Text: m.Text})
		return nil

	case worker.EventWriteStdout:
		if _, err := io.WriteString(c.output, m.Text); err != nil {
			return err
		}
		c.observe(Activity{Kind: ActivityStdout, Text: m.Text})
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, m.Event)
	}
}

func (c *Controller) readFile(path string) error {
	data, err := afero.ReadFile(c.files, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	util.LogDebug("Loaded %s: %d bytes, crc16 %04X", path, len(data), crc16.Checksum(data, crcTable))

	if err := c.worker.Send(worker.FileContentsLoaded(data)); err != nil {
		return fmt.Errorf("failed to send contents of %s: %w", path, err)
	}
	c.observe(Activity{Kind: ActivityFileLoaded, Data: data, Text: path})
	return nil
}

func (c *Controller) observe(a Activity) {
	if c.observer == nil {
		return
	}
	a.Time = time.Now()
	c.observer(a)
}

// FileSystem returns the filesystem read-file-contents is served from:
// the OS filesystem, or the tree under root when root is set
func FileSystem(root string) afero.Fs {
	fs := afero.NewOsFs()
	if root == "" {
		return fs
	}
	return afero.NewBasePathFs(fs, root)
}
