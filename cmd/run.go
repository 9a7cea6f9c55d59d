/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/config"
	"github.com/allbin/go-serial-bridge/internal/transport"
	"github.com/allbin/go-serial-bridge/internal/util"
	"github.com/allbin/go-serial-bridge/internal/worker"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] [-- program args...]",
	Short: "Run the bridge between a multiboot cable and a worker",
	Long: `Start the worker and bridge it to the serial cable.

The worker decides which port to open with an open-port request; the cable
always runs at 57600 baud, 8 data bits, no parity. Arguments after -- are
handed to the worker as its program config.

Text from the cable is printed on stdout and worker console lines on
stderr. With --tui both are shown in a full screen monitor instead.

Example usage:
  mbbridge run --worker ./flash -- game.gba
  mbbridge run --worker node --worker-arg flash.js --codec cbor -- game.gba
  mbbridge run --mode websocket --listen 127.0.0.1:8765 -- game.gba
  mbbridge run --worker ./flash --files-root ./roms --tui -- game.gba
  sudo mbbridge run --worker ./flash --reset-on-loss -- game.gba`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var err error
		if cfg.UI.TUI {
			err = runMonitor(ctx, cfg, args)
		} else {
			err = runBridge(ctx, cfg, args, bridgeIO{
				output:  os.Stdout,
				console: os.Stderr,
				stderr:  os.Stderr,
			})
		}

		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("mode", config.ModeProcess, "Worker mode: process, websocket")
	flags.StringP("worker", "w", "", "Worker command to spawn in process mode")
	flags.StringArray("worker-arg", nil, "Argument for the worker command (repeatable)")
	flags.String("listen", "127.0.0.1:8765", "Address to accept a worker on in websocket mode")
	flags.StringP("codec", "c", "json", "Worker message codec: json, cbor")
	flags.Bool("error-events", false, "Report failed requests to the worker as on-bridge-error")
	flags.String("console-prefix", bridge.DefaultConsolePrefix, "Prefix for worker console lines")
	flags.String("files-root", "", "Serve read-file-contents from this directory only")
	flags.Duration("read-timeout", serialDefaultReadTimeout, "Serial read timeout, multiple of 100ms")
	flags.Int("read-buffer", transport.DefaultReadBuffer, "Serial read size in bytes")
	flags.Bool("flush-on-open", false, "Discard input buffered by the cable before the port was opened")
	flags.Bool("reset-on-loss", false, "USB-reset the cable when the connection to it is lost (needs usbreset)")
	flags.Bool("tui", false, "Show the bridge monitor instead of plain output")

	bindFlag(flags.Lookup("mode"), config.KeyWorkerMode)
	bindFlag(flags.Lookup("worker"), config.KeyWorkerCommand)
	bindFlag(flags.Lookup("worker-arg"), config.KeyWorkerArgs)
	bindFlag(flags.Lookup("listen"), config.KeyWorkerListen)
	bindFlag(flags.Lookup("codec"), config.KeyWorkerCodec)
	bindFlag(flags.Lookup("error-events"), config.KeyWorkerErrorEvents)
	bindFlag(flags.Lookup("console-prefix"), config.KeyWorkerConsolePrefix)
	bindFlag(flags.Lookup("files-root"), config.KeyFilesRoot)
	bindFlag(flags.Lookup("read-timeout"), config.KeySerialReadTimeout)
	bindFlag(flags.Lookup("read-buffer"), config.KeySerialReadBuffer)
	bindFlag(flags.Lookup("flush-on-open"), config.KeySerialFlushOnOpen)
	bindFlag(flags.Lookup("reset-on-loss"), config.KeySerialResetOnLoss)
	bindFlag(flags.Lookup("tui"), config.KeyUITUI)
}

var serialDefaultReadTimeout = config.Default().Serial.ReadTimeout

// bridgeIO routes the bridge's sinks
type bridgeIO struct {
	output   io.Writer
	console  io.Writer
	stderr   io.Writer
	observer func(bridge.Activity)
}

// runBridge connects a worker per cfg and runs the controller until the
// worker finishes, the cable fails or ctx ends
func runBridge(ctx context.Context, cfg *config.Config, programArgs []string, sinks bridgeIO) error {
	session := uuid.NewString()
	util.LogInfo("Starting bridge session %s", session)

	adapter := transport.New(transport.Options{
		Opener:      transport.SerialOpener(cfg.Driver(), cfg.Serial.ReadTimeout),
		ReadBuffer:  cfg.Serial.ReadBuffer,
		FlushOnOpen: cfg.Serial.FlushOnOpen,
	})
	defer adapter.Close()

	ch, closeWorker, err := connectWorker(ctx, cfg, sinks.stderr)
	if err != nil {
		return err
	}
	defer closeWorker()

	controller := bridge.New(bridge.Options{
		Transport:     adapter,
		Worker:        ch,
		Output:        sinks.output,
		Console:       sinks.console,
		ConsolePrefix: cfg.Worker.ConsolePrefix,
		Files:         bridge.FileSystem(cfg.Files.Root),
		ErrorEvents:   cfg.Worker.ErrorEvents,
		Observer:      sinks.observer,
	})

	err = controller.Run(ctx, programArgs)
	util.LogInfo("Bridge session %s ended", session)

	// usbreset needs the device released first
	adapter.Close()
	if resetErr := resetAfterLoss(err, controller.Port(), cfg.Serial.ResetOnLoss); resetErr != nil {
		util.LogError("Cable reset failed: %v", resetErr)
	}
	return err
}

// connectWorker starts or accepts the worker named by cfg
func connectWorker(ctx context.Context, cfg *config.Config, stderr io.Writer) (worker.Channel, func(), error) {
	codec := cfg.Codec()

	switch cfg.Worker.Mode {
	case config.ModeWebSocket:
		server, err := worker.Listen(cfg.Worker.Listen, codec)
		if err != nil {
			return nil, nil, err
		}
		util.LogInfo("Waiting for worker on %s (%s)", server.URL(), codec.Name())

		conn, err := server.Accept(ctx)
		if err != nil {
			server.Close()
			return nil, nil, err
		}
		util.LogInfo("Worker %s connected from %s", conn.ID, conn.RemoteAddr())

		return conn, func() {
			conn.Close()
			server.Close()
		}, nil

	default:
		// The worker outlives ctx so Close can end it gracefully
		proc, err := worker.StartProcess(context.WithoutCancel(ctx), worker.ProcessConfig{
			Command: cfg.Worker.Command,
			Args:    cfg.Worker.Args,
			Codec:   codec,
			Stderr:  stderr,
		})
		if err != nil {
			return nil, nil, err
		}
		util.LogInfo("Started worker %s (pid %d, %s)", cfg.Worker.Command, proc.Pid(), codec.Name())

		return proc, func() {
			proc.Close()
		}, nil
	}
}
