package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

const fileHeader = `# mbbridge configuration
#
# serial.driver        native, bugst or tarm
# serial.read_timeout  multiple of 100ms, at most 25.5s
# serial.reset_on_loss USB-reset the cable when the connection is lost (needs usbreset)
# worker.mode          process (spawn worker.command) or websocket (listen on worker.listen)
# worker.codec         json (newline-delimited) or cbor
# files.root           when set, read-file-contents is confined to this directory
#
# Every key can be overridden with MBBRIDGE_<SECTION>_<KEY>, e.g. MBBRIDGE_SERIAL_DRIVER.

`

// fileConfig mirrors Config with TOML tags; durations are written as
// strings such as "200ms", which viper decodes back into time.Duration
type fileConfig struct {
	Serial struct {
		Driver      string `toml:"driver"`
		ReadTimeout string `toml:"read_timeout"`
		ReadBuffer  int    `toml:"read_buffer"`
		FlushOnOpen bool   `toml:"flush_on_open"`
		ResetOnLoss bool   `toml:"reset_on_loss"`
	} `toml:"serial"`
	Worker struct {
		Mode          string   `toml:"mode"`
		Command       string   `toml:"command"`
		Args          []string `toml:"args"`
		Listen        string   `toml:"listen"`
		Codec         string   `toml:"codec"`
		ErrorEvents   bool     `toml:"error_events"`
		ConsolePrefix string   `toml:"console_prefix"`
	} `toml:"worker"`
	Files struct {
		Root string `toml:"root"`
	} `toml:"files"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	UI struct {
		TUI bool `toml:"tui"`
	} `toml:"ui"`
}

func toFile(c Config) fileConfig {
	var f fileConfig
	f.Serial.Driver = c.Serial.Driver
	f.Serial.ReadTimeout = c.Serial.ReadTimeout.String()
	f.Serial.ReadBuffer = c.Serial.ReadBuffer
	f.Serial.FlushOnOpen = c.Serial.FlushOnOpen
	f.Serial.ResetOnLoss = c.Serial.ResetOnLoss
	f.Worker.Mode = c.Worker.Mode
	f.Worker.Command = c.Worker.Command
	f.Worker.Args = c.Worker.Args
	if f.Worker.Args == nil {
		f.Worker.Args = []string{}
	}
	f.Worker.Listen = c.Worker.Listen
	f.Worker.Codec = c.Worker.Codec
	f.Worker.ErrorEvents = c.Worker.ErrorEvents
	f.Worker.ConsolePrefix = c.Worker.ConsolePrefix
	f.Files.Root = c.Files.Root
	f.Log.Level = c.Log.Level
	f.UI.TUI = c.UI.TUI
	return f
}

// Encode renders c as a commented TOML document
func Encode(c Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(toFile(c)); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes c to path. An existing file is only replaced when force
// is set.
func WriteFile(fs afero.Fs, path string, c Config, force bool) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := Encode(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
