// Package config loads mbbridge settings from flags, an optional config
// file and MBBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	serial "github.com/allbin/go-serial-bridge"
	"github.com/allbin/go-serial-bridge/internal/worker"
)

// FileName is the config file base name searched for without extension
const FileName = "mbbridge"

// EnvPrefix prefixes environment overrides, e.g. MBBRIDGE_SERIAL_DRIVER
const EnvPrefix = "MBBRIDGE"

// Keys, also used as flag binding names
const (
	KeySerialDriver      = "serial.driver"
	KeySerialReadTimeout = "serial.read_timeout"
	KeySerialReadBuffer  = "serial.read_buffer"
	KeySerialFlushOnOpen = "serial.flush_on_open"
	KeySerialResetOnLoss = "serial.reset_on_loss"

	KeyWorkerMode          = "worker.mode"
	KeyWorkerCommand       = "worker.command"
	KeyWorkerArgs          = "worker.args"
	KeyWorkerListen        = "worker.listen"
	KeyWorkerCodec         = "worker.codec"
	KeyWorkerErrorEvents   = "worker.error_events"
	KeyWorkerConsolePrefix = "worker.console_prefix"

	KeyFilesRoot = "files.root"
	KeyLogLevel  = "log.level"
	KeyUITUI     = "ui.tui"
)

// Worker modes
const (
	ModeProcess   = "process"
	ModeWebSocket = "websocket"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Serial SerialConfig `mapstructure:"serial"`
	Worker WorkerConfig `mapstructure:"worker"`
	Files  FilesConfig  `mapstructure:"files"`
	Log    LogConfig    `mapstructure:"log"`
	UI     UIConfig     `mapstructure:"ui"`
}

type SerialConfig struct {
	Driver      string        `mapstructure:"driver"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	ReadBuffer  int           `mapstructure:"read_buffer"`
	FlushOnOpen bool          `mapstructure:"flush_on_open"`
	ResetOnLoss bool          `mapstructure:"reset_on_loss"`
}

type WorkerConfig struct {
	Mode          string   `mapstructure:"mode"`
	Command       string   `mapstructure:"command"`
	Args          []string `mapstructure:"args"`
	Listen        string   `mapstructure:"listen"`
	Codec         string   `mapstructure:"codec"`
	ErrorEvents   bool     `mapstructure:"error_events"`
	ConsolePrefix string   `mapstructure:"console_prefix"`
}

type FilesConfig struct {
	Root string `mapstructure:"root"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type UIConfig struct {
	TUI bool `mapstructure:"tui"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Driver:      serial.DriverNative.String(),
			ReadTimeout: 200 * time.Millisecond,
			ReadBuffer:  4096,
		},
		Worker: WorkerConfig{
			Mode:          ModeProcess,
			Listen:        "127.0.0.1:8765",
			Codec:         "json",
			ConsolePrefix: "worker: ",
		},
		Log: LogConfig{Level: "info"},
	}
}

// SetDefaults registers Default() with v
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeySerialDriver, d.Serial.Driver)
	v.SetDefault(KeySerialReadTimeout, d.Serial.ReadTimeout)
	v.SetDefault(KeySerialReadBuffer, d.Serial.ReadBuffer)
	v.SetDefault(KeySerialFlushOnOpen, d.Serial.FlushOnOpen)
	v.SetDefault(KeySerialResetOnLoss, d.Serial.ResetOnLoss)
	v.SetDefault(KeyWorkerMode, d.Worker.Mode)
	v.SetDefault(KeyWorkerCommand, d.Worker.Command)
	v.SetDefault(KeyWorkerArgs, []string{})
	v.SetDefault(KeyWorkerListen, d.Worker.Listen)
	v.SetDefault(KeyWorkerCodec, d.Worker.Codec)
	v.SetDefault(KeyWorkerErrorEvents, d.Worker.ErrorEvents)
	v.SetDefault(KeyWorkerConsolePrefix, d.Worker.ConsolePrefix)
	v.SetDefault(KeyFilesRoot, d.Files.Root)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyUITUI, d.UI.TUI)
}

// Load reads settings into a Config. An explicit file must exist; without
// one, mbbridge.{toml,yaml,json} is looked up in the working directory and
// $HOME/.config/mbbridge and is optional. fs defaults to the OS filesystem.
func Load(v *viper.Viper, fs afero.Fs, file string) (*Config, error) {
	if fs != nil {
		v.SetFs(fs)
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mbbridge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be caught by decoding
func (c *Config) Validate() error {
	if _, err := serial.ParseDriver(c.Serial.Driver); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, KeySerialDriver, err)
	}

	if c.Serial.ReadTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeySerialReadTimeout)
	}
	check := serial.DefaultConfig()
	if err := serial.WithReadTimeout(c.Serial.ReadTimeout)(&check); err != nil {
		return fmt.Errorf("%w: %s: %v must be a multiple of 100ms up to 25.5s", ErrInvalid, KeySerialReadTimeout, c.Serial.ReadTimeout)
	}

	if c.Serial.ReadBuffer <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeySerialReadBuffer)
	}

	switch c.Worker.Mode {
	case ModeProcess, ModeWebSocket:
	default:
		return fmt.Errorf("%w: %s must be %s or %s, got %q", ErrInvalid, KeyWorkerMode, ModeProcess, ModeWebSocket, c.Worker.Mode)
	}

	if _, err := worker.CodecByName(c.Worker.Codec); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, KeyWorkerCodec, err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %s: unknown level %q", ErrInvalid, KeyLogLevel, c.Log.Level)
	}
	return nil
}

// Driver returns the parsed serial driver
func (c *Config) Driver() serial.Driver {
	d, _ := serial.ParseDriver(c.Serial.Driver)
	return d
}

// Codec returns the parsed worker codec
func (c *Config) Codec() worker.Codec {
	codec, err := worker.CodecByName(c.Worker.Codec)
	if err != nil {
		return worker.JSON
	}
	return codec
}
