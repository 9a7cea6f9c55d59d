// Package util holds the leveled logger shared by the bridge and the CLI.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
	// stdout carries the cable's text stream
	pterm.DefaultLogger.Writer = os.Stderr
}

func LogDebug(format string, args ...interface{}) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

func LogWarning(format string, args ...interface{}) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...))
}

// SetLevel selects the minimum level printed: debug, info, warn or error.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	case "", "info":
		pterm.DefaultLogger.Level = pterm.LogLevelInfo
	case "warn", "warning":
		pterm.DefaultLogger.Level = pterm.LogLevelWarn
	case "error":
		pterm.DefaultLogger.Level = pterm.LogLevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}

// SetOutput redirects log lines, e.g. away from the terminal while the
// monitor UI owns it.
func SetOutput(w io.Writer) {
	pterm.DefaultLogger.Writer = w
}
