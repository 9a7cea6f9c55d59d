package bridge

import "time"

// ActivityKind classifies what the bridge just did
type ActivityKind int

const (
	ActivityText ActivityKind = iota
	ActivityCommand
	ActivityWrite
	ActivityFileLoaded
	ActivityPortOpened
	ActivityConsole
	ActivityStdout
	ActivityError
)

func (k ActivityKind) String() string {
	switch k {
	case ActivityText:
		return "text"
	case ActivityCommand:
		return "command"
	case ActivityWrite:
		return "write"
	case ActivityFileLoaded:
		return "file"
	case ActivityPortOpened:
		return "open"
	case ActivityConsole:
		return "console"
	case ActivityStdout:
		return "stdout"
	case ActivityError:
		return "error"
	default:
		return "unknown"
	}
}

// Activity is one observable step, reported to Options.Observer from the
// dispatch goroutine
type Activity struct {
	Time time.Time
	Kind ActivityKind
	Data []byte
	Text string
	Err  error
}
