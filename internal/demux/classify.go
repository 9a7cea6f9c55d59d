// Package demux splits the serial byte stream of a multiboot cable into
// in-band text and out-of-band control commands.
package demux

// ControlThreshold is the highest byte value treated as a control command
const ControlThreshold = 5

// Channel tags a byte as text or control
type Channel uint8

const (
	Text Channel = iota
	Control
)

func (c Channel) String() string {
	switch c {
	case Control:
		return "control"
	default:
		return "text"
	}
}

// Classify reports which channel b belongs to. Values 0 through 5 are
// control commands, everything else is text.
func Classify(b byte) Channel {
	if b <= ControlThreshold {
		return Control
	}
	return Text
}
