// Package worker carries the named event messages exchanged between the
// bridge and the external worker that drives it.
package worker

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Event names a request or notification on the worker channel
type Event string

// Requests (worker to bridge)
const (
	EventOpenPort         Event = "open-port"
	EventWriteSerial      Event = "write-serial"
	EventReadFileContents Event = "read-file-contents"
	EventWriteConsole     Event = "write-console"
	EventWriteStdout      Event = "write-stdout"
)

// Notifications (bridge to worker)
const (
	EventRemoteCommand      Event = "on-remote-command"
	EventFileContentsLoaded Event = "on-file-contents-loaded"
	EventProgramConfig      Event = "on-program-config"
	// EventBridgeError is only sent when error events are enabled
	EventBridgeError Event = "on-bridge-error"
)

// IsRequest reports whether e is one of the events a worker may send
func (e Event) IsRequest() bool {
	switch e {
	case EventOpenPort, EventWriteSerial, EventReadFileContents, EventWriteConsole, EventWriteStdout:
		return true
	}
	return false
}

// Message is one event with its payload. Only the fields relevant to the
// event are set; absent slices decode as empty.
type Message struct {
	Event   Event    `json:"event" cbor:"event"`
	Path    string   `json:"path,omitempty" cbor:"path,omitempty"`
	Text    string   `json:"text,omitempty" cbor:"text,omitempty"`
	Data    Bytes    `json:"data,omitempty" cbor:"data,omitempty"`
	Command *byte    `json:"command,omitempty" cbor:"command,omitempty"`
	Args    []string `json:"args,omitempty" cbor:"args,omitempty"`
	Request Event    `json:"request,omitempty" cbor:"request,omitempty"`
}

func (m Message) String() string {
	switch m.Event {
	case EventOpenPort, EventReadFileContents:
		return fmt.Sprintf("%s %s", m.Event, m.Path)
	case EventWriteSerial, EventFileContentsLoaded:
		return fmt.Sprintf("%s (%d bytes)", m.Event, len(m.Data))
	case EventRemoteCommand:
		if m.Command != nil {
			return fmt.Sprintf("%s 0x%02X", m.Event, *m.Command)
		}
	case EventProgramConfig:
		return fmt.Sprintf("%s %q", m.Event, m.Args)
	case EventBridgeError:
		return fmt.Sprintf("%s %s: %s", m.Event, m.Request, m.Text)
	}
	return string(m.Event)
}

// RemoteCommand builds the notification for one control byte
func RemoteCommand(command byte) Message {
	return Message{Event: EventRemoteCommand, Command: &command}
}

// FileContentsLoaded builds the notification carrying a whole file
func FileContentsLoaded(data []byte) Message {
	return Message{Event: EventFileContentsLoaded, Data: Bytes(data)}
}

// ProgramConfig builds the startup notification with the invocation arguments
func ProgramConfig(args []string) Message {
	if args == nil {
		args = []string{}
	}
	return Message{Event: EventProgramConfig, Args: args}
}

// BridgeError reports a failed request back to the worker
func BridgeError(request Event, err error) Message {
	return Message{Event: EventBridgeError, Request: request, Text: err.Error()}
}

// Bytes is a byte payload. In JSON it is an array of numbers so workers
// written in any language can read it; base64 strings are accepted on input.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	values := make([]uint16, len(b))
	for i, v := range b {
		values[i] = uint16(v)
	}
	return json.Marshal(values)
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("invalid base64 payload: %w", err)
		}
		*b = decoded
		return nil
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("payload value %d at index %d is not a byte", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
