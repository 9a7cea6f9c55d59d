package worker

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestBytesJSONIsNumberArray(t *testing.T) {
	data, err := json.Marshal(FileContentsLoaded([]byte{0, 1, 254, 255}))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"event":"on-file-contents-loaded","data":[0,1,254,255]}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}
}

func TestBytesUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
		wantErr  bool
	}{
		{"number array", `[72,105]`, []byte("Hi"), false},
		{"empty array", `[]`, []byte{}, false},
		{"base64", `"SGk="`, []byte("Hi"), false},
		{"null", `null`, nil, false},
		{"out of range", `[256]`, nil, true},
		{"negative", `[-1]`, nil, true},
		{"bad base64", `"***"`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bytes
			err := json.Unmarshal([]byte(tt.input), &b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(b, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, b)
			}
		})
	}
}

func TestRemoteCommandZeroIsEncoded(t *testing.T) {
	data, err := JSON.Marshal(RemoteCommand(0))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"command":0`) {
		t.Errorf("Expected command 0 in %s", data)
	}

	var m Message
	if err := CBOR.Unmarshal(mustMarshal(t, CBOR, RemoteCommand(0)), &m); err != nil {
		t.Fatalf("CBOR Unmarshal failed: %v", err)
	}
	if m.Command == nil || *m.Command != 0 {
		t.Errorf("Expected command 0 after CBOR decode, got %v", m.Command)
	}
}

func TestProgramConfigNeverNil(t *testing.T) {
	m := ProgramConfig(nil)
	if m.Args == nil || len(m.Args) != 0 {
		t.Errorf("Expected empty args, got %#v", m.Args)
	}
	if m.Event != EventProgramConfig {
		t.Errorf("Expected %s, got %s", EventProgramConfig, m.Event)
	}
}

func TestBridgeError(t *testing.T) {
	m := BridgeError(EventReadFileContents, errors.New("no such file"))
	if m.Request != EventReadFileContents || m.Text != "no such file" {
		t.Errorf("Unexpected message %+v", m)
	}
	if got := m.String(); got != "on-bridge-error read-file-contents: no such file" {
		t.Errorf("Unexpected String() %q", got)
	}
}

func TestEventIsRequest(t *testing.T) {
	requests := []Event{EventOpenPort, EventWriteSerial, EventReadFileContents, EventWriteConsole, EventWriteStdout}
	for _, e := range requests {
		if !e.IsRequest() {
			t.Errorf("Expected %s to be a request", e)
		}
	}

	notifications := []Event{EventRemoteCommand, EventFileContentsLoaded, EventProgramConfig, EventBridgeError, "bogus"}
	for _, e := range notifications {
		if e.IsRequest() {
			t.Errorf("Expected %s not to be a request", e)
		}
	}
}

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{"", "json", false},
		{"json", "json", false},
		{"CBOR", "cbor", false},
		{"msgpack", "", true},
	}

	for _, tt := range tests {
		codec, err := CodecByName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("CodecByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownCodec) {
				t.Errorf("Expected ErrUnknownCodec, got %v", err)
			}
			continue
		}
		if codec.Name() != tt.expected {
			t.Errorf("CodecByName(%q) = %s, expected %s", tt.name, codec.Name(), tt.expected)
		}
	}
}

func TestCBORIsCanonical(t *testing.T) {
	m := Message{Event: EventOpenPort, Path: "/dev/ttyUSB0"}
	a := mustMarshal(t, CBOR, m)
	b := mustMarshal(t, CBOR, m)
	if !bytes.Equal(a, b) {
		t.Error("Expected identical encodings for identical messages")
	}
	if !CBOR.Binary() || JSON.Binary() {
		t.Error("Expected CBOR to be binary and JSON to be text")
	}
}

func mustMarshal(t *testing.T, codec Codec, m Message) []byte {
	t.Helper()
	data, err := codec.Marshal(m)
	if err != nil {
		t.Fatalf("%s Marshal failed: %v", codec.Name(), err)
	}
	return data
}
