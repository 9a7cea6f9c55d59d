package demux

import (
	"bytes"
	"testing"
)

func TestClassifyTotal(t *testing.T) {
	for v := 0; v <= 255; v++ {
		got := Classify(byte(v))
		want := Text
		if v <= 5 {
			want = Control
		}
		if got != want {
			t.Errorf("Classify(%d) = %v, expected %v", v, got, want)
		}
	}
}

func TestClassifyBoundary(t *testing.T) {
	tests := []struct {
		input    byte
		expected Channel
	}{
		{0, Control},
		{5, Control},
		{6, Text},
		{255, Text},
	}

	for _, tt := range tests {
		if got := Classify(tt.input); got != tt.expected {
			t.Errorf("Classify(%d) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestChannelString(t *testing.T) {
	if Control.String() != "control" {
		t.Errorf("Expected \"control\", got %q", Control.String())
	}
	if Text.String() != "text" {
		t.Errorf("Expected \"text\", got %q", Text.String())
	}
}

func TestDemultiplex(t *testing.T) {
	tests := []struct {
		name     string
		chunk    []byte
		text     []byte
		commands []byte
	}{
		{"text then command", []byte{72, 101, 121, 3}, []byte("Hey"), []byte{3}},
		{"all control", []byte{1, 2, 3}, []byte{}, []byte{1, 2, 3}},
		{"all text", []byte("ABC"), []byte("ABC"), []byte{}},
		{"empty", []byte{}, []byte{}, []byte{}},
		{"nil", nil, []byte{}, []byte{}},
		{"interleaved", []byte{0, 'a', 5, 'b', 6, 4}, []byte{'a', 'b', 6}, []byte{0, 5, 4}},
		{"high bytes", []byte{200, 1, 255}, []byte{200, 255}, []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, commands := Demultiplex(tt.chunk)
			if text == nil || commands == nil {
				t.Fatal("Expected non-nil sequences")
			}
			if !bytes.Equal(text, tt.text) {
				t.Errorf("Expected text %v, got %v", tt.text, text)
			}
			if !bytes.Equal(commands, tt.commands) {
				t.Errorf("Expected commands %v, got %v", tt.commands, commands)
			}
		})
	}
}

func TestDemultiplexPartition(t *testing.T) {
	chunk := make([]byte, 256)
	for i := range chunk {
		chunk[i] = byte(255 - i)
	}

	text, commands := Demultiplex(chunk)
	if len(text)+len(commands) != len(chunk) {
		t.Fatalf("Expected %d bytes total, got %d", len(chunk), len(text)+len(commands))
	}
	if len(commands) != 6 {
		t.Errorf("Expected 6 command bytes, got %d", len(commands))
	}

	// each output must be the input filtered by channel, in input order
	var wantText, wantCommands []byte
	for _, b := range chunk {
		if b <= ControlThreshold {
			wantCommands = append(wantCommands, b)
		} else {
			wantText = append(wantText, b)
		}
	}
	if !bytes.Equal(text, wantText) {
		t.Error("Text sequence is not the ordered text subsequence")
	}
	if !bytes.Equal(commands, wantCommands) {
		t.Error("Command sequence is not the ordered control subsequence")
	}
}

func TestDemultiplexDoesNotAlias(t *testing.T) {
	chunk := []byte{'h', 'i', 2}
	text, commands := Demultiplex(chunk)

	chunk[0], chunk[2] = 'X', 4
	if text[0] != 'h' || commands[0] != 2 {
		t.Error("Results changed after the input chunk was modified")
	}

	again, againCmds := Demultiplex([]byte{'h', 'i', 2})
	if !bytes.Equal(text, again) || !bytes.Equal(commands, againCmds) {
		t.Error("Demultiplex is not deterministic")
	}
}
