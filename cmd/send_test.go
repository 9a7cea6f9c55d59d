package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
)

func TestParseHexString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
		wantErr  bool
	}{
		{"continuous", "48656c6c6f", []byte("Hello"), false},
		{"spaced", "01 02 03", []byte{1, 2, 3}, false},
		{"prefixed", "0x000X05", []byte{0, 5}, false},
		{"odd length", "123", nil, true},
		{"not hex", "zz", nil, true},
		{"empty", " ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHexString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSendPayload(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "payload.bin", []byte{0, 1, 0xFF}, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := sendPayload(fs, []string{"payload.bin"}, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(data, []byte{0, 1, 0xFF}) {
		t.Errorf("Expected file contents, got %v", data)
	}

	data, err = sendPayload(fs, nil, "0102")
	if err != nil || !bytes.Equal(data, []byte{1, 2}) {
		t.Errorf("Expected [1 2], got %v (err %v)", data, err)
	}

	if _, err := sendPayload(fs, []string{"payload.bin"}, "01"); err == nil {
		t.Error("Expected error for file and --hex together")
	}
	if _, err := sendPayload(fs, nil, ""); err == nil {
		t.Error("Expected error without file or --hex")
	}
	if _, err := sendPayload(fs, []string{"missing.bin"}, ""); err == nil {
		t.Error("Expected error for missing file")
	}
}
