package worker

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Encoder writes values to a stream; satisfied by the json and cbor encoders
type Encoder interface {
	Encode(v any) error
}

// Decoder reads values from a stream
type Decoder interface {
	Decode(v any) error
}

// Codec frames messages on a byte stream and encodes them one at a time
// for message-oriented transports.
type Codec interface {
	Name() string
	// Binary reports whether encoded messages are binary frames
	Binary() bool
	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder
	Marshal(m Message) ([]byte, error)
	Unmarshal(data []byte, m *Message) error
}

var (
	// JSON encodes newline-delimited JSON objects
	JSON Codec = jsonCodec{}
	// CBOR encodes canonical CBOR maps
	CBOR Codec = newCBORCodec()
)

// CodecByName returns the codec called name ("json" or "cbor")
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

// json.Encoder terminates every value with a newline
func (jsonCodec) NewEncoder(w io.Writer) Encoder { return json.NewEncoder(w) }
func (jsonCodec) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

func (jsonCodec) Marshal(m Message) ([]byte, error) { return json.Marshal(m) }

func (jsonCodec) Unmarshal(data []byte, m *Message) error { return json.Unmarshal(data, m) }

type cborCodec struct {
	enc cbor.EncMode
}

func newCBORCodec() cborCodec {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("worker: failed to create CBOR enc mode: %v", err))
	}
	return cborCodec{enc: em}
}

func (cborCodec) Name() string { return "cbor" }
func (cborCodec) Binary() bool { return true }

func (c cborCodec) NewEncoder(w io.Writer) Encoder { return c.enc.NewEncoder(w) }
func (cborCodec) NewDecoder(r io.Reader) Decoder   { return cbor.NewDecoder(r) }

func (c cborCodec) Marshal(m Message) ([]byte, error) { return c.enc.Marshal(m) }

func (cborCodec) Unmarshal(data []byte, m *Message) error { return cbor.Unmarshal(data, m) }
