package worker

import (
	"errors"
	"io"
	"sync"
)

// inboundBuffer bounds how far the decode loop may run ahead of the bridge
const inboundBuffer = 64

// Channel is the bridge's view of a connected worker. Inbound is closed
// when the worker goes away; Err then reports why, or nil for a clean
// end of stream.
type Channel interface {
	Send(m Message) error
	Inbound() <-chan Message
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Stream is a Channel over a reader/writer pair framed by a Codec
type Stream struct {
	codec   Codec
	enc     Encoder
	closers []io.Closer

	sendMu sync.Mutex

	inbound chan Message
	done    chan struct{}
	stop    chan struct{}

	err       error
	closeOnce sync.Once
}

var _ Channel = (*Stream)(nil)

// NewStream starts decoding messages from r and encodes sent messages to w.
// Any closers are closed by Close, typically r and w themselves.
func NewStream(r io.Reader, w io.Writer, codec Codec, closers ...io.Closer) *Stream {
	s := &Stream{
		codec:   codec,
		enc:     codec.NewEncoder(w),
		closers: closers,
		inbound: make(chan Message, inboundBuffer),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	go s.readLoop(codec.NewDecoder(r))
	return s
}

func (s *Stream) readLoop(dec Decoder) {
	defer close(s.done)
	defer close(s.inbound)

	for {
		var m Message
		if err := dec.Decode(&m); err != nil {
			if !errors.Is(err, io.EOF) && !s.stopped() {
				s.err = err
			}
			return
		}

		select {
		case s.inbound <- m:
		case <-s.stop:
			return
		}
	}
}

func (s *Stream) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Send encodes m to the worker. Safe for concurrent use.
func (s *Stream) Send(m Message) error {
	if s.stopped() {
		return ErrClosed
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.enc.Encode(m)
}

func (s *Stream) Inbound() <-chan Message { return s.inbound }

func (s *Stream) Done() <-chan struct{} { return s.done }

// Err returns the error that ended the decode loop. Only meaningful once
// Done is closed.
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Codec returns the codec the stream was built with
func (s *Stream) Codec() Codec { return s.codec }

// Close stops the decode loop and closes the underlying streams
func (s *Stream) Close() error {
	var firstErr error
	s.closeOnce.Do(func() {
		close(s.stop)
		for _, c := range s.closers {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// Pipe returns two connected in-memory channels: what one side sends the
// other receives. Used to embed a worker in-process and in tests.
func Pipe(codec Codec) (*Stream, *Stream) {
	aReader, bWriter := io.Pipe()
	bReader, aWriter := io.Pipe()

	a := NewStream(aReader, aWriter, codec, aReader, aWriter)
	b := NewStream(bReader, bWriter, codec, bReader, bWriter)
	return a, b
}
