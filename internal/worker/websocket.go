package worker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketPath is the endpoint a network worker connects to
const WebSocketPath = "/worker"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts a single worker over WebSocket
type Server struct {
	codec    Codec
	listener net.Listener
	server   *http.Server
	connCh   chan *websocket.Conn
	claimed  atomic.Bool
}

// Listen starts serving WebSocketPath on addr ("127.0.0.1:0" picks a port)
func Listen(addr string, codec Codec) (*Server, error) {
	if codec == nil {
		codec = JSON
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		codec:    codec,
		listener: listener,
		connCh:   make(chan *websocket.Conn, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.handleWS)
	s.server = &http.Server{Handler: mux}

	go func() {
		_ = s.server.Serve(listener)
	}()

	return s, nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// URL returns the ws:// URL a worker should dial
func (s *Server) URL() string {
	return "ws://" + s.listener.Addr().String() + WebSocketPath
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Only the first worker is ever accepted.
	if !s.claimed.CompareAndSwap(false, true) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrAlreadyBound.Error()))
		conn.Close()
		return
	}
	s.connCh <- conn
}

// Accept blocks until a worker connects or ctx is cancelled
func (s *Server) Accept(ctx context.Context) (*Conn, error) {
	select {
	case conn := <-s.connCh:
		return newConn(conn, s.codec), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting connections. Accepted connections stay open.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Dial connects to a bridge's worker endpoint; it is the worker side of Listen
func Dial(ctx context.Context, url string, codec Codec) (*Conn, error) {
	if codec == nil {
		codec = JSON
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return newConn(conn, codec), nil
}

// Conn is a Channel carrying one message per WebSocket frame
type Conn struct {
	ID    string
	conn  *websocket.Conn
	codec Codec

	sendMu sync.Mutex

	inbound chan Message
	done    chan struct{}
	stop    chan struct{}

	err       error
	closeOnce sync.Once
}

var _ Channel = (*Conn)(nil)

func newConn(conn *websocket.Conn, codec Codec) *Conn {
	c := &Conn{
		ID:      uuid.NewString(),
		conn:    conn,
		codec:   codec,
		inbound: make(chan Message, inboundBuffer),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer close(c.inbound)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.stopped() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
			}
			return
		}

		var m Message
		if err := c.codec.Unmarshal(data, &m); err != nil {
			c.err = fmt.Errorf("failed to decode worker frame: %w", err)
			return
		}

		select {
		case c.inbound <- m:
		case <-c.stop:
			return
		}
	}
}

func (c *Conn) stopped() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// Send writes m as one frame, text for JSON and binary for CBOR
func (c *Conn) Send(m Message) error {
	if c.stopped() {
		return ErrClosed
	}

	data, err := c.codec.Marshal(m)
	if err != nil {
		return err
	}

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.conn.WriteMessage(frameType, data)
}

func (c *Conn) Inbound() <-chan Message { return c.inbound }

func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// RemoteAddr returns the worker's network address
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close sends a normal close frame and drops the connection
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.sendMu.Lock()
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.sendMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
