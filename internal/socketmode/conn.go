package socketmode

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// FrameKind classifies transport frames as the session sees them.
type FrameKind int

const (
	FrameText FrameKind = iota
	FramePing
	FrameOther // binary and pong folded together
)

// Frame is one unit of data read from the transport.
type Frame struct {
	Kind FrameKind
	Text string // set for FrameText
	Data []byte // set for FramePing
}

// Conn is the bidirectional frame stream the session consumes.
// Implementations must deliver frames strictly in arrival order.
type Conn interface {
	// ReadFrame blocks until a frame arrives or the connection ends.
	ReadFrame() (Frame, error)
	// WriteText sends one text frame.
	WriteText(data []byte) error
	Close() error
}

const handshakeTimeout = 30 * time.Second

// Dial opens the encrypted websocket for a one-time Socket Mode URL.
// The full URL, path and query included, is required by the handshake.
// Every failure here (resolve, TLS, upgrade) fails closed.
func Dial(ctx context.Context, wssURL string) (Conn, error) {
	u, err := url.Parse(wssURL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("socket url %q has no host", wssURL)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  &tls.Config{ServerName: host},
	}
	ws, _, err := dialer.DialContext(ctx, wssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", host, err)
	}
	return newWSConn(ws), nil
}

// wsConn adapts a gorilla connection to the Conn interface.
// gorilla does NOT support concurrent writes, so every write — pongs
// included — goes through writeMu.
type wsConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	// Pings are consumed by gorilla inside ReadMessage; the handler
	// queues them here so the session still sees and logs them.
	pendingMu sync.Mutex
	pending   []Frame
}

func newWSConn(ws *websocket.Conn) *wsConn {
	c := &wsConn{ws: ws}
	ws.SetPingHandler(func(appData string) error {
		c.pendingMu.Lock()
		c.pending = append(c.pending, Frame{Kind: FramePing, Data: []byte(appData)})
		c.pendingMu.Unlock()
		// Answer the keepalive ourselves; mirrors gorilla's default handler.
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		err := c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	return c
}

func (c *wsConn) ReadFrame() (Frame, error) {
	if f, ok := c.takePending(); ok {
		return f, nil
	}

	messageType, data, err := c.ws.ReadMessage()
	if err != nil {
		// A ping may have been queued before the stream ended.
		if f, ok := c.takePending(); ok {
			return f, nil
		}
		return Frame{}, err
	}
	if f, ok := c.takePending(); ok {
		// Surface the ping first; the data frame follows next call.
		c.pendingMu.Lock()
		kind := FrameOther
		if messageType == websocket.TextMessage {
			kind = FrameText
		}
		c.pending = append(c.pending, Frame{Kind: kind, Text: string(data)})
		c.pendingMu.Unlock()
		return f, nil
	}

	if messageType == websocket.TextMessage {
		return Frame{Kind: FrameText, Text: string(data)}, nil
	}
	return Frame{Kind: FrameOther}, nil
}

func (c *wsConn) takePending() (Frame, bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if len(c.pending) == 0 {
		return Frame{}, false
	}
	f := c.pending[0]
	c.pending = c.pending[1:]
	return f, true
}

func (c *wsConn) WriteText(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}
