package socketmode

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// State is the session lifecycle position.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "invalid"
	}
}

// Handler processes one acknowledged events_api envelope. Errors are
// isolated per event: the session logs them and keeps consuming, so a
// single bad event cannot take the whole connection down.
type Handler func(ctx context.Context, envelopeID string, payload json.RawMessage) error

// Session drives one Socket Mode connection. Dispatch is strictly
// sequential: the ack and the handler complete before the next frame
// is read. The Handler seam is where a bounded queue could be inserted
// later without touching the state machine.
type Session struct {
	conn    Conn
	handler Handler
	state   State
}

// NewSession wraps an established connection. The session is Active
// as soon as Run starts consuming; the transport already completed
// the upgrade handshake.
func NewSession(conn Conn, handler Handler) *Session {
	return &Session{conn: conn, handler: handler, state: StateConnecting}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Run consumes frames until a disconnect message, stream end, or ctx
// cancellation. A clean disconnect returns nil; transport loss and
// ack write failures return the error so the caller can reconnect.
func (s *Session) Run(ctx context.Context) error {
	s.state = StateActive
	defer func() { s.state = StateTerminated }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := s.conn.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("[Session] Stream closed by peer")
				return nil
			}
			// Includes io.EOF: a drop without a close frame is transport
			// loss, which the caller may answer with a reconnect.
			return err
		}

		switch frame.Kind {
		case FramePing:
			log.Printf("[Session] ping: %q", frame.Data)
		case FrameOther:
			log.Println("[Session] Unknown frame")
		case FrameText:
			done, err := s.dispatchText(ctx, frame.Text)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// dispatchText handles one text frame. done reports a clean disconnect.
func (s *Session) dispatchText(ctx context.Context, raw string) (done bool, err error) {
	switch m := ParseMessage(raw).(type) {
	case Hello:
		log.Printf("[Session] Hello: %s", raw)
	case Disconnect:
		log.Printf("[Session] Disconnect request: %s", m.Reason)
		return true, nil
	case EventsAPI:
		log.Printf("[Session] Events API envelope %s", m.EnvelopeID)
		if err := s.acknowledge(m.EnvelopeID); err != nil {
			return false, err
		}
		if s.handler != nil {
			if err := s.handler(ctx, m.EnvelopeID, m.Payload); err != nil {
				log.Printf("[Session] ⚠️ Event %s handler failed: %v", m.EnvelopeID, err)
			}
		}
	case Unknown:
		log.Printf("[Session] Unknown text frame: %s: %v", m.Raw, m.Reason)
	}
	return false, nil
}

// acknowledge sends the ack before any side effect tied to the
// envelope runs. At-most-once ack, best-effort delivery.
func (s *Session) acknowledge(envelopeID string) error {
	ack, err := EncodeAck(envelopeID)
	if err != nil {
		return err
	}
	return s.conn.WriteText(ack)
}
