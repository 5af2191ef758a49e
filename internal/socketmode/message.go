// Package socketmode implements the Slack Socket Mode protocol: the
// websocket transport, the tagged message taxonomy, and the session
// state machine that acknowledges event envelopes.
package socketmode

import (
	"encoding/json"
	"fmt"
)

// Message is the closed set of application messages carried in text
// frames, tagged by the "type" discriminator. Exactly one of Hello,
// Disconnect, EventsAPI, or Unknown is produced per frame.
type Message interface {
	messageKind() string
}

// Hello is sent by Slack once after the websocket opens. No payload.
type Hello struct{}

// Disconnect asks the client to drop the connection.
type Disconnect struct {
	Reason string `json:"reason"`
}

// EventsAPI carries one Events API envelope.
type EventsAPI struct {
	EnvelopeID string          `json:"envelope_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Unknown covers malformed JSON, a missing discriminator, or an
// unrecognized tag. The session logs these and keeps reading.
type Unknown struct {
	Raw    string
	Reason error
}

func (Hello) messageKind() string      { return "hello" }
func (Disconnect) messageKind() string { return "disconnect" }
func (EventsAPI) messageKind() string  { return "events_api" }
func (Unknown) messageKind() string    { return "unknown" }

// ParseMessage classifies one text frame. It never returns an error:
// anything that does not parse cleanly becomes Unknown, which is the
// protocol's one tolerant path.
func ParseMessage(raw string) Message {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return Unknown{Raw: raw, Reason: err}
	}

	switch probe.Type {
	case "hello":
		return Hello{}
	case "disconnect":
		var m Disconnect
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return Unknown{Raw: raw, Reason: err}
		}
		return m
	case "events_api":
		var m EventsAPI
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return Unknown{Raw: raw, Reason: err}
		}
		if m.EnvelopeID == "" {
			return Unknown{Raw: raw, Reason: fmt.Errorf("events_api without envelope_id")}
		}
		return m
	case "":
		return Unknown{Raw: raw, Reason: fmt.Errorf("missing type discriminator")}
	default:
		return Unknown{Raw: raw, Reason: fmt.Errorf("unrecognized type %q", probe.Type)}
	}
}

// Ack confirms receipt of one envelope. Payload is omitted entirely
// when nil — Slack rejects an explicit null.
type Ack struct {
	EnvelopeID string          `json:"envelope_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// EncodeAck serializes an acknowledgment for a text frame.
func EncodeAck(envelopeID string) ([]byte, error) {
	return json.Marshal(Ack{EnvelopeID: envelopeID})
}
