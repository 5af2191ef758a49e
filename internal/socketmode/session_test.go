package socketmode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn feeds scripted frames and records writes.
type fakeConn struct {
	frames   []Frame
	finalErr error // returned after frames run out (io.EOF if nil)
	writes   []string
	writeErr error
	closed   bool
}

func (c *fakeConn) ReadFrame() (Frame, error) {
	if len(c.frames) == 0 {
		if c.finalErr != nil {
			return Frame{}, c.finalErr
		}
		return Frame{}, io.EOF
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return f, nil
}

func (c *fakeConn) WriteText(data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func text(s string) Frame { return Frame{Kind: FrameText, Text: s} }

func closeNormal() error {
	return &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func TestSession_HelloStaysActiveNoReply(t *testing.T) {
	conn := &fakeConn{
		frames:   []Frame{text(`{"type":"hello"}`)},
		finalErr: closeNormal(),
	}
	sess := NewSession(conn, nil)
	err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conn.writes)
	assert.Equal(t, StateTerminated, sess.State())
}

func TestSession_HelloTwiceIsIdempotent(t *testing.T) {
	conn := &fakeConn{
		frames:   []Frame{text(`{"type":"hello"}`), text(`{"type":"hello"}`)},
		finalErr: closeNormal(),
	}
	err := NewSession(conn, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conn.writes)
}

func TestSession_DisconnectStopsReading(t *testing.T) {
	conn := &fakeConn{frames: []Frame{
		text(`{"type":"disconnect","reason":"link_disabled"}`),
		text(`{"type":"hello"}`), // must never be consumed
	}}
	err := NewSession(conn, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, conn.frames, 1, "frames after disconnect must not be read")
}

func TestSession_EventsAPIAcksBeforeHandler(t *testing.T) {
	conn := &fakeConn{
		frames:   []Frame{text(`{"type":"events_api","envelope_id":"E42","payload":{"event":{"channel":"C1","text":"hi"}}}`)},
		finalErr: closeNormal(),
	}

	var ackedFirst bool
	var gotEnvelope string
	handler := func(ctx context.Context, envelopeID string, payload json.RawMessage) error {
		ackedFirst = len(conn.writes) == 1
		gotEnvelope = envelopeID
		return nil
	}

	err := NewSession(conn, handler).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, conn.writes, 1)
	assert.Equal(t, `{"envelope_id":"E42"}`, conn.writes[0])
	assert.True(t, ackedFirst, "ack must be sent before the handler runs")
	assert.Equal(t, "E42", gotEnvelope)
}

func TestSession_HandlerErrorIsIsolated(t *testing.T) {
	conn := &fakeConn{
		frames: []Frame{
			text(`{"type":"events_api","envelope_id":"E1","payload":{}}`),
			text(`{"type":"events_api","envelope_id":"E2","payload":{}}`),
		},
		finalErr: closeNormal(),
	}
	var calls []string
	handler := func(ctx context.Context, envelopeID string, payload json.RawMessage) error {
		calls = append(calls, envelopeID)
		return errors.New("downstream exploded")
	}

	err := NewSession(conn, handler).Run(context.Background())
	require.NoError(t, err, "handler failures must not end the session")
	assert.Equal(t, []string{"E1", "E2"}, calls)
	assert.Len(t, conn.writes, 2, "both envelopes still get acked")
}

func TestSession_AckWriteFailureEndsSession(t *testing.T) {
	conn := &fakeConn{
		frames:   []Frame{text(`{"type":"events_api","envelope_id":"E1","payload":{}}`)},
		writeErr: errors.New("broken pipe"),
	}
	handlerCalled := false
	handler := func(ctx context.Context, envelopeID string, payload json.RawMessage) error {
		handlerCalled = true
		return nil
	}

	err := NewSession(conn, handler).Run(context.Background())
	assert.ErrorContains(t, err, "broken pipe")
	assert.False(t, handlerCalled)
}

func TestSession_MalformedTextContinues(t *testing.T) {
	conn := &fakeConn{
		frames: []Frame{
			text(`{not json`),
			text(`{"no":"type"}`),
			text(`{"type":"interactive"}`),
			text(`{"type":"hello"}`),
		},
		finalErr: closeNormal(),
	}
	err := NewSession(conn, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conn.writes, "malformed frames get no reply")
}

func TestSession_PingAndOtherFramesContinue(t *testing.T) {
	conn := &fakeConn{
		frames: []Frame{
			{Kind: FramePing, Data: []byte("keepalive")},
			{Kind: FrameOther},
			text(`{"type":"hello"}`),
		},
		finalErr: closeNormal(),
	}
	err := NewSession(conn, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conn.writes)
}

func TestSession_TransportLossReturnsError(t *testing.T) {
	conn := &fakeConn{finalErr: errors.New("connection reset")}
	err := NewSession(conn, nil).Run(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestSession_EOFIsTransportLoss(t *testing.T) {
	conn := &fakeConn{}
	err := NewSession(conn, nil).Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSession_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn := &fakeConn{frames: []Frame{text(`{"type":"hello"}`)}}
	err := NewSession(conn, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "terminated", StateTerminated.String())
}
