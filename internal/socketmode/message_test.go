package socketmode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage_Hello(t *testing.T) {
	m := ParseMessage(`{"type":"hello","num_connections":1}`)
	assert.IsType(t, Hello{}, m)
}

func TestParseMessage_Disconnect(t *testing.T) {
	m := ParseMessage(`{"type":"disconnect","reason":"refresh_requested"}`)
	d, ok := m.(Disconnect)
	require.True(t, ok)
	assert.Equal(t, "refresh_requested", d.Reason)
}

func TestParseMessage_EventsAPI(t *testing.T) {
	m := ParseMessage(`{"type":"events_api","envelope_id":"e-1","payload":{"event":{"text":"hi"}}}`)
	e, ok := m.(EventsAPI)
	require.True(t, ok)
	assert.Equal(t, "e-1", e.EnvelopeID)
	assert.JSONEq(t, `{"event":{"text":"hi"}}`, string(e.Payload))
}

func TestParseMessage_InvalidJSON(t *testing.T) {
	m := ParseMessage(`{not json`)
	u, ok := m.(Unknown)
	require.True(t, ok)
	assert.Equal(t, `{not json`, u.Raw)
	assert.Error(t, u.Reason)
}

func TestParseMessage_MissingDiscriminator(t *testing.T) {
	m := ParseMessage(`{"reason":"whatever"}`)
	u, ok := m.(Unknown)
	require.True(t, ok)
	assert.ErrorContains(t, u.Reason, "missing type")
}

func TestParseMessage_UnrecognizedTag(t *testing.T) {
	m := ParseMessage(`{"type":"slash_commands","envelope_id":"e-2"}`)
	u, ok := m.(Unknown)
	require.True(t, ok)
	assert.ErrorContains(t, u.Reason, "slash_commands")
}

func TestParseMessage_EventsAPIWithoutEnvelopeID(t *testing.T) {
	m := ParseMessage(`{"type":"events_api","payload":{}}`)
	assert.IsType(t, Unknown{}, m)
}

func TestEncodeAck_OmitsPayload(t *testing.T) {
	data, err := EncodeAck("abc123")
	require.NoError(t, err)
	// Payload must be absent, not null.
	assert.Equal(t, `{"envelope_id":"abc123"}`, string(data))
}
