package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dayuer/slackbridge/internal/redis"
	"github.com/dayuer/slackbridge/internal/rules"
)

// Publisher is the outbound side of the bridge. *slack.Client satisfies it.
type Publisher interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// eventsAPIPayload picks the fields the forwarder needs out of an
// events_api envelope payload.
type eventsAPIPayload struct {
	Event struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		Text    string `json:"text"`
		User    string `json:"user"`
		BotID   string `json:"bot_id"`
		Subtype string `json:"subtype"`
	} `json:"event"`
}

// Forwarder turns one acknowledged envelope into one chat.postMessage
// call. Bot and subtype events are dropped (loop protection), as are
// senders outside the allow-list when one is configured.
type Forwarder struct {
	publisher Publisher
	rules     *rules.Set
	allowFrom []string
}

// NewForwarder creates a Forwarder.
func NewForwarder(publisher Publisher, ruleSet *rules.Set, allowFrom []string) *Forwarder {
	if ruleSet == nil {
		ruleSet = &rules.Set{}
	}
	return &Forwarder{publisher: publisher, rules: ruleSet, allowFrom: allowFrom}
}

// Forward handles one envelope. The envelope is already acked; errors
// here are isolated by the session, not fatal.
func (f *Forwarder) Forward(ctx context.Context, envelopeID string, payload json.RawMessage) error {
	if redis.SeenEnvelope(ctx, envelopeID) {
		log.Printf("[Forward] Duplicate envelope %s, skipping", envelopeID)
		return nil
	}

	var p eventsAPIPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("envelope %s payload: %w", envelopeID, err)
	}
	ev := p.Event
	if ev.Channel == "" {
		return fmt.Errorf("envelope %s: event has no channel", envelopeID)
	}
	if ev.Text == "" {
		return fmt.Errorf("envelope %s: event has no text", envelopeID)
	}

	if ev.BotID != "" || ev.Subtype != "" {
		log.Printf("[Forward] Skipping bot/subtype event in envelope %s", envelopeID)
		redis.MarkEnvelope(ctx, envelopeID, 0)
		return nil
	}
	if !f.isAllowed(ev.User) {
		log.Printf("[Forward] Sender %s not in allow-list, skipping", ev.User)
		redis.MarkEnvelope(ctx, envelopeID, 0)
		return nil
	}

	reply := f.rules.Render(ev.Type, ev.Channel, ev.Text)
	if err := f.publisher.PostMessage(ctx, ev.Channel, reply); err != nil {
		return fmt.Errorf("envelope %s publish: %w", envelopeID, err)
	}

	redis.MarkEnvelope(ctx, envelopeID, 0)
	return nil
}

// isAllowed checks the sender against the allow-list. An empty list
// allows everyone; an event without a user field is allowed through.
func (f *Forwarder) isAllowed(user string) bool {
	if len(f.allowFrom) == 0 || user == "" {
		return true
	}
	for _, allowed := range f.allowFrom {
		if allowed == user {
			return true
		}
	}
	return false
}
