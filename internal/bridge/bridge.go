// Package bridge wires the Socket Mode session to the Slack Web API:
// bootstrap, connect, dispatch, and bounded reconnect after transport loss.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/dayuer/slackbridge/internal/config"
	"github.com/dayuer/slackbridge/internal/slack"
	"github.com/dayuer/slackbridge/internal/socketmode"
)

// Bootstrapper obtains a one-time socket URL. *slack.Client satisfies it.
type Bootstrapper interface {
	ConnectionsOpen(ctx context.Context) (string, error)
}

// DialFunc opens the websocket for a one-time URL.
type DialFunc func(ctx context.Context, wssURL string) (socketmode.Conn, error)

// Bridge runs the event bridge: one session at a time, reconnecting
// with exponential backoff when a session ends in error.
type Bridge struct {
	bootstrap Bootstrapper
	dial      DialFunc
	handler   socketmode.Handler
	reconnect config.ReconnectConfig
}

// New creates a Bridge. dial defaults to socketmode.Dial when nil.
func New(bootstrap Bootstrapper, dial DialFunc, handler socketmode.Handler, reconnect config.ReconnectConfig) *Bridge {
	if dial == nil {
		dial = socketmode.Dial
	}
	return &Bridge{bootstrap: bootstrap, dial: dial, handler: handler, reconnect: reconnect}
}

// NewFromConfig assembles the production bridge from configuration.
func NewFromConfig(cfg config.Config, client *slack.Client, forwarder *Forwarder) *Bridge {
	return New(client, nil, forwarder.Forward, cfg.Reconnect)
}

// Run blocks until a clean disconnect, ctx cancellation, or the
// reconnect budget is exhausted. The first bootstrap or dial failure
// is fatal: nothing was ever established, so the credentials or the
// network are wrong and retrying won't fix them.
func (b *Bridge) Run(ctx context.Context) error {
	attempt := 0
	for {
		err := b.runOnce(ctx)
		if err == nil {
			log.Println("[Bridge] Session ended cleanly")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == 0 && errors.As(err, new(*startupError)) {
			return err
		}

		attempt++
		if b.reconnect.MaxAttempts > 0 && attempt > b.reconnect.MaxAttempts {
			return fmt.Errorf("giving up after %d reconnect attempts: %w", b.reconnect.MaxAttempts, err)
		}
		delay := backoffDelay(b.reconnect, attempt)
		log.Printf("[Bridge] ⚠️ Session error: %v — reconnecting in %s (attempt %d)", err, delay, attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// startupError marks failures before any session was established;
// on the first attempt these abort instead of retrying.
type startupError struct{ err error }

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

// runOnce performs one bootstrap → dial → session cycle.
func (b *Bridge) runOnce(ctx context.Context) error {
	wssURL, err := b.bootstrap.ConnectionsOpen(ctx)
	if err != nil {
		return &startupError{fmt.Errorf("bootstrap: %w", err)}
	}
	log.Println("[Bridge] Connection URL issued, dialing...")

	conn, err := b.dial(ctx, wssURL)
	if err != nil {
		return &startupError{fmt.Errorf("connect: %w", err)}
	}
	defer conn.Close()

	// The websocket read does not watch the context, so closing the
	// conn is the only way to unblock a session stuck on an idle or
	// dead connection when the bridge is asked to stop.
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-sessionDone:
		}
	}()

	log.Println("[Bridge] ✅ Socket Mode session active")
	err = socketmode.NewSession(conn, b.handler).Run(ctx)
	if ctx.Err() != nil {
		// A read error caused by the close above is just the shutdown.
		return ctx.Err()
	}
	return err
}

// backoffDelay returns the exponential delay for attempt N (1-based),
// capped at the configured maximum.
func backoffDelay(cfg config.ReconnectConfig, attempt int) time.Duration {
	initial := time.Duration(cfg.InitialDelayMs) * time.Millisecond
	if initial <= 0 {
		initial = time.Second
	}
	max := time.Duration(cfg.MaxDelayMs) * time.Millisecond
	if max <= 0 {
		max = 30 * time.Second
	}
	delay := float64(initial) * math.Pow(2, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}
	return time.Duration(delay)
}
