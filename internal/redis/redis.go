// Package redis provides the envelope cache used to suppress duplicate
// event deliveries (Slack redelivers envelopes whose ack was lost).
//
// Graceful fallback: if Redis is unavailable, operations silently return
// zero values instead of blocking the bridge.
package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyEnvelope prefixes processed envelope IDs.
const KeyEnvelope = "env:"

// DefaultEnvelopeTTL bounds how long a processed envelope is remembered.
// Slack retries delivery for minutes, not hours.
const DefaultEnvelopeTTL = 15 * time.Minute

// Config holds Redis connection settings.
type Config struct {
	URL      string // redis://host:port
	Password string
	DB       int
}

var (
	client    *redis.Client
	connected bool
	mu        sync.RWMutex
)

// Init initializes the Redis connection. Returns true if connected.
func Init(cfg Config) bool {
	if cfg.URL == "" {
		log.Println("[Redis] URL not configured, skipping init")
		return false
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Printf("[Redis] ❌ Invalid URL: %v", err)
		return false
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MaxRetries = 3

	c := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("[Redis] ❌ Connection failed: %v", err)
		return false
	}

	mu.Lock()
	client = c
	connected = true
	mu.Unlock()

	log.Println("[Redis] ✅ Connected")
	return true
}

// Close closes the Redis connection.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if client != nil {
		client.Close()
		client = nil
		connected = false
		log.Println("[Redis] Connection closed")
	}
}

// IsAvailable checks if Redis is connected.
func IsAvailable() bool {
	mu.RLock()
	defer mu.RUnlock()
	return connected && client != nil
}

func getClient() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()
	if connected {
		return client
	}
	return nil
}

// SeenEnvelope reports whether an envelope ID was already processed.
// Returns false when Redis is unavailable.
func SeenEnvelope(ctx context.Context, envelopeID string) bool {
	c := getClient()
	if c == nil {
		return false
	}
	n, err := c.Exists(ctx, KeyEnvelope+envelopeID).Result()
	if err != nil {
		log.Printf("[Redis] seen_envelope failed (%s): %v", envelopeID, err)
		return false
	}
	return n > 0
}

// MarkEnvelope records an envelope ID as processed for ttl.
// Returns false on failure.
func MarkEnvelope(ctx context.Context, envelopeID string, ttl time.Duration) bool {
	c := getClient()
	if c == nil {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultEnvelopeTTL
	}
	if err := c.Set(ctx, KeyEnvelope+envelopeID, "1", ttl).Err(); err != nil {
		log.Printf("[Redis] mark_envelope failed (%s): %v", envelopeID, err)
		return false
	}
	return true
}
