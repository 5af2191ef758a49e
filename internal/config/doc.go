// Package config handles configuration loading, saving, and schema definition.
package config

import (
	"fmt"
	"os"
)

// Config is the top-level slackbridge configuration.
// Uses json tags in camelCase to match the JSON config file format.
type Config struct {
	Slack     SlackConfig     `json:"slack"`
	Redis     RedisConfig     `json:"redis"`
	Rules     RulesConfig     `json:"rules"`
	Reconnect ReconnectConfig `json:"reconnect"`
}

// SlackConfig holds the Slack credentials and access control.
type SlackConfig struct {
	// AppToken authorizes apps.connections.open (xapp-...).
	AppToken string `json:"appToken"`
	// BotToken authorizes chat.postMessage (xoxb-...).
	BotToken string `json:"botToken"`
	// AllowFrom restricts which user IDs get a reply. Empty allows everyone.
	AllowFrom []string `json:"allowFrom,omitempty"`
}

// RedisConfig holds the envelope cache connection settings.
type RedisConfig struct {
	URL      string `json:"url,omitempty"` // redis://host:port
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// RulesConfig points at the optional reply rules file.
type RulesConfig struct {
	Path string `json:"path,omitempty"`
}

// ReconnectConfig bounds the reconnect loop after transport loss.
type ReconnectConfig struct {
	MaxAttempts    int `json:"maxAttempts,omitempty"`
	InitialDelayMs int `json:"initialDelayMs,omitempty"`
	MaxDelayMs     int `json:"maxDelayMs,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Reconnect: ReconnectConfig{
			MaxAttempts:    5,
			InitialDelayMs: 1000,
			MaxDelayMs:     30000,
		},
	}
}

// Environment variable names. Env values win over the config file.
const (
	EnvAppToken = "SLACK_APP_TOKEN"
	EnvBotToken = "SLACK_BOT_TOKEN"
	EnvRedisURL = "REDIS_URL"
)

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvAppToken); v != "" {
		cfg.Slack.AppToken = v
	}
	if v := os.Getenv(EnvBotToken); v != "" {
		cfg.Slack.BotToken = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Redis.URL = v
	}
}

// Validate checks that the required credentials are present.
// The error names the environment variable that would supply the value.
func (c Config) Validate() error {
	if c.Slack.AppToken == "" {
		return fmt.Errorf("slack app token not configured (set %s)", EnvAppToken)
	}
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack bot token not configured (set %s)", EnvBotToken)
	}
	return nil
}
