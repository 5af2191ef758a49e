// Package rules maps incoming event types to reply templates loaded
// from a YAML file. Without a rules file the built-in echo rule applies.
package rules

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule defines one reply template. Placeholders {text} and {channel}
// are substituted with the event's fields.
type Rule struct {
	EventType string `yaml:"event_type"`
	Template  string `yaml:"template"`
	Enabled   *bool  `yaml:"enabled,omitempty"`
}

// IsEnabled returns whether the rule is enabled (default true).
func (r Rule) IsEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// defaultTemplate quotes the incoming text back at the sender.
const defaultTemplate = "You said: ```{text}```"

// Set holds the loaded rules plus the built-in default.
type Set struct {
	rules []Rule
}

// ruleFile is the YAML document layout.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads rules from a YAML file. An empty path yields the default
// set; a missing file is an error (a configured path must exist).
func Load(path string) (*Set, error) {
	if path == "" {
		return &Set{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}

	var rules []Rule
	for _, r := range doc.Rules {
		if r.EventType == "" || r.Template == "" {
			log.Printf("[Rules] Skipping incomplete rule: %+v", r)
			continue
		}
		if !r.IsEnabled() {
			continue
		}
		rules = append(rules, r)
	}
	log.Printf("[Rules] Loaded %d rule(s) from %s", len(rules), path)
	return &Set{rules: rules}, nil
}

// Render produces the reply text for an event type. Unmatched types
// fall back to the default template.
func (s *Set) Render(eventType, channel, text string) string {
	template := defaultTemplate
	for _, r := range s.rules {
		if r.EventType == eventType {
			template = r.Template
			break
		}
	}
	out := strings.ReplaceAll(template, "{text}", text)
	out = strings.ReplaceAll(out, "{channel}", channel)
	return out
}

// Len returns the number of loaded rules (excluding the default).
func (s *Set) Len() int { return len(s.rules) }
