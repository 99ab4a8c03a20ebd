package config

import (
	"fmt"
	"time"
)

// Adapter types accepted in adapter.type.
const (
	AdapterNone    = ""
	AdapterWebhook = "webhook"
	AdapterRedis   = "redis"
)

// Config represents a filesock.yaml configuration file.
// All values are optional; CLI arguments and flags override them.
type Config struct {
	Socket          string        `yaml:"socket"`
	Target          string        `yaml:"target"`
	SerializeWrites bool          `yaml:"serialize_writes"`
	MaxContentBytes int           `yaml:"max_content_bytes"`
	IOTimeout       Duration      `yaml:"io_timeout"`
	Log             LogConfig     `yaml:"log"`
	Adapter         AdapterConfig `yaml:"adapter"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AdapterConfig configures the mutation notifier.
type AdapterConfig struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
	// ChannelPrefix names the redis channels <prefix>:write and <prefix>:clear.
	ChannelPrefix string            `yaml:"channel_prefix,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	Timeout       Duration          `yaml:"timeout,omitempty"`
	Retries       *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks value ranges and the adapter section.
func (c *Config) Validate() error {
	if c.IOTimeout.Duration < 0 {
		return fmt.Errorf("io_timeout must be >= 0, got %v", c.IOTimeout.Duration)
	}
	switch c.Adapter.Type {
	case AdapterNone:
	case AdapterWebhook, AdapterRedis:
		if c.Adapter.URL == "" {
			return fmt.Errorf("adapter.url is required for %s adapter", c.Adapter.Type)
		}
	default:
		return fmt.Errorf("unknown adapter type %q (must be webhook or redis)", c.Adapter.Type)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries)
	}
	return nil
}
