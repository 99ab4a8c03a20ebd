// Package redis announces target file mutations on Redis pub/sub.
//
// Each operation has its own channel, <prefix>:write and <prefix>:clear, so
// subscribers can follow appends without seeing truncations (or use
// PSUBSCRIBE <prefix>:* for both). The message body is the JSON
// MutationEvent.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/filesock/adapter"
)

// DefaultChannelPrefix prefixes every per-operation channel.
const DefaultChannelPrefix = "filesock"

// DefaultTimeout bounds a single PUBLISH.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the number of extra PUBLISH attempts.
const DefaultRetries = 3

// Config configures the Redis notifier.
type Config struct {
	// URL is redis://[:password@]host:port[/db] (required).
	URL           string
	ChannelPrefix string
	Timeout       time.Duration
	Retries       int
}

// Adapter publishes mutation events with PUBLISH.
type Adapter struct {
	config  Config
	client  *goredis.Client
	backoff func(int) time.Duration
}

// New parses the URL and builds the client. It does not connect.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = DefaultChannelPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Adapter{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Channel returns the channel that events for operation are published on.
func (a *Adapter) Channel(operation string) string {
	return a.config.ChannelPrefix + ":" + operation
}

// Publish sends event on its operation channel. A publish that reaches no
// subscriber still counts as delivered.
func (a *Adapter) Publish(ctx context.Context, event *adapter.MutationEvent) error {
	if event.Operation == "" {
		return errors.New("redis: event has no operation")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	channel := a.Channel(event.Operation)

	err = adapter.Retry(ctx, a.config.Retries, a.backoff, func(ctx context.Context) (bool, error) {
		publishCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
		return true, a.client.Publish(publishCtx, channel, body).Err()
	})
	if err != nil {
		return fmt.Errorf("redis: publish to %s: %w", channel, err)
	}
	return nil
}

// Close closes the client connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
