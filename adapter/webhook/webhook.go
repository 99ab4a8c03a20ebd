// Package webhook POSTs target file mutations to an HTTP endpoint.
//
// The body is the JSON MutationEvent. Every request also carries:
//
//	X-Filesock-Operation: write | clear
//	Idempotency-Key:      <conn_id>
//
// A connection mutates the file at most once, so the connection ID names the
// mutation and lets a receiver drop deliveries repeated by retries.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pithecene-io/filesock/adapter"
	"github.com/pithecene-io/filesock/iox"
)

// Header names set on every delivery.
const (
	HeaderOperation      = "X-Filesock-Operation"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the number of extra delivery attempts.
const DefaultRetries = 3

// Config configures the webhook notifier.
type Config struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Retries int
}

// Adapter delivers mutation events over HTTP.
type Adapter struct {
	config  Config
	client  *http.Client
	backoff func(int) time.Duration
}

// New validates cfg and applies defaults.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Adapter{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retriable reports whether the receiver may accept the same delivery later:
// server errors, 408 and 429.
func (e *StatusError) Retriable() bool {
	return e.Code >= 500 || e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests
}

// Publish POSTs event, retrying network failures and retriable statuses.
func (a *Adapter) Publish(ctx context.Context, event *adapter.MutationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	err = adapter.Retry(ctx, a.config.Retries, a.backoff, func(ctx context.Context) (bool, error) {
		err := a.post(ctx, event, body)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return statusErr.Retriable(), err
		}
		return true, err
	})
	if err != nil {
		return fmt.Errorf("webhook: %s mutation: %w", event.Operation, err)
	}
	return nil
}

func (a *Adapter) post(ctx context.Context, event *adapter.MutationEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderOperation, event.Operation)
	if event.ConnID != "" {
		req.Header.Set(HeaderIdempotencyKey, event.ConnID)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close drops idle keep-alive connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
