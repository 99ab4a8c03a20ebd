package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/filesock/adapter"
	"github.com/pithecene-io/filesock/iox"
)

// delivery is one request as seen by the receiving endpoint.
type delivery struct {
	operation string
	key       string
	auth      string
	event     adapter.MutationEvent
}

// receiver answers with statuses in order, then 200, and records every
// delivery.
type receiver struct {
	mu         sync.Mutex
	statuses   []int
	deliveries []delivery
}

func (rc *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d := delivery{
		operation: r.Header.Get(HeaderOperation),
		key:       r.Header.Get(HeaderIdempotencyKey),
		auth:      r.Header.Get("Authorization"),
	}
	_ = json.NewDecoder(r.Body).Decode(&d.event)

	rc.mu.Lock()
	rc.deliveries = append(rc.deliveries, d)
	status := http.StatusNoContent
	if len(rc.statuses) > 0 {
		status, rc.statuses = rc.statuses[0], rc.statuses[1:]
	}
	rc.mu.Unlock()

	w.WriteHeader(status)
}

func (rc *receiver) received() []delivery {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]delivery(nil), rc.deliveries...)
}

func newTestAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.backoff = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(iox.CloseFunc(a))
	return a
}

func TestPublish_MutationHeaders(t *testing.T) {
	rc := &receiver{}
	ts := httptest.NewServer(rc)
	defer ts.Close()

	a := newTestAdapter(t, Config{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer t0k3n"},
	})

	appended := adapter.NewMutationEvent(adapter.OperationWrite, "/tmp/out.txt", "c-1", 12)
	cleared := adapter.NewMutationEvent(adapter.OperationClear, "/tmp/out.txt", "c-2", 0)
	for _, e := range []*adapter.MutationEvent{appended, cleared} {
		if err := a.Publish(t.Context(), e); err != nil {
			t.Fatalf("Publish(%s): %v", e.Operation, err)
		}
	}

	got := rc.received()
	if len(got) != 2 {
		t.Fatalf("received %d deliveries, want 2", len(got))
	}
	if got[0].operation != "write" || got[0].key != "c-1" || got[0].event.BytesWritten != 12 {
		t.Errorf("write delivery = %+v", got[0])
	}
	if got[1].operation != "clear" || got[1].key != "c-2" || got[1].event.BytesWritten != 0 {
		t.Errorf("clear delivery = %+v", got[1])
	}
	if got[0].auth != "Bearer t0k3n" {
		t.Errorf("Authorization = %q", got[0].auth)
	}
}

func TestPublish_RetriesKeepIdempotencyKey(t *testing.T) {
	rc := &receiver{statuses: []int{http.StatusBadGateway, http.StatusTooManyRequests}}
	ts := httptest.NewServer(rc)
	defer ts.Close()

	a := newTestAdapter(t, Config{URL: ts.URL, Retries: 2})
	if err := a.Publish(t.Context(), adapter.NewMutationEvent(adapter.OperationWrite, "/tmp/out.txt", "c-3", 4)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := rc.received()
	if len(got) != 3 {
		t.Fatalf("received %d deliveries, want 3", len(got))
	}
	for i, d := range got {
		if d.key != "c-3" {
			t.Errorf("delivery %d key = %q, want c-3", i, d.key)
		}
	}
}

func TestPublish_ClientErrorIsFinal(t *testing.T) {
	rc := &receiver{statuses: []int{http.StatusUnprocessableEntity}}
	ts := httptest.NewServer(rc)
	defer ts.Close()

	a := newTestAdapter(t, Config{URL: ts.URL, Retries: 3})
	err := a.Publish(t.Context(), adapter.NewMutationEvent(adapter.OperationClear, "/tmp/out.txt", "c-4", 0))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want StatusError 422", err)
	}
	if n := len(rc.received()); n != 1 {
		t.Errorf("received %d deliveries, want 1", n)
	}
}

func TestPublish_GivesUpAfterRetries(t *testing.T) {
	rc := &receiver{statuses: []int{500, 500, 500}}
	ts := httptest.NewServer(rc)
	defer ts.Close()

	a := newTestAdapter(t, Config{URL: ts.URL, Retries: 1})
	if err := a.Publish(t.Context(), adapter.NewMutationEvent(adapter.OperationWrite, "/tmp/out.txt", "c-5", 1)); err == nil {
		t.Fatal("expected error after retries")
	}
	if n := len(rc.received()); n != 2 {
		t.Errorf("received %d deliveries, want 2", n)
	}
}

func TestPublish_CanceledContext(t *testing.T) {
	rc := &receiver{}
	ts := httptest.NewServer(rc)
	defer ts.Close()

	a := newTestAdapter(t, Config{URL: ts.URL})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := a.Publish(ctx, adapter.NewMutationEvent(adapter.OperationWrite, "/tmp/out.txt", "c-6", 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := len(rc.received()); n != 0 {
		t.Errorf("received %d deliveries, want 0", n)
	}
}

func TestStatusError_Retriable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{400, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		if got := (&StatusError{Code: tt.code}).Retriable(); got != tt.want {
			t.Errorf("StatusError{%d}.Retriable() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "http://localhost", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}
	a, err := New(Config{URL: "http://localhost"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", a.config.Timeout, DefaultTimeout)
	}
}
