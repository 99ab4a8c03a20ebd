// Package server implements the filesock accept loop and the per-connection
// request cycle.
//
// The accept loop is sequential: accept, spawn one goroutine for the
// connection, accept again. Connection goroutines share nothing but the
// target file, the metrics collector and the notifier.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pithecene-io/filesock/adapter"
	"github.com/pithecene-io/filesock/log"
	"github.com/pithecene-io/filesock/metrics"
	"github.com/pithecene-io/filesock/target"
)

// DefaultMaxContentBytes caps the declared content length of a request (16 MiB).
const DefaultMaxContentBytes = 16 * 1024 * 1024

// DefaultNotifyTimeout bounds a single mutation notification, retries included.
const DefaultNotifyTimeout = 30 * time.Second

// Config configures a Server.
type Config struct {
	// SocketPath is the Unix domain socket to listen on (required).
	SocketPath string
	// MaxContentBytes rejects larger requests before reading their body.
	// Zero means DefaultMaxContentBytes; negative disables the limit.
	MaxContentBytes int
	// IOTimeout is the per-connection read/write deadline. Zero means none:
	// a silent client holds its goroutine until it disconnects.
	IOTimeout time.Duration
	// NotifyTimeout bounds each mutation notification (default 30s).
	NotifyTimeout time.Duration
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithLogger sets the logger (default: discard).
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCollector sets the metrics collector (default: none).
func WithCollector(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithAdapter sets the mutation notifier (default: none).
func WithAdapter(a adapter.Adapter) Option {
	return func(s *Server) { s.notifier = a }
}

// Server accepts connections on a Unix domain socket and serves one request
// per connection against the target file.
type Server struct {
	config   Config
	target   target.Mutator
	logger   *log.Logger
	metrics  *metrics.Collector
	notifier adapter.Adapter

	mu        sync.Mutex
	listener  net.Listener
	serving   chan struct{} // closed when Serve returns
	stopConns context.CancelFunc
	conns     sync.WaitGroup
}

// New creates a Server for the given target. Call Listen, then Serve.
func New(cfg Config, t target.Mutator, opts ...Option) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, errors.New("socket path is required")
	}
	if t == nil {
		return nil, errors.New("target is required")
	}
	if cfg.MaxContentBytes == 0 {
		cfg.MaxContentBytes = DefaultMaxContentBytes
	}
	if cfg.IOTimeout < 0 {
		return nil, fmt.Errorf("io timeout must be >= 0, got %v", cfg.IOTimeout)
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}

	s := &Server{config: cfg, target: t}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewNop()
	}
	return s, nil
}

func (s *Server) newHandler() *Handler {
	maxContent := s.config.MaxContentBytes
	if maxContent < 0 {
		maxContent = 0
	}
	return &Handler{
		target:        s.target,
		maxContent:    maxContent,
		ioTimeout:     s.config.IOTimeout,
		notifier:      s.notifier,
		notifyTimeout: s.config.NotifyTimeout,
		logger:        s.logger,
		metrics:       s.metrics,
	}
}

// Listen removes a stale socket file, if any, and binds the listener.
// A bind failure is fatal for the server and is not retried.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("server is already listening")
	}

	if err := removeStaleSocket(s.config.SocketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.config.SocketPath)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.config.SocketPath, err)
	}
	s.listener = ln

	s.logger.Info("server listening", map[string]any{"address": ln.Addr().String()})
	return nil
}

// Addr returns the listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or Close is called, in
// which case it returns nil. Any other accept failure is returned.
//
// On shutdown, connections still waiting for their request are dropped.
// A connection whose request was already read finishes its cycle.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	if ln == nil {
		s.mu.Unlock()
		return errors.New("server is not listening")
	}
	if s.serving != nil {
		s.mu.Unlock()
		return errors.New("server is already serving")
	}
	connCtx, stopConns := context.WithCancel(ctx)
	serving := make(chan struct{})
	s.serving = serving
	s.stopConns = stopConns
	s.mu.Unlock()
	defer close(serving)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	h := s.newHandler()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.metrics.IncConnectionAccepted()
		s.conns.Go(func() {
			h.Serve(connCtx, conn)
		})
	}
}

// ListenAndServe binds the socket, serves until ctx is cancelled, then
// closes the server.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	serveErr := s.Serve(ctx)
	closeErr := s.Close()
	if serveErr != nil {
		return serveErr
	}
	return closeErr
}

// Close stops accepting, waits for Serve to return, drops connections
// still waiting for a request, waits for the rest to finish and removes the
// socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	ln, serving, stopConns := s.listener, s.serving, s.stopConns
	s.mu.Unlock()

	if ln == nil {
		return nil
	}

	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", err)
	}
	// No connection is spawned once Serve has returned.
	if serving != nil {
		<-serving
		stopConns()
	}
	s.conns.Wait()

	s.mu.Lock()
	s.listener, s.serving, s.stopConns = nil, nil, nil
	s.mu.Unlock()

	if err := removeStaleSocket(s.config.SocketPath); err != nil {
		return err
	}
	s.logger.Info("server stopped", nil)
	return nil
}

// removeStaleSocket deletes path if it exists.
func removeStaleSocket(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove stale socket %s: %w", path, err)
}
