package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/filesock/adapter"
	redisadapter "github.com/pithecene-io/filesock/adapter/redis"
	"github.com/pithecene-io/filesock/adapter/webhook"
	"github.com/pithecene-io/filesock/cli/config"
	"github.com/pithecene-io/filesock/iox"
	"github.com/pithecene-io/filesock/log"
	"github.com/pithecene-io/filesock/metrics"
	"github.com/pithecene-io/filesock/server"
	"github.com/pithecene-io/filesock/target"
)

// Exit codes for the serve action.
const (
	exitError = 1
	exitUsage = 2
)

// ServeUsage is the positional argument usage of the serve action.
const ServeUsage = "<socket-path> <file-path>"

// serveSettings is the merged view of config file, arguments and flags.
type serveSettings struct {
	socket          string
	target          string
	serializeWrites bool
	maxContentBytes int
	ioTimeout       time.Duration
	logLevel        string
	adapter         config.AdapterConfig
}

// ServeAction starts the server on <socket-path> for <file-path> and blocks
// until SIGINT or SIGTERM.
func ServeAction(c *cli.Context) error {
	settings, err := resolveServeSettings(c)
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(settings.logLevel)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid log level: %v", err), exitError)
	}
	logger := log.NewLogger(log.Meta{SocketPath: settings.socket, TargetPath: settings.target}, level)
	defer iox.DiscardErr(logger.Sync)

	file, err := target.Open(settings.target, target.Options{Serialize: settings.serializeWrites})
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open target file: %v", err), exitError)
	}

	notifier, err := buildAdapter(settings.adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), exitError)
	}
	if notifier != nil {
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Warn("adapter close failed", map[string]any{"error": err.Error()})
			}
		}()
	}

	collector := metrics.NewCollector(settings.socket, settings.target)
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithCollector(collector),
	}
	if notifier != nil {
		opts = append(opts, server.WithAdapter(notifier))
	}

	srv, err := server.New(server.Config{
		SocketPath:      settings.socket,
		MaxContentBytes: settings.maxContentBytes,
		IOTimeout:       settings.ioTimeout,
	}, file, opts...)
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	release := shutdownOnSignal(logger, cancel)
	defer release()

	logger.Info("server starting", map[string]any{
		"serialize_writes": settings.serializeWrites,
		"adapter":          settings.adapter.Type,
	})

	serveErr := srv.ListenAndServe(ctx)
	logger.Info("final metrics", collector.Snapshot().Fields())
	if serveErr != nil {
		return cli.Exit(fmt.Sprintf("server failed: %v", serveErr), exitError)
	}
	return nil
}

// shutdownOnSignal cancels on the first SIGINT or SIGTERM and restores the
// default handlers, so a second signal terminates the process even if
// shutdown is stuck. The returned func releases the handlers.
func shutdownOnSignal(logger *log.Logger, cancel context.CancelFunc) (release func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once
	release = func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}

	go func() {
		select {
		case sig := <-sigCh:
			release()
			logger.Info("shutting down, signal again to force exit", map[string]any{"signal": sig.String()})
			cancel()
		case <-done:
		}
	}()
	return release
}

// resolveServeSettings applies, in order: config file, positional arguments,
// explicitly set flags. A wrong argument count prints usage and exits 2.
func resolveServeSettings(c *cli.Context) (serveSettings, error) {
	var cfg config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return serveSettings{}, cli.Exit(err.Error(), exitError)
		}
		cfg = *loaded
	}

	s := serveSettings{
		socket:          cfg.Socket,
		target:          cfg.Target,
		serializeWrites: cfg.SerializeWrites,
		maxContentBytes: cfg.MaxContentBytes,
		ioTimeout:       cfg.IOTimeout.Duration,
		logLevel:        cfg.Log.Level,
		adapter:         cfg.Adapter,
	}

	switch {
	case c.NArg() == 2:
		s.socket = c.Args().Get(0)
		s.target = c.Args().Get(1)
	case c.NArg() == 0 && s.socket != "" && s.target != "":
		// Both paths come from the config file.
	default:
		_ = cli.ShowAppHelp(c)
		return serveSettings{}, cli.Exit("", exitUsage)
	}

	if c.IsSet("log-level") || s.logLevel == "" {
		s.logLevel = c.String("log-level")
	}
	if c.IsSet("serialize-writes") {
		s.serializeWrites = c.Bool("serialize-writes")
	}
	if c.IsSet("max-content-bytes") {
		s.maxContentBytes = c.Int("max-content-bytes")
	}
	if c.IsSet("io-timeout") {
		s.ioTimeout = c.Duration("io-timeout")
		if s.ioTimeout < 0 {
			return serveSettings{}, cli.Exit("--io-timeout must be >= 0", exitUsage)
		}
	}

	return s, nil
}

// buildAdapter creates the configured mutation notifier, or nil for none.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case config.AdapterNone:
		return nil, nil
	case config.AdapterWebhook:
		a, err := webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retriesOr(cfg.Retries, webhook.DefaultRetries),
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.AdapterRedis:
		a, err := redisadapter.New(redisadapter.Config{
			URL:           cfg.URL,
			ChannelPrefix: cfg.ChannelPrefix,
			Timeout:       cfg.Timeout.Duration,
			Retries:       retriesOr(cfg.Retries, redisadapter.DefaultRetries),
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Type)
	}
}

func retriesOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
