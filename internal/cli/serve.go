// Package cli implements the orchestration behind the tether commands.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tether"
	httpadapter "github.com/aretw0/tether/internal/adapters/http"
	redisadapter "github.com/aretw0/tether/internal/adapters/redis"
	"github.com/aretw0/tether/internal/config"
	"github.com/aretw0/tether/internal/logging"
	"github.com/aretw0/tether/internal/metrics"
	"github.com/aretw0/tether/internal/presentation/tui"
	"github.com/aretw0/tether/pkg/ports"
)

// ServeOptions carries the serve command's flags.
type ServeOptions struct {
	ConfigPath string
	Listen     string // overrides config when set
	Demo       bool
}

// RunServe starts the feed server and blocks until a signal or a server
// error.
func RunServe(opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Demo {
		cfg.Demo.Enabled = true
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)

	tui.PrintBanner(tether.Version)

	// Assemble the sink chain: SSE hub always, metrics always, redis when
	// configured.
	hub := httpadapter.NewHub()
	defer hub.Close()

	sinks := []ports.EventSink{
		hub,
		metrics.New(prometheus.DefaultRegisterer),
	}
	if cfg.Redis.Enabled {
		rs := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisadapter.WithStream(cfg.Redis.Stream),
			redisadapter.WithMaxLen(cfg.Redis.MaxLen),
			redisadapter.WithLogger(logger),
		)
		defer rs.Close()
		sinks = append(sinks, rs)
		logger.Info("mirroring feed to redis", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}

	registry := tether.New(
		tether.WithLogger(logger),
		tether.WithSink(sinks...),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Demo.Enabled {
		go runDemo(ctx, registry, cfg.Demo, logger)
		logger.Info("demo workload enabled", "objects", cfg.Demo.Objects, "interval", cfg.Demo.Interval)
	}

	handler := httpadapter.NewHandler(registry, hub,
		httpadapter.WithHeartbeat(cfg.Heartbeat),
		httpadapter.WithLogger(logger),
	)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("feed server listening", "addr", cfg.Listen)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
	}
	return nil
}
