// Package redis mirrors the registry event feed into a Redis stream, so
// external consumers can tail object lifecycles with XREAD.
package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tether/internal/logging"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Sink implements ports.EventSink on top of a Redis stream.
type Sink struct {
	client  *backend.Client
	stream  string
	maxLen  int64
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.EventSink = (*Sink)(nil)

type Option func(*Sink)

// WithStream sets the stream key events are appended to.
func WithStream(key string) Option {
	return func(s *Sink) {
		s.stream = key
	}
}

// WithMaxLen caps the stream length (approximate trimming). Zero keeps
// everything.
func WithMaxLen(n int64) Option {
	return func(s *Sink) {
		s.maxLen = n
	}
}

// WithLogger sets the logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// New creates a sink with its own client.
func New(address, password string, db int, opts ...Option) *Sink {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a sink from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		stream:  "tether:events",
		timeout: 2 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish appends the event to the stream. Sinks must not block the
// registry's hot path, so failures are logged and dropped, never returned.
func (s *Sink) Publish(ev domain.RegistryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	values := map[string]any{
		"type":      string(ev.Type),
		"object_id": strconv.FormatUint(ev.ObjectID, 10),
		"at":        ev.At.UTC().Format(time.RFC3339Nano),
	}
	if ev.Name != "" {
		values["name"] = ev.Name
	}
	if ev.Strategy != "" {
		values["strategy"] = string(ev.Strategy)
	}
	if len(ev.Fields) > 0 {
		data, err := json.Marshal(ev.Fields)
		if err == nil {
			values["fields"] = string(data)
		}
	}

	args := &backend.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.logger.Warn("failed to append event to redis stream",
			"stream", s.stream,
			"type", ev.Type,
			"err", err,
		)
	}
}

// Close closes the redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
