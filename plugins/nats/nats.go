// Package nats is the reference NATS source/writer plug-in pair (spec
// §6a): a source that subscribes to a subject and forwards each message
// as a text record, and a writer that publishes each record to a
// subject. Both share the single natsclient.Client injected via
// component.Dependencies — reconnection and circuit-breaking are
// entirely handled by that client.
package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/natsclient"
	"github.com/c360/ingestpipe/source"
	"github.com/c360/ingestpipe/writer"
)

// SourceConfig is the instance-specific configuration for a nats source.
type SourceConfig struct {
	Subject string `json:"subject"`
}

type sourceHooks struct {
	client  *natsclient.Client
	subject string
}

// NewSource is a component.SourceFactory for type identifier "nats".
func NewSource(name string, rawConfig json.RawMessage, deps component.Dependencies) (any, error) {
	var cfg SourceConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "nats.source", "NewSource", "config unmarshal")
	}
	if cfg.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "nats.source", "NewSource", "subject is required")
	}
	client, ok := deps.NATSClient.(*natsclient.Client)
	if !ok {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "nats.source", "NewSource", "no NATSClient in Dependencies")
	}

	logger, _ := deps.Logger.(*slog.Logger)
	hooks := &sourceHooks{client: client, subject: cfg.Subject}
	return source.NewBase(name, hooks, nil, logger), nil
}

func (h *sourceHooks) Run(ctx context.Context, name string, router source.RouteWriter) {
	err := h.client.Subscribe(ctx, h.subject, func(_ context.Context, data []byte) {
		router.WriteText(name, h.subject, string(data))
	})
	if err != nil {
		return
	}
	<-ctx.Done()
}

func (h *sourceHooks) Stop() error { return nil }

// WriterConfig is the instance-specific configuration for a nats writer.
type WriterConfig struct {
	Subject string `json:"subject"`
}

type writerHooks struct {
	client  *natsclient.Client
	subject string
}

// NewWriter is a component.WriterFactory for type identifier "nats".
func NewWriter(name string, rawConfig json.RawMessage, deps component.Dependencies) (any, error) {
	var cfg WriterConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "nats.writer", "NewWriter", "config unmarshal")
	}
	if cfg.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "nats.writer", "NewWriter", "subject is required")
	}
	client, ok := deps.NATSClient.(*natsclient.Client)
	if !ok {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "nats.writer", "NewWriter", "no NATSClient in Dependencies")
	}

	logger, _ := deps.Logger.(*slog.Logger)
	metricsRegistry, _ := deps.MetricsRegistry.(*metric.MetricsRegistry)
	hooks := &writerHooks{client: client, subject: cfg.Subject}
	return writer.NewBase(name, hooks, logger, metricsRegistry), nil
}

func (h *writerHooks) WriteImpl(source, topic, text string, seq []string) error {
	items := seq
	if items == nil {
		items = []string{text}
	}
	for _, item := range items {
		if err := h.client.Publish(context.Background(), h.subject, []byte(item)); err != nil {
			return errors.WrapTransient(err, "nats.writer", "WriteImpl", "publish")
		}
	}
	return nil
}

func (h *writerHooks) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error {
	items := seq
	if items == nil {
		items = [][]byte{b}
	}
	for _, item := range items {
		if err := h.client.Publish(context.Background(), h.subject, item); err != nil {
			return errors.WrapTransient(err, "nats.writer", "WriteBinaryImpl", "publish")
		}
	}
	return nil
}

func (h *writerHooks) StopImpl() error { return nil }
