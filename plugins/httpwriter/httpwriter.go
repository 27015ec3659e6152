// Package httpwriter is a reference writer plug-in (spec §6a): it posts
// each record, each text sequence, or each item of a binary sequence, as a JSON body to a
// configured URL, retrying transient failures via pkg/retry. Grounded
// on this repository's original HTTP POST output component, trimmed of
// its TLS/ACME machinery (no SPEC_FULL component needs client-cert
// provisioning for a reference plug-in — see DESIGN.md).
package httpwriter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/pkg/retry"
	"github.com/c360/ingestpipe/writer"
)

// Config is the instance-specific configuration for an httpwriter
// instance (spec §6 Writers.<name>).
type Config struct {
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`
	TimeoutSec int               `json:"timeoutSec,omitempty"`
	RetryCount int               `json:"retryCount,omitempty"`
}

func (c *Config) validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "httpwriter.Config", "validate", "url is required")
	}
	if _, err := url.Parse(c.URL); err != nil {
		return errors.WrapInvalid(err, "httpwriter.Config", "validate", "invalid url")
	}
	if c.TimeoutSec <= 0 {
		c.TimeoutSec = 30
	}
	if c.RetryCount <= 0 {
		c.RetryCount = 3
	}
	return nil
}

type payload struct {
	Source string   `json:"source"`
	Topic  string   `json:"topic"`
	Texts  []string `json:"texts,omitempty"`
	Binary []byte   `json:"binary,omitempty"`
}

type hooks struct {
	cfg        Config
	httpClient *http.Client
	retryCfg   retry.Config
}

// New is a component.WriterFactory for type identifier "http".
func New(name string, rawConfig json.RawMessage, deps component.Dependencies) (any, error) {
	var cfg Config
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "httpwriter", "New", "config unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	h := &hooks{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		retryCfg: retry.Config{
			MaxAttempts:  cfg.RetryCount,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			AddJitter:    true,
		},
	}
	logger, _ := deps.Logger.(*slog.Logger)
	metricsRegistry, _ := deps.MetricsRegistry.(*metric.MetricsRegistry)
	return writer.NewBase(name, h, logger, metricsRegistry), nil
}

func (h *hooks) WriteImpl(source, topic, text string, seq []string) error {
	p := payload{Source: source, Topic: topic, Texts: seq}
	if seq == nil {
		p.Texts = []string{text}
	}
	return h.post(p)
}

func (h *hooks) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error {
	if seq != nil {
		for _, item := range seq {
			if err := h.post(payload{Source: source, Topic: topic, Binary: item}); err != nil {
				return err
			}
		}
		return nil
	}
	return h.post(payload{Source: source, Topic: topic, Binary: b})
}

func (h *hooks) post(p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return errors.WrapInvalid(err, "httpwriter", "post", "marshal payload")
	}

	return retry.Do(context.Background(), h.retryCfg, func() error {
		req, err := http.NewRequest(http.MethodPost, h.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return retry.NonRetryable(errors.WrapInvalid(err, "httpwriter", "post", "build request"))
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range h.cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := h.httpClient.Do(req)
		if err != nil {
			return errors.WrapTransient(err, "httpwriter", "post", "http request")
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return errors.WrapTransient(errUnexpectedStatus(resp.StatusCode), "httpwriter", "post", "server error")
		}
		if resp.StatusCode >= 400 {
			return retry.NonRetryable(errors.WrapInvalid(errUnexpectedStatus(resp.StatusCode), "httpwriter", "post", "client error"))
		}
		return nil
	})
}

type errUnexpectedStatus int

func (e errUnexpectedStatus) Error() string {
	return "httpwriter: unexpected status " + http.StatusText(int(e))
}

func (h *hooks) StopImpl() error {
	h.httpClient.CloseIdleConnections()
	return nil
}
