// Package udpsource is a reference source plug-in (spec §6a): it listens
// on a UDP socket and forwards each datagram as a binary record,
// self-limiting its read rate with golang.org/x/time/rate since the
// WorkPool it feeds applies no backpressure of its own.
package udpsource

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"

	"github.com/c360/ingestpipe/component"
	stderrors "github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/source"
	"golang.org/x/time/rate"
)

// Config is the instance-specific configuration for a udpsource
// instance (spec §6 Sources.<name>).
type Config struct {
	Address          string  `json:"address"`
	MaxDatagramsPerS float64 `json:"maxDatagramsPerSec,omitempty"`
	BufferBytes      int     `json:"bufferBytes,omitempty"`
}

func (c *Config) validate() error {
	if c.Address == "" {
		return stderrors.WrapInvalid(stderrors.ErrInvalidConfig, "udpsource.Config", "validate", "address is required")
	}
	if c.MaxDatagramsPerS <= 0 {
		c.MaxDatagramsPerS = 1000
	}
	if c.BufferBytes <= 0 {
		c.BufferBytes = 65536
	}
	return nil
}

type hooks struct {
	cfg     Config
	limiter *rate.Limiter
	conn    net.PacketConn
}

// New is a component.SourceFactory for type identifier "udp".
func New(name string, rawConfig json.RawMessage, deps component.Dependencies) (any, error) {
	var cfg Config
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, stderrors.WrapInvalid(err, "udpsource", "New", "config unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger, _ := deps.Logger.(*slog.Logger)
	h := &hooks{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxDatagramsPerS), int(cfg.MaxDatagramsPerS)),
	}
	return source.NewBase(name, h, nil, logger), nil
}

func (h *hooks) Run(ctx context.Context, name string, router source.RouteWriter) {
	conn, err := net.ListenPacket("udp", h.cfg.Address)
	if err != nil {
		return
	}
	h.conn = conn
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, h.cfg.BufferBytes)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := h.limiter.Wait(ctx); err != nil {
			return
		}

		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		router.WriteBinary(name, h.cfg.Address, datagram)
	}
}

func (h *hooks) Stop() error {
	if h.conn != nil {
		return h.conn.Close()
	}
	return nil
}
