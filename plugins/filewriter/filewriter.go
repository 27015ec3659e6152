// Package filewriter is a reference writer plug-in (spec §6a): it
// appends records to a local file, one line per record (text written
// verbatim, binary as a JSON object with base64 data), rotating
// to a new file once the current one crosses a size threshold. Grounded
// on this repository's original NATS-to-file output component.
package filewriter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/writer"
)

// Config is the instance-specific configuration for a filewriter
// instance (spec §6 Writers.<name>).
type Config struct {
	Directory  string `json:"directory"`
	FilePrefix string `json:"filePrefix"`
	MaxBytes   int64  `json:"maxBytes"`
}

func (c *Config) validate() error {
	if c.Directory == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "filewriter.Config", "validate", "directory is required")
	}
	if c.FilePrefix == "" {
		c.FilePrefix = "output"
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 64 * 1024 * 1024
	}
	return nil
}

type hooks struct {
	cfg Config

	mu       sync.Mutex
	file     *os.File
	written  int64
	sequence int
}

// New is a component.WriterFactory for type identifier "file".
func New(name string, rawConfig json.RawMessage, deps component.Dependencies) (any, error) {
	var cfg Config
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "filewriter", "New", "config unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	h := &hooks{cfg: cfg}
	logger, _ := deps.Logger.(*slog.Logger)
	metricsRegistry, _ := deps.MetricsRegistry.(*metric.MetricsRegistry)
	return writer.NewBase(name, h, logger, metricsRegistry), nil
}

func (h *hooks) WriteImpl(source, topic, text string, seq []string) error {
	lines := seq
	if lines == nil {
		lines = []string{text}
	}
	for _, line := range lines {
		if err := h.appendLine(source, topic, line); err != nil {
			return err
		}
	}
	return nil
}

func (h *hooks) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error {
	items := seq
	if items == nil {
		items = [][]byte{b}
	}
	for _, item := range items {
		record := struct {
			Source string `json:"source"`
			Topic  string `json:"topic"`
			Data   []byte `json:"data"`
			TimeMs int64  `json:"timeMs"`
		}{Source: source, Topic: topic, Data: item, TimeMs: time.Now().UnixMilli()}
		encoded, err := json.Marshal(record)
		if err != nil {
			return errors.WrapInvalid(err, "filewriter", "WriteBinaryImpl", "marshal record")
		}
		if err := h.appendLine(source, topic, string(encoded)); err != nil {
			return err
		}
	}
	return nil
}

func (h *hooks) appendLine(source, topic, line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil || h.written >= h.cfg.MaxBytes {
		if err := h.rotateLocked(); err != nil {
			return errors.WrapFatal(err, "filewriter", "appendLine", "rotate")
		}
	}

	n, err := h.file.WriteString(line + "\n")
	if err != nil {
		return errors.WrapTransient(err, "filewriter", "appendLine", "write")
	}
	h.written += int64(n)
	return nil
}

func (h *hooks) rotateLocked() error {
	if h.file != nil {
		h.file.Close()
	}
	h.sequence++
	name := fmt.Sprintf("%s-%d-%03d.jsonl", h.cfg.FilePrefix, time.Now().Unix(), h.sequence)
	path := filepath.Join(h.cfg.Directory, name)

	if err := os.MkdirAll(h.cfg.Directory, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	h.file = f
	h.written = 0
	return nil
}

func (h *hooks) StopImpl() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}
