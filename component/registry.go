package component

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/c360/ingestpipe/errors"
)

// Kind identifies which of the three plug-in families a factory belongs to.
type Kind string

const (
	KindSource      Kind = "source"
	KindWriter      Kind = "writer"
	KindTransformer Kind = "transformer"
)

// SourceFactory builds a source plug-in from its raw instance config.
type SourceFactory func(name string, rawConfig json.RawMessage, deps Dependencies) (any, error)

// WriterFactory builds a writer plug-in from its raw instance config.
type WriterFactory func(name string, rawConfig json.RawMessage, deps Dependencies) (any, error)

// TransformerFactory builds a transformer plug-in from its "info" string
// (the substring of transformMeta after the first ':').
type TransformerFactory func(info string, deps Dependencies) (any, error)

// Dependencies bundles the runtime collaborators a factory may need.
// Not every plug-in uses every field.
type Dependencies struct {
	NATSClient      any // *natsclient.Client, kept untyped to avoid an import cycle with plug-ins
	MetricsRegistry any // *metric.MetricsRegistry
	Logger          any // *slog.Logger
}

// Registry is the explicit, program-start-populated factory map that
// replaces the reflection-based type registry of the source this design
// was distilled from. Configuration's logical type name resolves through
// here to a concrete constructor.
type Registry struct {
	mu           sync.RWMutex
	sources      map[string]SourceFactory
	writers      map[string]WriterFactory
	transformers map[string]TransformerFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[string]SourceFactory),
		writers:      make(map[string]WriterFactory),
		transformers: make(map[string]TransformerFactory),
	}
}

// RegisterSource registers a source plug-in factory under a logical
// implementation identifier (e.g. "udp", "nats").
func (r *Registry) RegisterSource(id string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[id]; exists {
		return errors.WrapInvalid(fmt.Errorf("source factory %q already registered", id),
			"Registry", "RegisterSource", "duplicate registration")
	}
	r.sources[id] = factory
	return nil
}

// RegisterWriter registers a writer plug-in factory.
func (r *Registry) RegisterWriter(id string, factory WriterFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.writers[id]; exists {
		return errors.WrapInvalid(fmt.Errorf("writer factory %q already registered", id),
			"Registry", "RegisterWriter", "duplicate registration")
	}
	r.writers[id] = factory
	return nil
}

// RegisterTransformer registers a transformer plug-in factory.
func (r *Registry) RegisterTransformer(id string, factory TransformerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transformers[id]; exists {
		return errors.WrapInvalid(fmt.Errorf("transformer factory %q already registered", id),
			"Registry", "RegisterTransformer", "duplicate registration")
	}
	r.transformers[id] = factory
	return nil
}

// CreateSource looks up id and invokes its factory.
func (r *Registry) CreateSource(id, name string, rawConfig json.RawMessage, deps Dependencies) (any, error) {
	r.mu.RLock()
	factory, ok := r.sources[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapFatal(fmt.Errorf("no source factory registered for type %q", id),
			"Registry", "CreateSource", "type lookup")
	}
	return factory(name, rawConfig, deps)
}

// CreateWriter looks up id and invokes its factory.
func (r *Registry) CreateWriter(id, name string, rawConfig json.RawMessage, deps Dependencies) (any, error) {
	r.mu.RLock()
	factory, ok := r.writers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapFatal(fmt.Errorf("no writer factory registered for type %q", id),
			"Registry", "CreateWriter", "type lookup")
	}
	return factory(name, rawConfig, deps)
}

// CreateTransformer looks up id and invokes its factory with the parsed
// transform info string.
func (r *Registry) CreateTransformer(id, info string, deps Dependencies) (any, error) {
	r.mu.RLock()
	factory, ok := r.transformers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapFatal(fmt.Errorf("no transformer factory registered for type %q", id),
			"Registry", "CreateTransformer", "type lookup")
	}
	return factory(info, deps)
}

// ListSources returns the registered source type identifiers.
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for k := range r.sources {
		out = append(out, k)
	}
	return out
}

// ListWriters returns the registered writer type identifiers.
func (r *Registry) ListWriters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.writers))
	for k := range r.writers {
		out = append(out, k)
	}
	return out
}

// ListTransformers returns the registered transformer type identifiers.
func (r *Registry) ListTransformers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.transformers))
	for k := range r.transformers {
		out = append(out, k)
	}
	return out
}
