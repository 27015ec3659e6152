// Package engine implements the Engine supervisor (spec §4.9): the
// top-level process owner that wires configuration to concrete plug-in
// instances through the factory registry, drives their Initialize/Start/
// Stop in the specified order, and monitors for Failed components while
// Running.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/config"
	ingesterrors "github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/message"
	"github.com/c360/ingestpipe/route"
	"github.com/c360/ingestpipe/router"
	"github.com/c360/ingestpipe/source"
)

// monitorInterval is the bounded sleep between monitor passes (spec
// §4.9: "MUST insert a bounded sleep (>= 50ms) between passes").
const monitorInterval = 250 * time.Millisecond

// stopGrace bounds how long Stop waits for the monitor goroutine to exit
// before it goes on to stop sources, the Router, and writers.
const stopGrace = 10 * time.Second

// Source is the subset of source.Base's surface the Engine depends on:
// full Lifecycle plus late-bound router injection (a source is
// constructed by its factory before the Router exists).
type Source interface {
	component.Lifecycle
	SetRouter(rw source.RouteWriter)
}

// Writer is the subset of writer.Base's surface the Engine and the
// Router's resolver depend on.
type Writer interface {
	component.Lifecycle
	route.Writer
}

// Transformer is an alias of route.Transformer, the interface a
// transformer plug-in must satisfy to be bound into a route.
type Transformer = route.Transformer

// Engine is the Lifecycle-driving supervisor described by spec §4.9.
type Engine struct {
	*component.StateMachine

	Registry *component.Registry
	Deps     component.Dependencies
	Logger   *slog.Logger

	// InstanceID disambiguates this process's log lines from other
	// instances of the same deployment running concurrently (e.g.
	// during a rolling restart).
	InstanceID string

	config *config.Config
	router *router.Router

	mu           sync.RWMutex
	sources      map[string]Source
	writers      map[string]Writer
	transformers map[string]Transformer

	monitorCancel func()
	monitorDone   chan struct{}
}

// New constructs an Engine bound to a plug-in factory registry.
func New(registry *component.Registry, deps component.Dependencies, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		StateMachine: component.NewStateMachine(),
		Registry:     registry,
		Deps:         deps,
		Logger:       logger,
		InstanceID:   uuid.New().String(),
		sources:      make(map[string]Source),
		writers:      make(map[string]Writer),
		transformers: make(map[string]Transformer),
	}
}

// Initialize loads cfg, instantiates every configured source and writer,
// and initializes the Router. Per spec §4.9, a component is recorded
// only if its Initialize call returned true; any step that leaves a
// required component uninitialized fails the whole Engine.
func (e *Engine) Initialize(cfg *config.Config) bool {
	e.config = cfg
	return e.StateMachine.Initialize(func() error {
		for name, inst := range cfg.Sources {
			src, err := e.Registry.CreateSource(inst.Type, name, inst.Raw, e.Deps)
			if err != nil {
				return fmt.Errorf("engine: create source %q: %w", name, err)
			}
			s, ok := src.(Source)
			if !ok {
				return fmt.Errorf("engine: source %q (%s) does not implement engine.Source", name, inst.Type)
			}
			if !s.Initialize(name) {
				e.Logger.Warn("engine: source failed to initialize, skipping", "source", name)
				continue
			}
			e.mu.Lock()
			e.sources[name] = s
			e.mu.Unlock()
		}

		for name, inst := range cfg.Writers {
			w, err := e.Registry.CreateWriter(inst.Type, name, inst.Raw, e.Deps)
			if err != nil {
				return fmt.Errorf("engine: create writer %q: %w", name, err)
			}
			writer, ok := w.(Writer)
			if !ok {
				return fmt.Errorf("engine: writer %q (%s) does not implement engine.Writer", name, inst.Type)
			}
			if !writer.Initialize(name) {
				e.Logger.Warn("engine: writer failed to initialize, skipping", "writer", name)
				continue
			}
			e.mu.Lock()
			e.writers[name] = writer
			e.mu.Unlock()
		}

		if e.router == nil {
			return fmt.Errorf("engine: no router configured (call SetRouter before Initialize)")
		}
		if !e.router.Initialize("router") {
			return fmt.Errorf("engine: router failed to initialize")
		}
		for _, src := range e.sources {
			src.SetRouter(e.router)
		}
		return nil
	})
}

// SetRouter installs the Router instance this Engine supervises. Must be
// called before Initialize; split out from New/Initialize so the caller
// can build the Router's resolver closure against the Engine's writer/
// transformer maps (see ResolveRoute).
func (e *Engine) SetRouter(r *router.Router) {
	e.router = r
}

// ResolveRoute is the router.WriterResolver the caller should pass to
// router.New: it looks up the destination writer by name and, if the
// descriptor names a transformer, instantiates and initializes it.
func (e *Engine) ResolveRoute(d message.RouteDescriptor) (route.WriterHandler, bool) {
	e.mu.RLock()
	_, srcOK := e.sources[d.SourceProvider]
	dest, destOK := e.writers[d.DestProvider]
	e.mu.RUnlock()
	if !srcOK {
		e.Logger.Warn("engine: route references unknown source, skipping", "source", d.SourceProvider, "error", ingesterrors.ErrUnknownSource)
		return route.WriterHandler{}, false
	}
	if !destOK {
		e.Logger.Warn("engine: route references unknown writer, skipping", "writer", d.DestProvider, "error", ingesterrors.ErrUnknownWriter)
		return route.WriterHandler{}, false
	}

	tw := &route.TransformerWriter{
		Writer:       dest,
		DestProvider: d.DestProvider,
		DestTopic:    d.DestTopic,
		MaxBatchSize: d.NormalizedMaxBatchSize(),
	}

	if d.HasTransform() {
		xf, err := e.Registry.CreateTransformer(d.TransformName(), d.TransformInfo(), e.Deps)
		if err != nil {
			e.Logger.Warn("engine: route references unknown transformer, skipping", "transformer", d.TransformName(), "error", fmt.Errorf("%w: %v", ingesterrors.ErrUnknownTransform, err))
			return route.WriterHandler{}, false
		}
		t, ok := xf.(Transformer)
		if !ok {
			e.Logger.Warn("engine: transformer does not implement engine.Transformer", "transformer", d.TransformName())
			return route.WriterHandler{}, false
		}
		if !t.Initialize(d.TransformInfo()) {
			e.Logger.Warn("engine: transformer failed to initialize", "transformer", d.TransformName())
			return route.WriterHandler{}, false
		}
		tw.Transformer = t
	}

	return route.WriterHandler{TransformName: d.TransformName(), TransformerWriter: tw}, true
}

// Start brings up writers, then the Router, then sources (spec §4.9),
// and launches the monitor goroutine.
func (e *Engine) Start() bool {
	return e.StateMachine.Start(func() error {
		e.mu.RLock()
		writers := make([]Writer, 0, len(e.writers))
		for _, w := range e.writers {
			writers = append(writers, w)
		}
		sources := make([]Source, 0, len(e.sources))
		for _, s := range e.sources {
			sources = append(sources, s)
		}
		e.mu.RUnlock()

		var g errgroup.Group
		for _, w := range writers {
			w := w
			g.Go(func() error {
				if !w.Start() {
					return fmt.Errorf("writer failed to start")
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}

		if !e.router.Start() {
			return fmt.Errorf("engine: router failed to start")
		}

		var sg errgroup.Group
		for _, s := range sources {
			s := s
			sg.Go(func() error {
				if !s.Start() {
					return fmt.Errorf("source failed to start")
				}
				return nil
			})
		}
		if err := sg.Wait(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}

		stop := make(chan struct{})
		e.monitorCancel = sync.OnceFunc(func() { close(stop) })
		e.monitorDone = make(chan struct{})
		go e.monitor(stop)
		return nil
	})
}

// monitor scans writers, the Router, and sources for any component
// observed Failed and re-starts it, sleeping monitorInterval between
// passes (spec §4.9: never a busy loop).
func (e *Engine) monitor(stop <-chan struct{}) {
	defer close(e.monitorDone)
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.restartFailed()
		}
	}
}

func (e *Engine) restartFailed() {
	e.mu.RLock()
	writers := make(map[string]Writer, len(e.writers))
	for name, w := range e.writers {
		writers[name] = w
	}
	sources := make(map[string]Source, len(e.sources))
	for name, s := range e.sources {
		sources[name] = s
	}
	e.mu.RUnlock()

	for name, w := range writers {
		if w.GetState() == component.StateFailed {
			e.Logger.Warn("engine: restarting failed writer", "writer", name)
			w.Start()
		}
	}
	if e.router.GetState() == component.StateFailed {
		e.Logger.Warn("engine: restarting failed router")
		e.router.Start()
	}
	for name, s := range sources {
		if s.GetState() == component.StateFailed {
			e.Logger.Warn("engine: restarting failed source", "source", name)
			s.Start()
		}
	}
}

// Stop brings down the monitor, then sources, the Router, and writers,
// in that order (spec §4.9).
func (e *Engine) Stop() bool {
	return e.StateMachine.Stop(func() error {
		if e.monitorCancel != nil {
			e.monitorCancel()
			select {
			case <-e.monitorDone:
			case <-time.After(stopGrace):
			}
		}

		e.mu.RLock()
		sources := make([]Source, 0, len(e.sources))
		for _, s := range e.sources {
			sources = append(sources, s)
		}
		writers := make([]Writer, 0, len(e.writers))
		for _, w := range e.writers {
			writers = append(writers, w)
		}
		e.mu.RUnlock()

		var failed atomic.Bool

		var sg errgroup.Group
		for _, s := range sources {
			s := s
			sg.Go(func() error {
				if !s.Stop() {
					failed.Store(true)
				}
				return nil
			})
		}
		sg.Wait()

		if e.router != nil && !e.router.Stop() {
			failed.Store(true)
		}

		var g errgroup.Group
		for _, w := range writers {
			w := w
			g.Go(func() error {
				if !w.Stop() {
					failed.Store(true)
				}
				return nil
			})
		}
		g.Wait()

		if failed.Load() {
			return fmt.Errorf("engine: one or more components failed to stop cleanly")
		}
		return nil
	})
}
