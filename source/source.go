// Package source implements the abstract source runloop (spec §4.6): the
// same lifecycle skeleton as writer.Base, but the plug-in's Run is a
// producer goroutine that pushes records into a router.Router via
// RouteWriter.write*(sourceName, topic, payload) rather than draining a
// private WorkPool.
package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/ingestpipe/component"
)

// RouteWriter is the surface a source pushes records into — satisfied by
// *router.Router. Kept minimal here to avoid an import cycle between
// source and router.
type RouteWriter interface {
	WriteText(source, topic, text string) bool
	WriteTextSeq(source, topic string, seq []string) bool
	WriteBinary(source, topic string, b []byte) bool
	WriteBinarySeq(source, topic string, seq [][]byte) bool
}

// Hooks is the plug-in ABI a concrete source supplies to Base. Run is the
// producer loop: it must return promptly once ctx is cancelled. Stop
// releases any plug-in-owned resource.
type Hooks interface {
	Run(ctx context.Context, name string, router RouteWriter)
	Stop() error
}

const (
	consumerPollInterval = 15 * time.Second
	consumerPollCount    = 3
)

// Base implements the Lifecycle contract common to every source plug-in.
// Embed it and supply Hooks.
type Base struct {
	*component.StateMachine

	Name   string
	Hooks  Hooks
	Router RouteWriter
	Logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBase constructs a Base bound to hooks, forwarding produced records
// into router.
func NewBase(name string, hooks Hooks, router RouteWriter, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		StateMachine: component.NewStateMachine(),
		Name:         name,
		Hooks:        hooks,
		Router:       router,
		Logger:       logger,
	}
}

// SetRouter (re)binds the RouteWriter records are pushed into. Plug-in
// factories construct a Base before the Engine's Router exists; the
// Engine calls SetRouter once the Router has been initialized, before
// Start.
func (b *Base) SetRouter(router RouteWriter) {
	b.Router = router
}

// Initialize transitions Created/FailedInitialization -> Initialized.
func (b *Base) Initialize(name string) bool {
	b.Name = name
	return b.StateMachine.Initialize(func() error { return nil })
}

// Start launches the producer goroutine.
func (b *Base) Start() bool {
	return b.StateMachine.Start(func() error {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		b.done = make(chan struct{})
		go b.run(ctx)
		return nil
	})
}

func (b *Base) run(ctx context.Context) {
	defer close(b.done)
	defer func() {
		if r := recover(); r != nil {
			b.Logger.Error("source run panicked", "source", b.Name, "panic", r)
			b.SetFailed()
		}
	}()
	b.Hooks.Run(ctx, b.Name, b.Router)
}

// Stop waits for the producer to notice cancellation, then tears down
// the plug-in's resources.
func (b *Base) Stop() bool {
	return b.StateMachine.Stop(func() error {
		if b.cancel != nil {
			b.cancel()
		}
		for i := 0; i < consumerPollCount; i++ {
			select {
			case <-b.done:
				goto stopped
			case <-time.After(consumerPollInterval):
			}
		}
	stopped:
		if err := b.Hooks.Stop(); err != nil {
			b.Logger.Warn("source stop hook failed", "source", b.Name, "error", err)
		}
		return nil
	})
}
