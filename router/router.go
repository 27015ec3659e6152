// Package router implements the Router (spec §4.8): the component that
// owns the live RouteTable, stages incoming records on a private
// workpool.Pool, and drains them through a fixed-size pkg/worker.Pool
// dispatch stage that looks up each (source, topic) pair and forwards
// to the resolved route.TransformerWriter. A background refresher
// periodically rebuilds the table from a MetaRegistry.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/ingestpipe/component"
	ingesterrors "github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/message"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/pkg/timestamp"
	"github.com/c360/ingestpipe/pkg/worker"
	"github.com/c360/ingestpipe/route"
	"github.com/c360/ingestpipe/workpool"
)

// defaultTargetThreads is used when configuration omits TargetThreads or
// sets it to zero/negative (spec §4.8).
const defaultTargetThreads = 3

// refreshCheckInterval is how often the refresher thread wakes to check
// whether a refresh is due (spec §4.8/§5: a 10s time.Ticker).
const refreshCheckInterval = 10 * time.Second

// refreshInterval is the documented constant staleness bound: a refresh
// is forced once this much time has passed since the last one.
const refreshInterval = 3600 * time.Second

// dispatchQueueSize bounds the internal worker.Pool queue sitting between
// the feeder and the TargetThreads dispatch workers. It is deliberately
// larger than any single feed batch so a brief burst does not spuriously
// trip ErrQueueFull.
const dispatchQueueSize = 1000

// feederStopGrace bounds how long Stop waits for the feeder and
// refresher goroutines to observe cancellation before tearing down the
// dispatch pool regardless (spec §4.8/§5: "~8s").
const feederStopGrace = 8 * time.Second

// dispatchGraceTimeout and dispatchForceTimeout are the two phases of the
// dispatch pool's shutdown: dispatchGraceTimeout to drain in-flight and
// queued work normally, then dispatchForceTimeout after the pool's
// context is cancelled before giving up (spec §4.8/§5: "a 60s+60s
// graceful/forced shutdown").
const (
	dispatchGraceTimeout = 60 * time.Second
	dispatchForceTimeout = 60 * time.Second
)

// MetaRegistry is the spec §4.7 plug-in ABI: a snapshot source for the
// authoritative route configuration. Fetch returning a non-nil error
// leaves the previous table in place; a successful empty result is
// applied and removes every route.
type MetaRegistry interface {
	Initialize() bool
	Fetch() ([]message.RouteDescriptor, error)
}

// WriterResolver builds the WriterHandler for one RouteDescriptor,
// resolving DestProvider/TransformName against live writer and
// transformer instances. It returns ok=false to skip a descriptor whose
// destination or transformer is not (yet) registered.
type WriterResolver func(d message.RouteDescriptor) (route.WriterHandler, bool)

// Router is the Lifecycle component described by spec §4.8.
type Router struct {
	*component.StateMachine

	TargetThreads   int
	Registry        MetaRegistry
	Resolve         WriterResolver
	Logger          *slog.Logger
	MetricsRegistry *metric.MetricsRegistry

	pool        *workpool.Pool
	dispatch    *worker.Pool[workpool.Entry]
	table       atomic.Pointer[route.Table]
	lastRefresh atomic.Int64

	cancel   context.CancelFunc
	stopFeed chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Router. TargetThreads <= 0 is normalized to
// defaultTargetThreads at Initialize time. metricsRegistry may be nil,
// in which case the dispatch pool runs without Prometheus metrics.
func New(targetThreads int, registry MetaRegistry, resolve WriterResolver, logger *slog.Logger, metricsRegistry *metric.MetricsRegistry) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		StateMachine:    component.NewStateMachine(),
		TargetThreads:   targetThreads,
		Registry:        registry,
		Resolve:         resolve,
		Logger:          logger,
		MetricsRegistry: metricsRegistry,
		pool:            workpool.New(),
	}
	r.table.Store(route.NewTable())
	return r
}

// Initialize normalizes TargetThreads, initializes the MetaRegistry, and
// performs the first refresh.
func (r *Router) Initialize(name string) bool {
	return r.StateMachine.Initialize(func() error {
		if r.TargetThreads <= 0 {
			r.TargetThreads = defaultTargetThreads
		}
		if !r.Registry.Initialize() {
			return errNotInitialized
		}
		r.refresh()
		return nil
	})
}

var errNotInitialized = routerError("meta registry failed to initialize")

type routerError string

func (e routerError) Error() string { return string(e) }

// refresh performs the clone-fetch-updateRoutes-swap cycle described by
// spec §4.8. A failed fetch (error or, per this implementation's choice,
// a nil slice distinguished from an empty one is not observable over the
// interface) retains the previous table without swapping.
func (r *Router) refresh() {
	clone := r.table.Load().Clone()

	descriptors, err := r.Registry.Fetch()
	if err != nil {
		r.Logger.Error("router refresh: registry fetch failed, retaining previous table",
			"error", fmt.Errorf("%w: %v", ingesterrors.ErrRegistryFetch, err))
		return
	}

	clone.UpdateRoutes(descriptors, r.Resolve)
	r.table.Store(clone)
	r.lastRefresh.Store(timestamp.Now())
}

// Start launches the refresher, the TargetThreads-worker dispatch pool,
// and the single feeder goroutine that drains the staging pool into it.
func (r *Router) Start() bool {
	return r.StateMachine.Start(func() error {
		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel

		opts := []worker.Option[workpool.Entry]{}
		if r.MetricsRegistry != nil {
			opts = append(opts, worker.WithMetricsRegistry[workpool.Entry](r.MetricsRegistry, "router_dispatch"))
		}
		r.dispatch = worker.NewPool(r.TargetThreads, dispatchQueueSize, r.dispatchOne, opts...)
		if err := r.dispatch.Start(ctx); err != nil {
			return fmt.Errorf("router: start dispatch pool: %w", err)
		}

		r.wg.Add(1)
		go r.runRefresher(ctx)

		r.stopFeed = make(chan struct{})
		r.wg.Add(1)
		go r.feed(r.stopFeed)
		return nil
	})
}

func (r *Router) runRefresher(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(refreshCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if timestamp.Since(r.lastRefresh.Load()) > refreshInterval {
				r.refresh()
			}
		}
	}
}

// feed drains the staging pool and hands each entry to the dispatch
// pool for routing. It is the sole consumer of r.pool, so the
// TargetThreads dispatch workers never contend on the staging queues'
// lock — they only ever see work already pulled off it.
func (r *Router) feed(stop chan struct{}) {
	defer r.wg.Done()
	for {
		entry, ok := r.pool.PopWait(stop)
		if !ok {
			return
		}
		if err := r.dispatch.Submit(entry); err != nil {
			r.Logger.Warn("router: dispatch queue full, dropping record", "error", err)
		}
	}
}

// dispatchOne is the dispatch pool's processor: it looks up the current
// table for the popped tuple and forwards to the resolved
// TransformerWriter. An unhandled writer failure is logged and
// swallowed — the record is lost but the worker survives (spec §4.8).
func (r *Router) dispatchOne(_ context.Context, e workpool.Entry) error {
	r.route(e)
	return nil
}

func (r *Router) route(e workpool.Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("router dispatch panicked", "panic", rec)
		}
	}()

	tw, ok := r.table.Load().Lookup(e.Tuple.Source, e.Tuple.Topic)
	if !ok {
		// UnrouteableRecord: dropped, not surfaced above Debug (spec §7).
		r.Logger.Debug("router: dropping unrouteable record", "error", ingesterrors.ErrUnrouteable,
			"source", e.Tuple.Source, "topic", e.Tuple.Topic)
		return
	}

	switch e.Kind {
	case workpool.KindText:
		tw.Write(e.Tuple.Source, e.Tuple.Topic, e.Text)
	case workpool.KindTextSeq:
		tw.WriteSeq(e.Tuple.Source, e.Tuple.Topic, e.TextSeq)
	case workpool.KindBinary:
		tw.WriteBinary(e.Tuple.Source, e.Tuple.Topic, e.Binary)
	case workpool.KindBinarySeq:
		tw.WriteBinarySeq(e.Tuple.Source, e.Tuple.Topic, e.BinarySeq)
	}
}

// Stop signals the feeder and refresher to exit, waits for them, then
// drains and stops the dispatch pool.
func (r *Router) Stop() bool {
	return r.StateMachine.Stop(func() error {
		if r.cancel != nil {
			r.cancel()
		}
		if r.stopFeed != nil {
			close(r.stopFeed)
		}
		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(feederStopGrace):
			r.Logger.Warn("router stop: feeder/refresher did not exit within grace period")
		}
		r.pool.Close()

		if r.dispatch != nil {
			if err := r.dispatch.Stop(dispatchGraceTimeout, dispatchForceTimeout); err != nil {
				r.Logger.Warn("router stop: dispatch pool did not stop cleanly", "error", err)
			}
		}
		return nil
	})
}

// WriteText stages a single text record for routing.
func (r *Router) WriteText(source, topic, text string) bool {
	return r.pool.WriteText(message.Tuple{Source: source, Topic: topic}, text, true)
}

// WriteTextSeq stages an ordered text sequence for routing.
func (r *Router) WriteTextSeq(source, topic string, seq []string) bool {
	return r.pool.WriteTextSeq(message.Tuple{Source: source, Topic: topic}, seq)
}

// WriteBinary stages a single binary record for routing.
func (r *Router) WriteBinary(source, topic string, b []byte) bool {
	return r.pool.WriteBinary(message.Tuple{Source: source, Topic: topic}, b)
}

// WriteBinarySeq stages an ordered binary sequence for routing.
func (r *Router) WriteBinarySeq(source, topic string, seq [][]byte) bool {
	return r.pool.WriteBinarySeq(message.Tuple{Source: source, Topic: topic}, seq)
}

// Depth reports the number of entries currently staged for routing.
func (r *Router) Depth() int {
	return r.pool.Len()
}
