// Package writer implements the abstract writer runloop shared by every
// destination plug-in (spec §4.5): the four write* entry points stage
// work on a private workpool.Pool and return immediately; a single
// consumer goroutine drains the pool round-robin and invokes the
// plug-in's Hooks. Concrete plug-ins (plugins/nats, plugins/filewriter,
// plugins/httpwriter, ...) supply Hooks and embed *Base.
package writer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/errors"
	"github.com/c360/ingestpipe/message"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/workpool"
)

// Hooks is the plug-in ABI a concrete writer supplies to Base. WriteImpl
// handles text payloads (single and sequence, TextSeq nil for a single
// record); WriteBinaryImpl handles binary payloads the same way. StopImpl
// releases any plug-in-owned resource (sockets, file handles, ...) and
// runs after the consumer goroutine has been asked to exit.
type Hooks interface {
	WriteImpl(source, topic, text string, seq []string) error
	WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error
	StopImpl() error
}

// consumerPollWait bounds stop()'s patience for the consumer goroutine
// to notice the state change and exit on its own, per spec §4.5/§5: three
// 15-second polls, 45 seconds total.
const (
	consumerPollInterval = 15 * time.Second
	consumerPollCount    = 3
)

// consumerCancelGrace and consumerCancelForce bound the two-phase wait
// after cancel(): up to consumerCancelGrace for the consumer goroutine to
// observe ctx.Done() and exit, then one more consumerCancelForce window
// before Stop gives up and returns anyway (spec §4.5: "cancels the worker
// and awaits a bounded shutdown, ≤60s grace, then force"). Unlike
// pkg/worker.Pool's dispatch stage, there is nothing left to forcibly
// evict past cancellation — "force" here means ceasing to wait, not a
// second, harder cancellation.
const (
	consumerCancelGrace = 60 * time.Second
	consumerCancelForce = 60 * time.Second
)

// Base implements the Lifecycle + route.Writer contract common to every
// destination plug-in. Embed it and supply Hooks; do not call its
// unexported fields directly.
type Base struct {
	*component.StateMachine

	Name   string
	Hooks  Hooks
	Logger *slog.Logger

	pool    *workpool.Pool
	cancel  context.CancelFunc
	done    chan struct{}
	metrics *baseMetrics
}

// baseMetrics holds the Prometheus collectors one Base instance
// registers when constructed with a non-nil MetricsRegistry.
type baseMetrics struct {
	depth     prometheus.Gauge
	processed prometheus.Counter
	failed    prometheus.Counter
}

// metricName replaces characters Prometheus metric names disallow
// (instance names frequently contain hyphens, e.g. "file-out").
func metricName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

// NewBase constructs a Base bound to hooks. Call Initialize/Start per the
// Lifecycle contract before writing to it. metricsRegistry may be nil,
// in which case no Prometheus metrics are registered for this writer.
func NewBase(name string, hooks Hooks, logger *slog.Logger, metricsRegistry *metric.MetricsRegistry) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Base{
		StateMachine: component.NewStateMachine(),
		Name:         name,
		Hooks:        hooks,
		Logger:       logger,
		pool:         workpool.New(),
	}
	if metricsRegistry != nil {
		b.metrics = newBaseMetrics(metricsRegistry, name)
	}
	return b
}

func newBaseMetrics(registry *metric.MetricsRegistry, name string) *baseMetrics {
	prefix := "writer_" + metricName(name)
	m := &baseMetrics{
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_queue_depth",
			Help: "Entries currently staged for this writer",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_processed_total",
			Help: "Total entries this writer has dispatched to its hooks",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_failed_total",
			Help: "Total entries this writer failed to dispatch",
		}),
	}
	_ = registry.RegisterGauge("writer", prefix+"_queue_depth", m.depth)
	_ = registry.RegisterCounter("writer", prefix+"_processed_total", m.processed)
	_ = registry.RegisterCounter("writer", prefix+"_failed_total", m.failed)
	return m
}

// Initialize transitions Created/FailedInitialization -> Initialized. The
// base implementation has nothing of its own to validate; plug-ins that
// need config validation should call this from their own Initialize and
// inspect the returned bool.
func (b *Base) Initialize(name string) bool {
	b.Name = name
	return b.StateMachine.Initialize(func() error { return nil })
}

// Start launches the consumer goroutine.
func (b *Base) Start() bool {
	return b.StateMachine.Start(func() error {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		b.done = make(chan struct{})
		go b.consume(ctx)
		return nil
	})
}

// Stop waits for the consumer to notice the state transition, then tears
// down the plug-in and the consumer's context.
func (b *Base) Stop() bool {
	return b.StateMachine.Stop(func() error {
		for i := 0; i < consumerPollCount; i++ {
			select {
			case <-b.done:
				goto stopped
			case <-time.After(consumerPollInterval):
			}
		}
	stopped:
		if err := b.Hooks.StopImpl(); err != nil {
			b.Logger.Warn("writer stopImpl failed", "writer", b.Name, "error", err)
		}
		if b.cancel != nil {
			b.cancel()
		}
		b.awaitConsumerExit()
		b.pool.Close()
		return nil
	})
}

// awaitConsumerExit waits for the consumer goroutine to close b.done after
// cancellation, granting a grace window and then one additional force
// window before giving up and logging (see consumerCancelGrace/Force).
func (b *Base) awaitConsumerExit() {
	if b.done == nil {
		return
	}
	select {
	case <-b.done:
		return
	case <-time.After(consumerCancelGrace):
	}

	b.Logger.Warn("writer consumer did not exit within grace period, forcing", "writer", b.Name)
	select {
	case <-b.done:
	case <-time.After(consumerCancelForce):
		b.Logger.Error("writer consumer did not exit after cancellation", "writer", b.Name)
	}
}

// consumePollBackoff bounds how long the consumer sleeps between empty
// polls; it must stay short so the loop notices a Running -> anything
// transition promptly instead of blocking inside PopWait past it.
const consumePollBackoff = 5 * time.Millisecond

func (b *Base) consume(ctx context.Context) {
	defer close(b.done)
	timer := time.NewTimer(consumePollBackoff)
	defer timer.Stop()

	for b.GetState() == component.StateRunning {
		entry, ok := b.pool.Poll()
		if ok {
			if b.metrics != nil {
				b.metrics.depth.Set(float64(b.pool.Len()))
			}
			b.dispatch(entry)
			continue
		}

		if !timer.Stop() {
			<-timer.C
		}
		timer.Reset(consumePollBackoff)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

func (b *Base) dispatch(e workpool.Entry) {
	defer func() {
		if r := recover(); r != nil {
			b.Logger.Error("writer hook panicked", "writer", b.Name, "panic", r)
			b.SetFailed()
		}
	}()

	var err error
	switch e.Kind {
	case workpool.KindText:
		err = b.Hooks.WriteImpl(e.Tuple.Source, e.Tuple.Topic, e.Text, nil)
	case workpool.KindTextSeq:
		err = b.Hooks.WriteImpl(e.Tuple.Source, e.Tuple.Topic, "", e.TextSeq)
	case workpool.KindBinary:
		err = b.Hooks.WriteBinaryImpl(e.Tuple.Source, e.Tuple.Topic, e.Binary, nil)
	case workpool.KindBinarySeq:
		err = b.Hooks.WriteBinaryImpl(e.Tuple.Source, e.Tuple.Topic, nil, e.BinarySeq)
	}

	if b.metrics != nil {
		b.metrics.processed.Inc()
	}
	if err != nil {
		b.Logger.Warn("writer hook failed", "writer", b.Name, "error", err)
		if b.metrics != nil {
			b.metrics.failed.Inc()
		}
		if errors.IsTransient(err) {
			b.SetFailed()
		}
	}
}

// WriteText stages a single text record.
func (b *Base) WriteText(source, topic, text string) bool {
	return b.pool.WriteText(message.Tuple{Source: source, Topic: topic}, text, true)
}

// WriteTextSeq stages an ordered text sequence.
func (b *Base) WriteTextSeq(source, topic string, seq []string) bool {
	return b.pool.WriteTextSeq(message.Tuple{Source: source, Topic: topic}, seq)
}

// WriteBinary stages a single binary record.
func (b *Base) WriteBinary(source, topic string, data []byte) bool {
	return b.pool.WriteBinary(message.Tuple{Source: source, Topic: topic}, data)
}

// WriteBinarySeq stages an ordered binary sequence.
func (b *Base) WriteBinarySeq(source, topic string, seq [][]byte) bool {
	return b.pool.WriteBinarySeq(message.Tuple{Source: source, Topic: topic}, seq)
}

// Depth reports the number of entries currently staged (the same count
// the writer_<name>_queue_depth gauge is set from).
func (b *Base) Depth() int {
	return b.pool.Len()
}
