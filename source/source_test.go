package source_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/source"
)

type fakeRouter struct {
	mu    sync.Mutex
	texts []string
}

func (r *fakeRouter) WriteText(src, topic, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return true
}
func (r *fakeRouter) WriteTextSeq(src, topic string, seq []string) bool     { return true }
func (r *fakeRouter) WriteBinary(src, topic string, b []byte) bool         { return true }
func (r *fakeRouter) WriteBinarySeq(src, topic string, seq [][]byte) bool  { return true }

func (r *fakeRouter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.texts))
	copy(out, r.texts)
	return out
}

type tickerHooks struct {
	stopped bool
}

func (h *tickerHooks) Run(ctx context.Context, name string, router source.RouteWriter) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			router.WriteText(name, "topic", "tick")
		}
	}
}

func (h *tickerHooks) Stop() error {
	h.stopped = true
	return nil
}

func TestBase_ProducesIntoRouter(t *testing.T) {
	hooks := &tickerHooks{}
	router := &fakeRouter{}
	b := source.NewBase("ticksrc", hooks, router, nil)

	require.True(t, b.Initialize("ticksrc"))
	require.True(t, b.Start())

	deadline := time.Now().Add(time.Second)
	for len(router.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.NotEmpty(t, router.snapshot())

	require.True(t, b.Stop())
	assert.True(t, hooks.stopped)
	assert.Equal(t, component.StateStopped, b.GetState())
}

func TestBase_StopIsNoOpWhenNotRunning(t *testing.T) {
	hooks := &tickerHooks{}
	router := &fakeRouter{}
	b := source.NewBase("ticksrc", hooks, router, nil)

	assert.False(t, b.Stop(), "stop before start/initialize is illegal")
}
