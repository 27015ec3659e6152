package writer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/writer"
)

type recordingHooks struct {
	mu      sync.Mutex
	texts   []string
	binSeqs [][][]byte
	stopped bool
}

func (h *recordingHooks) WriteImpl(source, topic, text string, seq []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seq != nil {
		h.texts = append(h.texts, seq...)
		return nil
	}
	h.texts = append(h.texts, text)
	return nil
}

func (h *recordingHooks) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seq != nil {
		h.binSeqs = append(h.binSeqs, seq)
		return nil
	}
	h.binSeqs = append(h.binSeqs, [][]byte{b})
	return nil
}

func (h *recordingHooks) StopImpl() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	return nil
}

func (h *recordingHooks) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.texts))
	copy(out, h.texts)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBase_DeliversTextInOrder(t *testing.T) {
	hooks := &recordingHooks{}
	b := writer.NewBase("test-writer", hooks, nil, nil)

	require.True(t, b.Initialize("test-writer"))
	require.True(t, b.Start())
	defer b.Stop()

	require.True(t, b.WriteText("src", "topic", "one"))
	require.True(t, b.WriteText("src", "topic", "two"))

	waitFor(t, func() bool { return len(hooks.snapshot()) >= 2 })
	assert.Equal(t, []string{"one", "two"}, hooks.snapshot())
}

func TestBase_StopRunsHookAndReachesStopped(t *testing.T) {
	hooks := &recordingHooks{}
	b := writer.NewBase("test-writer", hooks, nil, nil)

	require.True(t, b.Initialize("test-writer"))
	require.True(t, b.Start())
	require.True(t, b.WriteText("src", "topic", "one"))

	waitFor(t, func() bool { return len(hooks.snapshot()) == 1 })
	require.True(t, b.Stop())

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.True(t, hooks.stopped)
	assert.Equal(t, component.StateStopped, b.GetState())
}

func TestBase_RegistersMetricsWhenRegistryProvided(t *testing.T) {
	hooks := &recordingHooks{}
	registry := metric.NewMetricsRegistry()
	b := writer.NewBase("file-out", hooks, nil, registry)

	require.True(t, b.Initialize("file-out"))
	require.True(t, b.Start())
	defer b.Stop()

	require.True(t, b.WriteText("src", "topic", "one"))
	waitFor(t, func() bool { return len(hooks.snapshot()) == 1 })

	count := testutil.CollectAndCount(registry.PrometheusRegistry())
	assert.Greater(t, count, 0)
}

func TestBase_WriteAfterStopReturnsFalse(t *testing.T) {
	hooks := &recordingHooks{}
	b := writer.NewBase("test-writer", hooks, nil, nil)

	require.True(t, b.Initialize("test-writer"))
	require.True(t, b.Start())
	require.True(t, b.Stop())

	assert.False(t, b.WriteText("src", "topic", "late"))
}
