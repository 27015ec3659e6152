package httpwriter_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/plugins/httpwriter"
)

func TestHTTPWriter_PostsRecordBody(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	raw, err := json.Marshal(httpwriter.Config{URL: srv.URL})
	require.NoError(t, err)

	inst, err := httpwriter.New("out", raw, component.Dependencies{})
	require.NoError(t, err)

	w := inst.(interface {
		Initialize(name string) bool
		Start() bool
		Stop() bool
		WriteText(source, topic, text string) bool
	})

	require.True(t, w.Initialize("out"))
	require.True(t, w.Start())
	require.True(t, w.WriteText("src", "topic", `{"v":1}`))

	deadline := time.Now().Add(time.Second)
	for received.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.True(t, w.Stop())
	assert.Equal(t, int32(1), received.Load())
}

func TestHTTPWriter_RejectsMissingURL(t *testing.T) {
	raw, err := json.Marshal(httpwriter.Config{})
	require.NoError(t, err)
	_, err = httpwriter.New("out", raw, component.Dependencies{})
	assert.Error(t, err)
}
