package filewriter_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/plugins/filewriter"
)

func TestFilewriter_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	raw, err := json.Marshal(filewriter.Config{Directory: dir, FilePrefix: "test"})
	require.NoError(t, err)

	inst, err := filewriter.New("out", raw, component.Dependencies{})
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
	var matches []string
	for time.Now().Before(deadline) {
		matches, _ = filepath.Glob(filepath.Join(dir, "test-*.jsonl"))
		if len(matches) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, w.Stop())

	require.NotEmpty(t, matches)
	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), `{"v":1}`)
}

func TestFilewriter_RejectsMissingDirectory(t *testing.T) {
	raw, err := json.Marshal(filewriter.Config{})
	require.NoError(t, err)

	_, err = filewriter.New("out", raw, component.Dependencies{})
	assert.Error(t, err)
}
