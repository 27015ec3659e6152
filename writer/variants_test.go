package writer_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/writer"
)

type recordingTextHooks struct {
	text string
	seq  []string
}

func (h *recordingTextHooks) WriteText(source, topic, text string, seq []string) error {
	h.text = text
	h.seq = seq
	return nil
}

func (h *recordingTextHooks) Stop() error { return nil }

type recordingBinaryHooks struct {
	b   []byte
	seq [][]byte
}

func (h *recordingBinaryHooks) WriteBinary(source, topic string, b []byte, seq [][]byte) error {
	h.b = b
	h.seq = seq
	return nil
}

func (h *recordingBinaryHooks) Stop() error { return nil }

func TestTextAdapter_WriteBinaryImplEncodesBase64(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xff, 0xfe, 'h', 'i'}
	hooks := &recordingTextHooks{}
	adapter := writer.NewTextWriterHooks(hooks)

	require.NoError(t, adapter.WriteBinaryImpl("src", "topic", raw, nil))

	decoded, err := base64.StdEncoding.DecodeString(hooks.text)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestTextAdapter_WriteBinaryImplEncodesBase64Seq(t *testing.T) {
	items := [][]byte{{0x00, 0xff}, {'a', 'b', 'c'}}
	hooks := &recordingTextHooks{}
	adapter := writer.NewTextWriterHooks(hooks)

	require.NoError(t, adapter.WriteBinaryImpl("src", "topic", nil, items))

	require.Len(t, hooks.seq, len(items))
	for i, item := range items {
		decoded, err := base64.StdEncoding.DecodeString(hooks.seq[i])
		require.NoError(t, err)
		assert.Equal(t, item, decoded)
	}
}

func TestBinaryAdapter_WriteImplConvertsUTF8(t *testing.T) {
	hooks := &recordingBinaryHooks{}
	adapter := writer.NewBinaryWriterHooks(hooks)

	require.NoError(t, adapter.WriteImpl("src", "topic", "hello world", nil))

	assert.Equal(t, []byte("hello world"), hooks.b)
}

func TestBinaryAdapter_WriteImplConvertsUTF8Seq(t *testing.T) {
	texts := []string{"one", "two", "three"}
	hooks := &recordingBinaryHooks{}
	adapter := writer.NewBinaryWriterHooks(hooks)

	require.NoError(t, adapter.WriteImpl("src", "topic", "", texts))

	require.Len(t, hooks.seq, len(texts))
	for i, text := range texts {
		assert.Equal(t, []byte(text), hooks.seq[i])
	}
}

func TestBinaryAdapter_WriteImplAcceptsArbitraryText(t *testing.T) {
	hooks := &recordingBinaryHooks{}
	adapter := writer.NewBinaryWriterHooks(hooks)

	// Ordinary text is not valid base64; the UTF-8 conversion must not
	// reject it the way a base64 decode would have.
	require.NoError(t, adapter.WriteImpl("src", "topic", "not-base64!@#", nil))
	assert.Equal(t, []byte("not-base64!@#"), hooks.b)
}
