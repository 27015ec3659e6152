package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/codec"
)

func TestBase64RoundTrip(t *testing.T) {
	items := [][]byte{[]byte("hello"), []byte("world"), {0x00, 0xff, 0x10}}

	encoded := codec.Materialize(codec.Base64EncodeSeq(items))
	require.Len(t, encoded, len(items))

	decoded := codec.Materialize(codec.Base64DecodeSeq(encoded))
	require.Len(t, decoded, len(items))
	for i := range items {
		assert.Equal(t, items[i], decoded[i])
	}
}

func TestEncodeDecodeBinary_Identity(t *testing.T) {
	b := []byte("binary pass-through path")
	assert.Equal(t, b, mustDecode(t, codec.EncodeBinary(b)))
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := codec.DecodeBinary(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func TestLazySeq_MaterializeEmpty(t *testing.T) {
	assert.Nil(t, codec.Materialize(codec.Base64EncodeSeq(nil)))
}
