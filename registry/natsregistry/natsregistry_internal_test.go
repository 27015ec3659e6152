package natsregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRouteConfig_ParsesEntries(t *testing.T) {
	reply := []byte(`{
		"nats-src": {
			"sensors/*": {"destName": "file-writer", "destTopic": "out", "batchSize": 50, "xformName": "jsonmap:remap-v1"}
		}
	}`)

	descriptors, err := decodeRouteConfig(reply)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, "nats-src", d.SourceProvider)
	assert.Equal(t, "sensors/*", d.SourceTopic)
	assert.Equal(t, "file-writer", d.DestProvider)
	assert.Equal(t, "out", d.DestTopic)
	assert.Equal(t, 50, d.MaxBatchSize)
	assert.Equal(t, "jsonmap", d.TransformName())
	assert.Equal(t, "remap-v1", d.TransformInfo())
}

func TestDecodeRouteConfig_ErrorMessageIsTreatedAsFailure(t *testing.T) {
	reply := []byte(`{"errorMessage": "deployment not found"}`)

	_, err := decodeRouteConfig(reply)
	assert.Error(t, err)
}

func TestDecodeRouteConfig_EmptyObjectYieldsNoDescriptors(t *testing.T) {
	descriptors, err := decodeRouteConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}
