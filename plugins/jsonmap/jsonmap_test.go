package jsonmap_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/plugins/jsonmap"
)

func TestTransformer_RemapsAndTransformsFields(t *testing.T) {
	cfg := jsonmap.Config{
		Mappings:     []jsonmap.FieldMapping{{SourceField: "name", TargetField: "deviceName", Transform: "uppercase"}},
		AddFields:    map[string]any{"schemaVersion": 1},
		RemoveFields: []string{"internalId"},
	}
	info, err := json.Marshal(cfg)
	require.NoError(t, err)

	inst, err := jsonmap.New(string(info), component.Dependencies{})
	require.NoError(t, err)
	xf := inst.(*jsonmap.Transformer)
	require.True(t, xf.Initialize(string(info)))

	out := xf.TransformOne("src", "topic", `{"name":"sensor-1","internalId":"abc"}`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "SENSOR-1", decoded["deviceName"])
	assert.Equal(t, float64(1), decoded["schemaVersion"])
	assert.NotContains(t, decoded, "internalId")
	assert.NotContains(t, decoded, "name")
}

func TestTransformer_DropsRecordFailingSchema(t *testing.T) {
	cfg := jsonmap.Config{
		Schema: `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`,
	}
	info, err := json.Marshal(cfg)
	require.NoError(t, err)

	xf := &jsonmap.Transformer{}
	require.True(t, xf.Initialize(string(info)))

	out := xf.TransformOne("src", "topic", `{"other":1}`)
	assert.Equal(t, "", out)
	assert.Equal(t, 1, xf.InvalidCount())
}

func TestTransformer_TransformManyDropsInvalidKeepsValid(t *testing.T) {
	cfg := jsonmap.Config{
		Schema: `{"type":"object","required":["name"]}`,
	}
	info, err := json.Marshal(cfg)
	require.NoError(t, err)

	xf := &jsonmap.Transformer{}
	require.True(t, xf.Initialize(string(info)))

	out := xf.TransformMany("src", "topic", []string{`{"name":"a"}`, `{"x":1}`, `{"name":"b"}`})
	assert.Len(t, out, 2)
}
