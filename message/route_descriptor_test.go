package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/ingestpipe/message"
)

func TestRouteDescriptor_TransformParsing(t *testing.T) {
	cases := []struct {
		name         string
		meta         string
		wantHas      bool
		wantName     string
		wantInfo     string
		wantBatchRaw int
		wantBatch    int
	}{
		{name: "empty is pass-through", meta: "", wantHas: false},
		{name: "name only", meta: "Reverser", wantHas: true, wantName: "reverser", wantInfo: ""},
		{name: "name and info", meta: "JsonMap:field=a->b", wantHas: true, wantName: "jsonmap", wantInfo: "field=a->b"},
		{name: "info with colons", meta: "nats:subject:a.b.c", wantHas: true, wantName: "nats", wantInfo: "subject:a.b.c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := message.RouteDescriptor{TransformMeta: tc.meta}
			assert.Equal(t, tc.wantHas, d.HasTransform())
			assert.Equal(t, tc.wantName, d.TransformName())
			assert.Equal(t, tc.wantInfo, d.TransformInfo())
		})
	}
}

func TestRouteDescriptor_NormalizedMaxBatchSize(t *testing.T) {
	assert.Equal(t, 0, message.RouteDescriptor{MaxBatchSize: 0}.NormalizedMaxBatchSize())
	assert.Equal(t, 0, message.RouteDescriptor{MaxBatchSize: -5}.NormalizedMaxBatchSize())
	assert.Equal(t, 3, message.RouteDescriptor{MaxBatchSize: 3}.NormalizedMaxBatchSize())
}
