package route_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/message"
	"github.com/c360/ingestpipe/route"
)

func buildHandler(d message.RouteDescriptor) (route.WriterHandler, bool) {
	return route.WriterHandler{
		TransformName: d.TransformName(),
		TransformerWriter: &route.TransformerWriter{
			DestProvider: d.DestProvider,
			DestTopic:    d.DestTopic,
			MaxBatchSize: d.NormalizedMaxBatchSize(),
		},
	}, true
}

func TestTable_ExactAndWildcardLookup(t *testing.T) {
	tbl := route.NewTable()
	tbl.UpdateRoutes([]message.RouteDescriptor{
		{SourceProvider: "src1", SourceTopic: "t/x", DestProvider: "w1", DestTopic: "u/y"},
		{SourceProvider: "src1", SourceTopic: "sensors/*", DestProvider: "w1", DestTopic: "out"},
	}, buildHandler)

	tw, ok := tbl.Lookup("src1", "t/x")
	require.True(t, ok)
	assert.Equal(t, "u/y", tw.DestTopic)

	tw, ok = tbl.Lookup("src1", "sensors/temp/42")
	require.True(t, ok)
	assert.Equal(t, "out", tw.DestTopic)

	_, ok = tbl.Lookup("src1", "ghost")
	assert.False(t, ok)

	_, ok = tbl.Lookup("unknown-source", "t/x")
	assert.False(t, ok)
}

func TestTable_WildcardBoundary(t *testing.T) {
	tbl := route.NewTable()
	tbl.UpdateRoutes([]message.RouteDescriptor{
		{SourceProvider: "s", SourceTopic: "a/b/*", DestProvider: "w", DestTopic: "out"},
	}, buildHandler)

	_, ok := tbl.Lookup("s", "a/b")
	assert.True(t, ok, "a/b/* matches a/b")

	_, ok = tbl.Lookup("s", "a/bc")
	assert.False(t, ok, "a/b/* must not match a/bc")

	_, ok = tbl.Lookup("s", "a/b/c")
	assert.True(t, ok, "a/b/* matches a/b/c")
}

func TestTable_UpdateRoutes_PrunesRemovedDescriptors(t *testing.T) {
	tbl := route.NewTable()
	tbl.UpdateRoutes([]message.RouteDescriptor{
		{SourceProvider: "s", SourceTopic: "t1", DestProvider: "w", DestTopic: "out1"},
		{SourceProvider: "s", SourceTopic: "t2", DestProvider: "w", DestTopic: "out2"},
	}, buildHandler)

	tbl.UpdateRoutes([]message.RouteDescriptor{
		{SourceProvider: "s", SourceTopic: "t1", DestProvider: "w", DestTopic: "out1"},
	}, buildHandler)

	_, ok := tbl.Lookup("s", "t1")
	assert.True(t, ok)
	_, ok = tbl.Lookup("s", "t2")
	assert.False(t, ok, "t2 should have been pruned")
}

func TestTable_UpdateRoutes_RemovesEmptySource(t *testing.T) {
	tbl := route.NewTable()
	tbl.UpdateRoutes([]message.RouteDescriptor{
		{SourceProvider: "s", SourceTopic: "t1", DestProvider: "w", DestTopic: "out1"},
	}, buildHandler)

	tbl.UpdateRoutes(nil, buildHandler)

	assert.Empty(t, tbl.Sources())
}

func TestTable_UpdateRoutes_IsIdempotent(t *testing.T) {
	descriptors := []message.RouteDescriptor{
		{SourceProvider: "s", SourceTopic: "t1", DestProvider: "w", DestTopic: "out1"},
	}
	tbl := route.NewTable()
	tbl.UpdateRoutes(descriptors, buildHandler)
	before := tbl.Clone()

	tbl.UpdateRoutes(descriptors, buildHandler)

	_, ok := tbl.Lookup("s", "t1")
	assert.True(t, ok)
	_, ok = before.Lookup("s", "t1")
	assert.True(t, ok)
}

func TestTable_Clone_IsDeepCopy(t *testing.T) {
	tbl := route.NewTable()
	tbl.UpdateRoutes([]message.RouteDescriptor{
		{SourceProvider: "s", SourceTopic: "t1", DestProvider: "w", DestTopic: "out1"},
	}, buildHandler)

	clone := tbl.Clone()
	clone.UpdateRoutes(nil, buildHandler) // empties the clone entirely

	_, ok := tbl.Lookup("s", "t1")
	assert.True(t, ok, "mutating the clone must not affect the original")
	_, ok = clone.Lookup("s", "t1")
	assert.False(t, ok)
}
