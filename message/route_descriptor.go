package message

import "strings"

// RouteDescriptor (the spec's "MetaEntry") describes one routing rule as
// returned by a MetaRegistry snapshot. TransformMeta is the raw
// "name:info" string from the wire format ("" or absent means
// pass-through).
type RouteDescriptor struct {
	SourceProvider string
	SourceTopic    string
	DestProvider   string
	DestTopic      string
	MaxBatchSize   int
	TransformMeta  string
}

// HasTransform reports whether this descriptor names a transformer.
func (d RouteDescriptor) HasTransform() bool {
	return d.TransformMeta != ""
}

// TransformName is the substring of TransformMeta before the first ':',
// lowercased. It is the empty string when HasTransform is false.
func (d RouteDescriptor) TransformName() string {
	if !d.HasTransform() {
		return ""
	}
	name, _, _ := strings.Cut(d.TransformMeta, ":")
	return strings.ToLower(name)
}

// TransformInfo is the substring of TransformMeta after the first ':'.
// It is the empty string when TransformMeta has no ':' or HasTransform
// is false.
func (d RouteDescriptor) TransformInfo() string {
	if !d.HasTransform() {
		return ""
	}
	_, info, found := strings.Cut(d.TransformMeta, ":")
	if !found {
		return ""
	}
	return info
}

// NormalizedMaxBatchSize returns MaxBatchSize with any non-positive value
// normalized to 0 ("no batching"), per spec §4.4.
func (d RouteDescriptor) NormalizedMaxBatchSize() int {
	if d.MaxBatchSize <= 0 {
		return 0
	}
	return d.MaxBatchSize
}
