package route

import (
	"strings"

	"github.com/c360/ingestpipe/message"
)

// WriterHandler binds a parsed transform name to the TransformerWriter
// constructed for one (source, topic) entry. It is immutable after
// construction and may be shared by reference across clones.
type WriterHandler struct {
	TransformName     string
	TransformerWriter *TransformerWriter
}

// Table is the two-level source -> topic -> WriterHandler routing map.
// Table values are write-once-then-readable: the Router builds a new
// instance by cloning the published one, mutates the clone via
// UpdateRoutes, and atomically swaps the published pointer (see
// router.Router). Lookup never mutates and never blocks on a write.
type Table struct {
	bySource map[string]map[string]WriterHandler
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{bySource: make(map[string]map[string]WriterHandler)}
}

// Lookup resolves (source, topic) to a WriterHandler. Exact topic keys
// are tried first; failing that, keys ending in "/*" are scanned and
// the first whose stripped prefix is a prefix of topic wins. Wildcard
// scan order is unspecified — callers must not rely on precedence
// between overlapping wildcards (spec open question #4).
func (t *Table) Lookup(source, topic string) (*TransformerWriter, bool) {
	topics, ok := t.bySource[source]
	if !ok {
		return nil, false
	}

	if h, ok := topics[topic]; ok {
		return h.TransformerWriter, true
	}

	for key, h := range topics {
		prefix, isWildcard := strings.CutSuffix(key, "/*")
		if !isWildcard {
			continue
		}
		if topicMatchesWildcardPrefix(topic, prefix) {
			return h.TransformerWriter, true
		}
	}

	return nil, false
}

// topicMatchesWildcardPrefix reports whether topic is matched by the
// wildcard prefix (the registered key with its trailing "/*" removed):
// topic must equal prefix, or have prefix followed by "/", as its
// leading characters — "a/b/*" matches "a/b", "a/b/c", "a/b/anything",
// but not "a/bc".
func topicMatchesWildcardPrefix(topic, prefix string) bool {
	if topic == prefix {
		return true
	}
	return strings.HasPrefix(topic, prefix+"/")
}

// Insert places (or replaces) a single (source, topic) entry.
func (t *Table) Insert(source, topic string, handler WriterHandler) {
	topics, ok := t.bySource[source]
	if !ok {
		topics = make(map[string]WriterHandler)
		t.bySource[source] = topics
	}
	topics[topic] = handler
}

// UpdateRoutes applies an insert-update-prune reconciliation pass:
// build builds the WriterHandler for a descriptor (it returns ok=false
// when the referenced source or destination writer is not registered,
// in which case the descriptor is skipped entirely). After every
// descriptor has been considered, any existing (source, topic) entry
// absent from descriptors is removed, and any source left with no
// topics is removed.
func (t *Table) UpdateRoutes(descriptors []message.RouteDescriptor, build func(message.RouteDescriptor) (WriterHandler, bool)) {
	wanted := make(map[string]map[string]struct{})

	for _, d := range descriptors {
		h, ok := build(d)
		if !ok {
			continue
		}
		t.Insert(d.SourceProvider, d.SourceTopic, h)

		topics, exists := wanted[d.SourceProvider]
		if !exists {
			topics = make(map[string]struct{})
			wanted[d.SourceProvider] = topics
		}
		topics[d.SourceTopic] = struct{}{}
	}

	for source, topics := range t.bySource {
		keep, sourceWanted := wanted[source]
		for topic := range topics {
			if !sourceWanted {
				delete(topics, topic)
				continue
			}
			if _, ok := keep[topic]; !ok {
				delete(topics, topic)
			}
		}
		if len(topics) == 0 {
			delete(t.bySource, source)
		}
	}
}

// Clone returns a deep structural copy of both map levels. WriterHandler
// values (and the TransformerWriter they point to) are shared by
// reference since they are immutable after insertion.
func (t *Table) Clone() *Table {
	clone := NewTable()
	for source, topics := range t.bySource {
		cloned := make(map[string]WriterHandler, len(topics))
		for topic, h := range topics {
			cloned[topic] = h
		}
		clone.bySource[source] = cloned
	}
	return clone
}

// Sources returns the set of source names currently present, for
// diagnostics and tests.
func (t *Table) Sources() []string {
	out := make([]string, 0, len(t.bySource))
	for s := range t.bySource {
		out = append(out, s)
	}
	return out
}
