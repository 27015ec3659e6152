// Package codec provides the text<->binary conversion adapters used at
// payload boundaries (base64 for binary->text, UTF-8 for text->binary)
// and the lazy sequence wrappers the specification's design notes call
// for in place of the distilled source's reflective lazy-iterable
// wrappers.
package codec

import "encoding/base64"

// LazySeq is a minimal pull-based iterator: repeated calls to Next
// return the next converted element until ok is false. It exists so a
// base64 encode/decode pass over a sequence does not need to eagerly
// materialize every element before the first is consumed — but per the
// design note, any LazySeq handed to an asynchronous consumer (a
// WorkPool) must first be drained with Materialize.
type LazySeq[T any] struct {
	next func() (T, bool)
}

// NewLazySeq wraps a pull function into a LazySeq.
func NewLazySeq[T any](next func() (T, bool)) LazySeq[T] {
	return LazySeq[T]{next: next}
}

// Next returns the next element, or the zero value and false when
// exhausted.
func (s LazySeq[T]) Next() (T, bool) {
	return s.next()
}

// Materialize drains the sequence into a concrete slice. Required before
// handing a LazySeq to anything that outlives the call that produced it.
func Materialize[T any](s LazySeq[T]) []T {
	var out []T
	for {
		v, ok := s.next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// sliceSeq returns a LazySeq pulling sequentially through items.
func sliceSeq[T any](items []T) LazySeq[T] {
	i := 0
	return NewLazySeq(func() (T, bool) {
		if i >= len(items) {
			var zero T
			return zero, false
		}
		v := items[i]
		i++
		return v, true
	})
}

// Base64EncodeSeq lazily base64-encodes each element of a binary
// sequence into text, per spec §4.4's writeBinary(bytesSeq) path.
func Base64EncodeSeq(items [][]byte) LazySeq[string] {
	inner := sliceSeq(items)
	return NewLazySeq(func() (string, bool) {
		b, ok := inner.Next()
		if !ok {
			return "", false
		}
		return base64.StdEncoding.EncodeToString(b), true
	})
}

// Base64DecodeSeq lazily base64-decodes each element of a text sequence
// back into binary. A decode failure yields a nil slice for that
// element rather than aborting the sequence; callers that care about
// InvalidRecord classification should validate upstream.
func Base64DecodeSeq(items []string) LazySeq[[]byte] {
	inner := sliceSeq(items)
	return NewLazySeq(func() ([]byte, bool) {
		s, ok := inner.Next()
		if !ok {
			return nil, false
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, true
		}
		return b, true
	})
}
