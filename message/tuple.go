// Package message defines the wire-level data model shared by every
// stage of the ingest pipeline: the immutable source/topic addressing
// tuple, the four payload variants, and the route descriptors produced
// by a MetaRegistry.
package message

// Tuple is the immutable (source, topic) pair that travels alongside
// each payload a source hands to the Router and a Router hands to a
// TransformerWriter; the payload itself is carried separately. Source
// identifies the producing ingest source by name; Topic is the fully
// qualified topic string the source observed.
type Tuple struct {
	Source string
	Topic  string
}

// Text is a single UTF-8 text record.
type Text string

// Binary is a single binary record.
type Binary []byte

// TextSeq is an ordered sequence of text records.
type TextSeq []string

// BinarySeq is an ordered sequence of binary records.
type BinarySeq [][]byte
