// Package route implements the RouteTable and TransformerWriter
// described by spec §4.3/§4.4: the two-level (source, topic) routing
// map with exact/wildcard match, and the adapter that applies a batched
// transformation before handing a record to its destination writer.
package route

import (
	"github.com/c360/ingestpipe/codec"
	"github.com/c360/ingestpipe/component"
)

// Writer is the minimal surface a TransformerWriter needs from a
// destination writer: the four write entry points plus lifecycle state.
// A concrete writer.Base satisfies this.
type Writer interface {
	WriteText(source, topic, text string) bool
	WriteTextSeq(source, topic string, seq []string) bool
	WriteBinary(source, topic string, b []byte) bool
	WriteBinarySeq(source, topic string, seq [][]byte) bool
	GetState() component.RunState
}

// Transformer is the spec §6 plug-in ABI for a text transformer
// (F=T=string, per spec's "text transformers fix F=T=string").
type Transformer interface {
	Initialize(info string) bool
	TransformOne(source, topic, record string) string
	TransformMany(source, topic string, records []string) []string
}

// TransformerWriter is the composite object routers invoke to dispatch a
// record: an optional transformer, a destination writer, the
// destination (provider, topic) pair, and a batch size for sequence
// inputs. A nil Transformer means pass-through.
type TransformerWriter struct {
	Transformer  Transformer
	Writer       Writer
	DestProvider string
	DestTopic    string
	MaxBatchSize int
}

// GetState returns the state of the underlying destination writer; a
// TransformerWriter has no thread of its own (spec §4.4).
func (tw *TransformerWriter) GetState() component.RunState {
	return tw.Writer.GetState()
}

// Write delivers a single text record, transforming it first unless
// Transformer is nil.
func (tw *TransformerWriter) Write(source, topic, text string) bool {
	out := text
	if tw.Transformer != nil {
		out = tw.Transformer.TransformOne(source, topic, text)
	}
	return tw.Writer.WriteText(source, tw.DestTopic, out)
}

// WriteSeq delivers an ordered text sequence, batching per MaxBatchSize
// (0 means "whole sequence in one call"). Returns the AND of per-batch
// results; an empty sequence is a no-op success.
func (tw *TransformerWriter) WriteSeq(source, topic string, seq []string) bool {
	if seq == nil {
		return true
	}
	if len(seq) == 0 {
		return true
	}

	batchSize := normalizeBatchSize(tw.MaxBatchSize)
	if batchSize == 0 {
		return tw.writeBatch(source, topic, seq)
	}

	ok := true
	for start := 0; start < len(seq); start += batchSize {
		end := start + batchSize
		if end > len(seq) {
			end = len(seq)
		}
		// Materialize the slice into its own backing array: it is handed
		// to a potentially asynchronous consumer (the writer's WorkPool)
		// and must be safe from reslicing/reuse of the caller's backing
		// array.
		batch := make([]string, end-start)
		copy(batch, seq[start:end])
		if !tw.writeBatch(source, topic, batch) {
			ok = false
		}
	}
	return ok
}

func (tw *TransformerWriter) writeBatch(source, topic string, batch []string) bool {
	out := batch
	if tw.Transformer != nil {
		out = tw.Transformer.TransformMany(source, topic, batch)
		if out == nil {
			// Spec open question #3: a transformer returning nil for a
			// sequence means "nothing to forward" — not an error.
			return true
		}
	}
	return tw.Writer.WriteTextSeq(source, tw.DestTopic, out)
}

// WriteBinary delivers a single binary record. When a transformer is
// present, the record is base64-encoded to text, run through the
// transformer, and base64-decoded back to binary; a pass-through
// TransformerWriter skips the codec round-trip entirely so the bytes
// the destination observes are bit-identical (spec invariant §8.4).
func (tw *TransformerWriter) WriteBinary(source, topic string, b []byte) bool {
	if tw.Transformer == nil {
		return tw.Writer.WriteBinary(source, tw.DestTopic, b)
	}

	encoded := codec.EncodeBinary(b)
	out := tw.Transformer.TransformOne(source, topic, encoded)
	decoded, err := codec.DecodeBinary(out)
	if err != nil {
		return false
	}
	return tw.Writer.WriteBinary(source, tw.DestTopic, decoded)
}

// WriteBinarySeq delivers an ordered binary sequence, batching and
// base64-bridging the same way WriteSeq/WriteBinary do individually.
func (tw *TransformerWriter) WriteBinarySeq(source, topic string, seq [][]byte) bool {
	if seq == nil {
		return true
	}
	if len(seq) == 0 {
		return true
	}

	if tw.Transformer == nil {
		batchSize := normalizeBatchSize(tw.MaxBatchSize)
		if batchSize == 0 {
			return tw.Writer.WriteBinarySeq(source, tw.DestTopic, seq)
		}
		ok := true
		for start := 0; start < len(seq); start += batchSize {
			end := start + batchSize
			if end > len(seq) {
				end = len(seq)
			}
			batch := make([][]byte, end-start)
			copy(batch, seq[start:end])
			if !tw.Writer.WriteBinarySeq(source, tw.DestTopic, batch) {
				ok = false
			}
		}
		return ok
	}

	encoded := codec.Materialize(codec.Base64EncodeSeq(seq))
	batchSize := normalizeBatchSize(tw.MaxBatchSize)
	if batchSize == 0 {
		return tw.transformAndForwardBinaryBatch(source, topic, encoded)
	}

	ok := true
	for start := 0; start < len(encoded); start += batchSize {
		end := start + batchSize
		if end > len(encoded) {
			end = len(encoded)
		}
		batch := make([]string, end-start)
		copy(batch, encoded[start:end])
		if !tw.transformAndForwardBinaryBatch(source, topic, batch) {
			ok = false
		}
	}
	return ok
}

// transformAndForwardBinaryBatch runs one already base64-encoded batch
// through the text transformer, lazily base64-decodes the result, and
// forwards the decoded binary batch to the destination writer.
func (tw *TransformerWriter) transformAndForwardBinaryBatch(source, topic string, encodedBatch []string) bool {
	transformed := tw.Transformer.TransformMany(source, topic, encodedBatch)
	if transformed == nil {
		return true // spec open question #3: nil sequence means nothing to forward
	}
	decoded := codec.Materialize(codec.Base64DecodeSeq(transformed))
	return tw.Writer.WriteBinarySeq(source, tw.DestTopic, decoded)
}

func normalizeBatchSize(n int) int {
	if n <= 0 {
		return 0
	}
	return n
}
