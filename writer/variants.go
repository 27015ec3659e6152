package writer

import "github.com/c360/ingestpipe/codec"

// TextHooks is the plug-in ABI for a writer that only ever handles text
// (e.g. NATS publish, file append). WriteText handles both single
// records (seq nil) and sequences.
type TextHooks interface {
	WriteText(source, topic, text string, seq []string) error
	Stop() error
}

// textAdapter adapts TextHooks to Hooks, converting incoming binary
// payloads to text via base64 (spec §4.5 "Text writer" variant: binary
// hooks convert via base64).
type textAdapter struct {
	hooks TextHooks
}

// NewTextWriterHooks wraps TextHooks into the full Hooks ABI: binary
// payloads are base64-encoded to text before being handed to hooks.
func NewTextWriterHooks(hooks TextHooks) Hooks {
	return &textAdapter{hooks: hooks}
}

func (a *textAdapter) WriteImpl(source, topic, text string, seq []string) error {
	return a.hooks.WriteText(source, topic, text, seq)
}

func (a *textAdapter) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error {
	if seq != nil {
		texts := make([]string, len(seq))
		for i, item := range seq {
			texts[i] = codec.EncodeBinary(item)
		}
		return a.hooks.WriteText(source, topic, "", texts)
	}
	return a.hooks.WriteText(source, topic, codec.EncodeBinary(b), nil)
}

func (a *textAdapter) StopImpl() error {
	return a.hooks.Stop()
}

// BinaryHooks is the plug-in ABI for a writer that only ever handles
// binary payloads (e.g. UDP, raw TCP). WriteBinary handles both single
// records (seq nil) and sequences.
type BinaryHooks interface {
	WriteBinary(source, topic string, b []byte, seq [][]byte) error
	Stop() error
}

// binaryAdapter adapts BinaryHooks to Hooks, converting incoming text
// payloads to binary via UTF-8 (spec §4.5 "Binary writer" variant: text
// hooks convert via UTF-8).
type binaryAdapter struct {
	hooks BinaryHooks
}

// NewBinaryWriterHooks wraps BinaryHooks into the full Hooks ABI: text
// payloads are converted to binary via UTF-8 before being handed to
// hooks.
func NewBinaryWriterHooks(hooks BinaryHooks) Hooks {
	return &binaryAdapter{hooks: hooks}
}

func (a *binaryAdapter) WriteImpl(source, topic, text string, seq []string) error {
	if seq != nil {
		converted := make([][]byte, len(seq))
		for i, item := range seq {
			converted[i] = codec.TextToBinary(item)
		}
		return a.hooks.WriteBinary(source, topic, nil, converted)
	}
	return a.hooks.WriteBinary(source, topic, codec.TextToBinary(text), nil)
}

func (a *binaryAdapter) WriteBinaryImpl(source, topic string, b []byte, seq [][]byte) error {
	return a.hooks.WriteBinary(source, topic, b, seq)
}

func (a *binaryAdapter) StopImpl() error {
	return a.hooks.Stop()
}
