package codec

import "encoding/base64"

// EncodeBinary converts a single binary record to its base64 text
// representation, used when a binary record crosses into a text
// transformer per spec §4.4's writeBinary(bytes) path.
func EncodeBinary(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBinary reverses EncodeBinary. A malformed input returns a
// non-nil error; callers treat that as an InvalidRecord at the boundary
// that detects it.
func DecodeBinary(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// TextToBinary converts a text record to binary via UTF-8, used when a
// text record crosses into a binary writer (spec §4.5's "Binary writer"
// variant, whose text hooks convert via UTF-8).
func TextToBinary(s string) []byte {
	return []byte(s)
}
