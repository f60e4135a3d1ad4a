package codec

import (
	"github.com/dcjones-quip/quip/ac"
	"github.com/dcjones-quip/quip/dist"
)

// byteClassCount is the number of coarse classes a previously-emitted byte
// is bucketed into, used as context for the next literal byte. Strings in
// this domain (identifiers, SAM tag string values) are dominated by
// digits, letters and a handful of punctuation separators, so a cheap
// 4-way split pays for most of the context most identifiers need.
const byteClassCount = 4

func byteClass(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return 0
	case b >= 'A' && b <= 'Z':
		return 1
	case b >= 'a' && b <= 'z':
		return 2
	default:
		return 3
	}
}

// endOfString is an out-of-band symbol appended to the 256-byte alphabet to
// terminate a null-terminated string field without a length prefix.
const endOfString = 256

// stringModel is the byte-level literal/string codec shared by IdCodec's
// literal-byte tokens and AuxCodec's string-typed tag values.
type stringModel struct {
	bytes *dist.ConditionalDistribution // byteClassCount contexts, 257 symbols (256 bytes + EOS)
}

func newStringModel() *stringModel {
	return &stringModel{bytes: dist.NewConditional(byteClassCount, 257, 4)}
}

// EncodeByte encodes one literal byte conditioned on the class of the byte
// that preceded it.
func (m *stringModel) EncodeByte(enc *ac.Encoder, prevClass int, b byte) {
	m.bytes.Encode(enc, prevClass, int(b))
}

// DecodeByte decodes one literal byte; returns (0, true) if it decoded
// the end-of-string symbol instead.
func (m *stringModel) DecodeByte(dec *ac.Decoder, prevClass int) (byte, bool) {
	sym := m.bytes.Decode(dec, prevClass)

	if sym == endOfString {
		return 0, true
	}

	return byte(sym), false
}

// EncodeEnd encodes the end-of-string symbol.
func (m *stringModel) EncodeEnd(enc *ac.Encoder, prevClass int) {
	m.bytes.Encode(enc, prevClass, endOfString)
}

// EncodeString encodes a null-terminated byte string: every byte plus a
// trailing end-of-string symbol.
func (m *stringModel) EncodeString(enc *ac.Encoder, s []byte) {
	class := byteClassCount - 1

	for _, b := range s {
		m.EncodeByte(enc, class, b)
		class = byteClass(b)
	}

	m.EncodeEnd(enc, class)
}

// DecodeString decodes a null-terminated byte string written by EncodeString.
func (m *stringModel) DecodeString(dec *ac.Decoder) []byte {
	class := byteClassCount - 1
	var out []byte

	for {
		b, end := m.DecodeByte(dec, class)

		if end {
			return out
		}

		out = append(out, b)
		class = byteClass(b)
	}
}
