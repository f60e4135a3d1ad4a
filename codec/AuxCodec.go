package codec

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/ac"
	"github.com/dcjones-quip/quip/dist"
)

// AuxCodec encodes SAM-style optional tag tables: a sequence of (tag, type,
// value) items coded against an adaptive joint distribution over
// previously-seen tag/type pairs (high hit rate across homogeneous
// datasets), values coded by type, and a distinguished end-of-table symbol.

// maxAuxPairs bounds how many distinct (tag,type) pairs get their own slot
// in the joint distribution before new pairs share an overflow slot; real
// SAM files rarely carry more than a handful of distinct optional tags.
const maxAuxPairs = 64

const (
	auxPairNew = maxAuxPairs     // escape: a pair not seen before in this block
	auxPairEnd = maxAuxPairs + 1 // end of this read's tag table
	auxPairN   = maxAuxPairs + 2
)

type auxPair struct {
	tag [2]byte
	typ byte
}

func valueWidth(typ byte) int {
	switch typ {
	case 'A', 'c', 'C':
		return 1
	case 's', 'S':
		return 2
	case 'i', 'I', 'f':
		return 4
	default:
		return -1 // variable length: Z, H, B and anything unrecognized
	}
}

// AuxEncoder is the encoder for the aux sub-stream.
type AuxEncoder struct {
	enc        *ac.Encoder
	buf        bufWriter
	pairDist   *dist.Distribution
	valueBytes *dist.ConditionalDistribution
	tagBytes   *stringModel
	values     *stringModel
	pairs      []auxPair
}

// NewAuxEncoder creates an aux sub-stream encoder.
func NewAuxEncoder() *AuxEncoder {
	e := &AuxEncoder{
		pairDist:   dist.New(auxPairN, 4),
		valueBytes: dist.NewConditional(maxAuxPairs, 256, 4),
		tagBytes:   newStringModel(),
		values:     newStringModel(),
	}
	e.enc = ac.NewEncoder(&e.buf)
	return e
}

func (e *AuxEncoder) findPair(tag [2]byte, typ byte) int {
	for i, p := range e.pairs {
		if p.tag == tag && p.typ == typ {
			return i
		}
	}
	return -1
}

// Encode encodes one read's aux tag table, possibly empty.
func (e *AuxEncoder) Encode(aux []quip.AuxTag) {
	for _, a := range aux {
		id := e.findPair(a.Tag, a.Type)

		if id < 0 {
			e.pairDist.Encode(e.enc, auxPairNew)
			e.tagBytes.EncodeByte(e.enc, byteClassCount-1, a.Tag[0])
			e.tagBytes.EncodeByte(e.enc, byteClass(a.Tag[0]), a.Tag[1])
			e.tagBytes.EncodeByte(e.enc, byteClass(a.Tag[1]), a.Type)

			if len(e.pairs) < maxAuxPairs {
				id = len(e.pairs)
				e.pairs = append(e.pairs, auxPair{tag: a.Tag, typ: a.Type})
			} else {
				id = maxAuxPairs - 1
			}
		} else {
			e.pairDist.Encode(e.enc, id)
		}

		e.encodeValue(a.Type, id, a.Value)
	}

	e.pairDist.Encode(e.enc, auxPairEnd)
}

func (e *AuxEncoder) encodeValue(typ byte, ctxID int, value []byte) {
	if w := valueWidth(typ); w >= 0 {
		for i := 0; i < w; i++ {
			b := byte(0)
			if i < len(value) {
				b = value[i]
			}
			e.valueBytes.Encode(e.enc, ctxID%maxAuxPairs, int(b))
		}
		return
	}

	// The terminator is an out-of-band symbol, not a byte value, so this is
	// safe for arbitrary byte content including embedded zero bytes (SAM
	// 'B' array values).
	e.values.EncodeString(e.enc, value)
}

// Finish flushes the arithmetic coder and returns the compressed byte count.
func (e *AuxEncoder) Finish() (int, error) {
	if err := e.enc.FinishEncoder(); err != nil {
		return 0, err
	}
	return e.buf.len(), nil
}

// Flush drains the internal compressed buffer to w.
func (e *AuxEncoder) Flush(w quip.Writer) error {
	if len(e.buf.buf) == 0 {
		return nil
	}
	return w.Write(e.buf.buf)
}

// AuxDecoder is the symmetric decoder.
type AuxDecoder struct {
	dec        *ac.Decoder
	r          bufReader
	pairDist   *dist.Distribution
	valueBytes *dist.ConditionalDistribution
	tagBytes   *stringModel
	values     *stringModel
	pairs      []auxPair
}

// NewAuxDecoder creates an aux sub-stream decoder.
func NewAuxDecoder() *AuxDecoder {
	d := &AuxDecoder{
		pairDist:   dist.New(auxPairN, 4),
		valueBytes: dist.NewConditional(maxAuxPairs, 256, 4),
		tagBytes:   newStringModel(),
		values:     newStringModel(),
	}
	d.dec = ac.NewDecoder(&d.r)
	return d
}

// StartDecoder points the decoder at compressed and pre-loads the
// arithmetic coder's bit register.
func (d *AuxDecoder) StartDecoder(compressed []byte) error {
	d.r.reset(compressed)
	return d.dec.StartDecoder()
}

// ResetDecoder clears the cross-record tag/type pair table between blocks.
func (d *AuxDecoder) ResetDecoder() {
	d.pairs = d.pairs[:0]
}

// Decode decodes one read's aux tag table.
func (d *AuxDecoder) Decode() []quip.AuxTag {
	var out []quip.AuxTag

	for {
		id := d.pairDist.Decode(d.dec)

		if id == auxPairEnd {
			return out
		}

		var p auxPair

		if id == auxPairNew {
			p.tag[0], _ = d.tagBytes.DecodeByte(d.dec, byteClassCount-1)
			p.tag[1], _ = d.tagBytes.DecodeByte(d.dec, byteClass(p.tag[0]))
			p.typ, _ = d.tagBytes.DecodeByte(d.dec, byteClass(p.tag[1]))

			if len(d.pairs) < maxAuxPairs {
				id = len(d.pairs)
				d.pairs = append(d.pairs, p)
			} else {
				id = maxAuxPairs - 1
			}
		} else {
			p = d.pairs[id]
		}

		value := d.decodeValue(p.typ, id)
		out = append(out, quip.AuxTag{Tag: p.tag, Type: p.typ, Value: value})
	}
}

func (d *AuxDecoder) decodeValue(typ byte, ctxID int) []byte {
	if w := valueWidth(typ); w >= 0 {
		value := make([]byte, w)
		for i := 0; i < w; i++ {
			value[i] = byte(d.valueBytes.Decode(d.dec, ctxID%maxAuxPairs))
		}
		return value
	}

	return d.values.DecodeString(d.dec)
}
