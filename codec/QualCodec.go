package codec

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/ac"
	"github.com/dcjones-quip/quip/dist"
)

// Per-base quality scores are modeled in the window [base, base+QualScale).
// Context is a small tuple: a bucketed position-in-read, the previous
// quality score and the second-previous quality score, both bucketed
// coarsely to keep the context table small.
const (
	qualPosBuckets   = 8
	qualDeltaBuckets = 16
	qualContexts     = qualPosBuckets * qualDeltaBuckets * qualDeltaBuckets
)

func qualContext(pos, readLen, prevQ, prevPrevQ int) int {
	posB := 0
	if readLen > 0 {
		posB = pos * qualPosBuckets / readLen
	}
	if posB >= qualPosBuckets {
		posB = qualPosBuckets - 1
	}

	d1 := prevQ * qualDeltaBuckets / quip.QualScale
	d2 := prevPrevQ * qualDeltaBuckets / quip.QualScale

	if d1 >= qualDeltaBuckets {
		d1 = qualDeltaBuckets - 1
	}
	if d2 >= qualDeltaBuckets {
		d2 = qualDeltaBuckets - 1
	}

	return (posB*qualDeltaBuckets+d1)*qualDeltaBuckets + d2
}

// QualEncoder is the order-N encoder for the qual sub-stream.
type QualEncoder struct {
	enc  *ac.Encoder
	buf  bufWriter
	dist *dist.ConditionalDistribution
	base byte
}

// NewQualEncoder creates a qual sub-stream encoder.
func NewQualEncoder() *QualEncoder {
	e := &QualEncoder{dist: dist.NewConditional(qualContexts, quip.QualScale, 4)}
	e.enc = ac.NewEncoder(&e.buf)
	return e
}

// SetBase informs the codec of the active quality-scheme base for the
// current chunk, transmitted out-of-band via the block header's
// quality-scheme run-length encoding.
func (e *QualEncoder) SetBase(base byte) {
	e.base = base
}

// Encode encodes one read's quality string (possibly empty).
func (e *QualEncoder) Encode(qual []byte) {
	prevQ, prevPrevQ := 0, 0

	for i, b := range qual {
		sym := int(b) - int(e.base)
		if sym < 0 {
			sym = 0
		}
		if sym >= quip.QualScale {
			sym = quip.QualScale - 1
		}

		ctx := qualContext(i, len(qual), prevQ, prevPrevQ)
		e.dist.Encode(e.enc, ctx, sym)

		prevPrevQ = prevQ
		prevQ = sym
	}
}

// Finish flushes the arithmetic coder and returns the compressed byte count.
func (e *QualEncoder) Finish() (int, error) {
	if err := e.enc.FinishEncoder(); err != nil {
		return 0, err
	}
	return e.buf.len(), nil
}

// Flush drains the internal compressed buffer to w.
func (e *QualEncoder) Flush(w quip.Writer) error {
	if len(e.buf.buf) == 0 {
		return nil
	}
	return w.Write(e.buf.buf)
}

// QualDecoder is the symmetric decoder.
type QualDecoder struct {
	dec  *ac.Decoder
	r    bufReader
	dist *dist.ConditionalDistribution
	base byte
}

// NewQualDecoder creates a qual sub-stream decoder.
func NewQualDecoder() *QualDecoder {
	d := &QualDecoder{dist: dist.NewConditional(qualContexts, quip.QualScale, 4)}
	d.dec = ac.NewDecoder(&d.r)
	return d
}

// SetBase informs the decoder of the active quality-scheme base, read from
// the block header's quality-scheme RLE before decoding the corresponding reads.
func (d *QualDecoder) SetBase(base byte) {
	d.base = base
}

// StartDecoder points the decoder at compressed and pre-loads the
// arithmetic coder's bit register.
func (d *QualDecoder) StartDecoder(compressed []byte) error {
	d.r.reset(compressed)
	return d.dec.StartDecoder()
}

// ResetDecoder is a no-op for QualCodec: it leaves the adaptive context
// tables as they are, and the base is refreshed by SetBase.
func (d *QualDecoder) ResetDecoder() {}

// Decode decodes n quality bytes into out (out must have length n, or n==0
// for an empty quality string).
func (d *QualDecoder) Decode(out []byte) {
	prevQ, prevPrevQ := 0, 0

	for i := range out {
		ctx := qualContext(i, len(out), prevQ, prevPrevQ)
		sym := d.dist.Decode(d.dec, ctx)
		out[i] = byte(sym) + d.base

		prevPrevQ = prevQ
		prevQ = sym
	}
}
