package codec

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/ac"
	"github.com/dcjones-quip/quip/dist"
)

// SeqEncoder is the narrow interface the seq sub-stream is produced
// through. The plain order-N nucleotide model below is the only mandatory
// implementation; an assembled (de-novo contig) or reference-aligned coder
// is an external collaborator that satisfies this same interface and is
// selected once per run from the container header flags.
type SeqEncoder interface {
	AddSeq(seq []byte)
	Finish() (int, error)
	Flush(w quip.Writer) error
}

// SeqDecoder is the symmetric read-side interface.
type SeqDecoder interface {
	StartDecoder(compressed []byte) error
	ResetDecoder()
	Decode(out []byte)
}

// nucAlphabet covers the standard IUPAC nucleotide and ambiguity codes.
// Any byte outside this set (case-folded) takes the escape path below, so
// the model stays lossless for arbitrary input.
const nucAlphabet = "ACGTUNRYSWKMBDHV"
const nucAlphabetSize = len(nucAlphabet)
const nucEscape = nucAlphabetSize     // coded symbol: byte not in nucAlphabet
const nucBOS = nucAlphabetSize + 1    // context-only: start of read
const nucCtxSize = nucAlphabetSize + 2 // distinct context codes: 16 real + escape + BOS
const nucSymbols = nucAlphabetSize + 1 // coded alphabet: 16 real + escape

var nucCode [256]int

func init() {
	for i := range nucCode {
		nucCode[i] = -1
	}
	for i := 0; i < nucAlphabetSize; i++ {
		c := nucAlphabet[i]
		nucCode[c] = i
		nucCode[c+('a'-'A')] = i
	}
}

func isLowerASCII(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// SeqPlainEncoder is the mandatory order-N nucleotide model: context is the
// previous two coded symbols (including escape/BOS markers), case is
// modeled as a separate bit conditioned on the coded symbol so
// soft-masked (lowercase) regions compress without losing case fidelity.
type SeqPlainEncoder struct {
	enc      *ac.Encoder
	buf      bufWriter
	sym      *dist.ConditionalDistribution // nucCtxSize*nucCtxSize contexts, nucSymbols alphabet
	caseDist *dist.ConditionalDistribution // nucSymbols contexts, 2 alphabet
	escByte  *dist.Distribution            // flat, for the rare escape path
}

// NewSeqPlainEncoder creates the plain order-N seq sub-stream encoder.
func NewSeqPlainEncoder() *SeqPlainEncoder {
	e := &SeqPlainEncoder{
		sym:      dist.NewConditional(nucCtxSize*nucCtxSize, nucSymbols, 5),
		caseDist: dist.NewConditional(nucSymbols, 2, 5),
		escByte:  dist.New(256, 4),
	}
	e.enc = ac.NewEncoder(&e.buf)
	return e
}

func nucCtx(p1, p2 int) int {
	return p1*nucCtxSize + p2
}

// AddSeq encodes one read's sequence bytes.
func (e *SeqPlainEncoder) AddSeq(seq []byte) {
	p1, p2 := nucBOS, nucBOS

	for _, b := range seq {
		code := -1
		if b < 128 {
			code = nucCode[b]
		}

		symCode := code
		if symCode < 0 {
			symCode = nucEscape
		}

		e.sym.Encode(e.enc, nucCtx(p1, p2), symCode)

		if symCode == nucEscape {
			e.escByte.Encode(e.enc, int(b))
		} else {
			isLower := 0
			if isLowerASCII(b) {
				isLower = 1
			}
			e.caseDist.Encode(e.enc, symCode, isLower)
		}

		p2 = p1
		p1 = symCode
	}
}

// Finish flushes the arithmetic coder and returns the compressed byte count.
func (e *SeqPlainEncoder) Finish() (int, error) {
	if err := e.enc.FinishEncoder(); err != nil {
		return 0, err
	}
	return e.buf.len(), nil
}

// Flush drains the internal compressed buffer to w.
func (e *SeqPlainEncoder) Flush(w quip.Writer) error {
	if len(e.buf.buf) == 0 {
		return nil
	}
	return w.Write(e.buf.buf)
}

// SeqPlainDecoder is the symmetric decoder.
type SeqPlainDecoder struct {
	dec      *ac.Decoder
	r        bufReader
	sym      *dist.ConditionalDistribution
	caseDist *dist.ConditionalDistribution
	escByte  *dist.Distribution
}

// NewSeqPlainDecoder creates the plain order-N seq sub-stream decoder.
func NewSeqPlainDecoder() *SeqPlainDecoder {
	d := &SeqPlainDecoder{
		sym:      dist.NewConditional(nucCtxSize*nucCtxSize, nucSymbols, 5),
		caseDist: dist.NewConditional(nucSymbols, 2, 5),
		escByte:  dist.New(256, 4),
	}
	d.dec = ac.NewDecoder(&d.r)
	return d
}

// StartDecoder points the decoder at compressed and pre-loads the
// arithmetic coder's bit register.
func (d *SeqPlainDecoder) StartDecoder(compressed []byte) error {
	d.r.reset(compressed)
	return d.dec.StartDecoder()
}

// ResetDecoder is a no-op: it leaves the adaptive symbol and case tables as
// they are; the order-2 context already restarts at nucBOS for every read.
func (d *SeqPlainDecoder) ResetDecoder() {}

// Decode decodes len(out) sequence bytes into out.
func (d *SeqPlainDecoder) Decode(out []byte) {
	p1, p2 := nucBOS, nucBOS

	for i := range out {
		symCode := d.sym.Decode(d.dec, nucCtx(p1, p2))

		if symCode == nucEscape {
			out[i] = byte(d.escByte.Decode(d.dec))
		} else {
			c := nucAlphabet[symCode]
			if d.caseDist.Decode(d.dec, symCode) == 1 {
				c += 'a' - 'A'
			}
			out[i] = c
		}

		p2 = p1
		p1 = symCode
	}
}
