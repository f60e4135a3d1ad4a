// Package ac implements the order-N binary-range arithmetic coder shared by
// every sub-stream encoder/decoder. It is a byte-oriented
// carry-propagating range coder in the style of kanzi-go's
// entropy.RangeEncoder/RangeDecoder (entropy/RangeCodec.go) and
// entropy.BinaryEntropyEncoder/Decoder (entropy/BinaryEntropyCodec.go),
// generalized to accept externally supplied cumulative-frequency
// boundaries rather than owning its own alphabet, since in this codec the
// frequency tables live one layer up in package dist.
package ac

import "github.com/dcjones-quip/quip"

const topValue = uint32(1) << 24

// Encoder narrows [low, low+range) on each EncodeRenorm call and emits
// bytes once the interval no longer needs the full 32 bits of precision.
// Carry propagation is handled the classic way: a pending byte plus a run
// counter of bytes whose value depends on whether a later addition
// overflows into them.
type Encoder struct {
	low       uint64
	rng       uint32
	cache     byte
	cacheSize uint64
	w         quip.Writer
	buf       [1]byte
	err       error
}

// NewEncoder creates an arithmetic encoder writing through w. Lifetime: one
// encoder per sub-stream per block; call Reset to rearm it for the next
// block instead of allocating a new one.
func NewEncoder(w quip.Writer) *Encoder {
	e := &Encoder{w: w}
	e.Reset()
	return e
}

// Reset rearms the encoder's numeric state for a new block. It performs no I/O.
func (e *Encoder) Reset() {
	e.low = 0
	e.rng = 0xFFFFFFFF
	e.cache = 0
	e.cacheSize = 1
	e.err = nil
}

// Err returns the first write error encountered, if any.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.buf[0] = b
	if err := e.w.Write(e.buf[:]); err != nil {
		e.err = quip.WrapError(quip.ErrWriterIoError, "arithmetic coder write failed", err)
	}
}

// shiftLow emits the top byte of low once it can no longer change, and
// propagates carry into any buffered 0xFF run first.
func (e *Encoder) shiftLow() {
	if uint32(e.low>>32) != 0 || e.low < 0xFF000000 {
		carry := byte(e.low >> 32)
		temp := e.cache

		for {
			e.writeByte(temp + carry)
			temp = 0xFF

			e.cacheSize--
			if e.cacheSize == 0 {
				break
			}
		}

		e.cache = byte(e.low >> 24)
	}

	e.cacheSize++
	e.low = (e.low << 8) & 0xFFFFFFFF
}

// EncodeRenorm narrows the interval to [lowBoundary/total, highBoundary/total)
// and emits as many bytes as the new range requires.
func (e *Encoder) EncodeRenorm(lowBoundary, highBoundary, total uint32) {
	r := e.rng / total
	e.low += uint64(r) * uint64(lowBoundary)
	e.rng = r * (highBoundary - lowBoundary)

	for e.rng < topValue {
		e.rng <<= 8
		e.shiftLow()
	}
}

// FinishEncoder flushes every byte still pending in low/cache so that any
// prefix of the emitted stream suffices for the decoder to resynchronize.
func (e *Encoder) FinishEncoder() error {
	for i := 0; i < 5; i++ {
		e.shiftLow()
	}
	return e.err
}

// Decoder is the symmetric counterpart of Encoder.
type Decoder struct {
	rng     uint32
	code    uint32
	lastDiv uint32
	r       quip.Reader
	buf     [1]byte
	err     error
}

// NewDecoder creates an arithmetic decoder reading through r. Call
// StartDecoder once before the first DecodeTarget/DecodeRenorm pair.
func NewDecoder(r quip.Reader) *Decoder {
	return &Decoder{r: r}
}

// Err returns the first read error encountered, if any.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) readByte() byte {
	if d.err != nil {
		return 0
	}
	n, err := d.r.Read(d.buf[:])
	if err != nil || n == 0 {
		d.err = quip.WrapError(quip.ErrUnexpectedEndOfFile, "arithmetic coder short read", err)
		return 0
	}
	return d.buf[0]
}

// Reset rearms the decoder's numeric state for a new block without
// performing any I/O; StartDecoder must still be called afterward.
func (d *Decoder) Reset() {
	d.rng = 0xFFFFFFFF
	d.code = 0
	d.err = nil
}

// StartDecoder rearms the decoder and pre-loads its initial bit register:
// the first byte discards the encoder's leading flush byte, the next four
// become the initial code value.
func (d *Decoder) StartDecoder() error {
	d.Reset()

	for i := 0; i < 5; i++ {
		b := d.readByte()
		if i > 0 {
			d.code = (d.code << 8) | uint32(b)
		}
	}

	return d.err
}

// DecodeTarget returns a value in [0, total) used by the caller to locate
// which symbol's cumulative-frequency range it falls into.
func (d *Decoder) DecodeTarget(total uint32) uint32 {
	d.lastDiv = d.rng / total
	t := d.code / d.lastDiv

	if t >= total {
		t = total - 1
	}

	return t
}

// DecodeRenorm narrows the interval the same way EncodeRenorm did on the
// encode side, given the boundaries the caller resolved from DecodeTarget.
func (d *Decoder) DecodeRenorm(lowBoundary, highBoundary, total uint32) {
	r := d.lastDiv
	d.code -= lowBoundary * r
	d.rng = r * (highBoundary - lowBoundary)

	for d.rng < topValue {
		b := d.readByte()
		d.code = (d.code << 8) | uint32(b)
		d.rng <<= 8
	}
}
