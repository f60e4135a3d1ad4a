package codec

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/ac"
	"github.com/dcjones-quip/quip/dist"
)

// Sequence identifiers are modeled as a mixture of three token types: a
// literal byte drawn from the shared stringModel, a decimal integer field
// (length + digits), or a run of bytes copied verbatim from the previous
// id. The previous id is the encoder/decoder's sole cross-record state and
// is cleared at every block boundary.

const (
	tokLiteral = 0
	tokInteger = 1
	tokMatch   = 2
	tokEnd     = 3
)

const maxIDDigits = 19 // fits any uint64 value

// idTokenContexts: (previous token type) x (whether a previous-id byte
// exists to match against at the current offset).
const idTokenContexts = 4 * 2

func idTokenContext(prevTok int, hasPrev bool) int {
	ctx := prevTok * 2
	if hasPrev {
		ctx++
	}
	return ctx
}

// IdEncoder is the order-N encoder for the id sub-stream.
type IdEncoder struct {
	enc      *ac.Encoder
	buf      bufWriter
	tokens   *dist.ConditionalDistribution
	digits   *dist.ConditionalDistribution // context: digit position (0=leading, 1=rest)
	lengths  *dist.Distribution            // 1..maxIDDigits run lengths
	matchLen *dist.ConditionalDistribution // context: prev token type; run-length of matched bytes, capped+escape
	strings  *stringModel
	prevID   []byte
}

// NewIdEncoder creates an id sub-stream encoder. The encoder writes into an
// internal buffer; call Finish then Flush to drain it.
func NewIdEncoder() *IdEncoder {
	e := &IdEncoder{
		tokens:   dist.NewConditional(idTokenContexts, 4, 4),
		digits:   dist.NewConditional(2, 10, 3),
		lengths:  dist.New(maxIDDigits, 4),
		matchLen: dist.NewConditional(4, matchLenAlphabet, 4),
		strings:  newStringModel(),
	}
	e.enc = ac.NewEncoder(&e.buf)
	return e
}

// matchLenAlphabet bounds the run-length alphabet for a single match token.
// The top symbol (matchLenAlphabet-1) is reserved as a continuation marker:
// it means "matchLenAlphabet-1 bytes consumed, more chunks follow" rather
// than a final length, so a run longer than that is spread across as many
// matchLen symbols as needed and the decoder knows exactly when to stop.
const matchLenAlphabet = 64

// Encode encodes one id. It is independent of seq/qual/aux.
func (e *IdEncoder) Encode(id []byte) {
	prevTok := tokEnd
	i := 0

	for i < len(id) {
		hasPrev := i < len(e.prevID)

		if hasPrev && id[i] == e.prevID[i] {
			j := i
			for j < len(id) && j < len(e.prevID) && id[j] == e.prevID[j] {
				j++
			}
			run := j - i
			e.tokens.Encode(e.enc, idTokenContext(prevTok, hasPrev), tokMatch)

			for {
				if run >= matchLenAlphabet-1 {
					e.matchLen.Encode(e.enc, prevTok, matchLenAlphabet-1)
					run -= matchLenAlphabet - 1
					continue
				}
				e.matchLen.Encode(e.enc, prevTok, run)
				break
			}

			i = j
			prevTok = tokMatch
			continue
		}

		if isDigit(id[i]) {
			j := i
			for j < len(id) && j-i < maxIDDigits && isDigit(id[j]) {
				j++
			}
			e.tokens.Encode(e.enc, idTokenContext(prevTok, hasPrev), tokInteger)
			e.lengths.Encode(e.enc, j-i-1)

			for k := i; k < j; k++ {
				pos := 0
				if k > i {
					pos = 1
				}
				e.digits.Encode(e.enc, pos, int(id[k]-'0'))
			}

			i = j
			prevTok = tokInteger
			continue
		}

		e.tokens.Encode(e.enc, idTokenContext(prevTok, hasPrev), tokLiteral)
		class := byteClassCount - 1
		if i > 0 {
			class = byteClass(id[i-1])
		}
		e.strings.EncodeByte(e.enc, class, id[i])
		i++
		prevTok = tokLiteral
	}

	hasPrev := i < len(e.prevID)
	e.tokens.Encode(e.enc, idTokenContext(prevTok, hasPrev), tokEnd)

	e.prevID = append(e.prevID[:0], id...)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Finish flushes the arithmetic coder's trailing bytes into the internal
// buffer and returns the resulting compressed byte count.
func (e *IdEncoder) Finish() (int, error) {
	if err := e.enc.FinishEncoder(); err != nil {
		return 0, err
	}
	return e.buf.len(), nil
}

// Flush drains the internal compressed buffer to w.
func (e *IdEncoder) Flush(w quip.Writer) error {
	if len(e.buf.buf) == 0 {
		return nil
	}
	return w.Write(e.buf.buf)
}

// IdDecoder is the symmetric decoder.
type IdDecoder struct {
	dec      *ac.Decoder
	r        bufReader
	tokens   *dist.ConditionalDistribution
	digits   *dist.ConditionalDistribution
	lengths  *dist.Distribution
	matchLen *dist.ConditionalDistribution
	strings  *stringModel
	prevID   []byte
}

// NewIdDecoder creates an id sub-stream decoder.
func NewIdDecoder() *IdDecoder {
	d := &IdDecoder{
		tokens:   dist.NewConditional(idTokenContexts, 4, 4),
		digits:   dist.NewConditional(2, 10, 3),
		lengths:  dist.New(maxIDDigits, 4),
		matchLen: dist.NewConditional(4, matchLenAlphabet, 4),
		strings:  newStringModel(),
	}
	d.dec = ac.NewDecoder(&d.r)
	return d
}

// StartDecoder points the decoder at compressed and pre-loads the
// arithmetic coder's bit register. Called once per block.
func (d *IdDecoder) StartDecoder(compressed []byte) error {
	d.r.reset(compressed)
	return d.dec.StartDecoder()
}

// ResetDecoder clears the cross-record previous-id state between blocks.
func (d *IdDecoder) ResetDecoder() {
	d.prevID = d.prevID[:0]
}

// Decode decodes one id.
func (d *IdDecoder) Decode() []byte {
	var out []byte
	prevTok := tokEnd

	for {
		hasPrev := len(out) < len(d.prevID)
		tok := d.tokens.Decode(d.dec, idTokenContext(prevTok, hasPrev))

		switch tok {
		case tokEnd:
			d.prevID = append(d.prevID[:0], out...)
			return out

		case tokMatch:
			start := len(out)
			total := 0
			for {
				chunk := d.matchLen.Decode(d.dec, prevTok)
				total += chunk
				if chunk < matchLenAlphabet-1 {
					break
				}
			}
			out = append(out, d.prevID[start:start+total]...)
			prevTok = tokMatch

		case tokInteger:
			n := d.lengths.Decode(d.dec) + 1
			for k := 0; k < n; k++ {
				pos := 0
				if k > 0 {
					pos = 1
				}
				digit := d.digits.Decode(d.dec, pos)
				out = append(out, byte('0'+digit))
			}
			prevTok = tokInteger

		default: // tokLiteral
			class := byteClassCount - 1
			if len(out) > 0 {
				class = byteClass(out[len(out)-1])
			}
			b, _ := d.strings.DecodeByte(d.dec, class)
			out = append(out, b)
			prevTok = tokLiteral
		}
	}
}
