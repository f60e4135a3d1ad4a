package dist

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/ac"
)

type memWriter struct{ buf []byte }

func (w *memWriter) Write(p []byte) error {
	w.buf = append(w.buf, p...)
	return nil
}

type memReader struct {
	data []byte
	pos  int
}

func (r *memReader) Read(p []byte) (int, error) {
	n := copy(p, r.data[r.pos:])
	r.pos += n
	if n == 0 {
		return 0, quip.NewError(quip.ErrUnexpectedEndOfFile, "test reader exhausted")
	}
	return n, nil
}

func TestDistributionCumSumsToFreqTotal(t *testing.T) {
	d := New(5, 4)
	require.EqualValues(t, quip.FreqTotal, d.cum[d.n])

	for _, s := range []int{0, 1, 2, 3, 4, 2, 2, 2, 0} {
		d.observe(s)
		require.EqualValues(t, quip.FreqTotal, d.cum[d.n])

		for i := 0; i < d.n; i++ {
			require.GreaterOrEqual(t, d.freq[i], uint32(1), "no symbol may starve to zero frequency")
		}
	}
}

// TestDistributionRoundTripProperty drives a single Distribution through
// the full Encode/Decode path across many random symbol sequences,
// checking that two freshly constructed Distributions (one per side)
// update identically and recover the original sequence exactly.
func TestDistributionRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 20).Draw(rt, "n")
		rate := rapid.IntRange(2, 6).Draw(rt, "rate")
		count := rapid.IntRange(0, 500).Draw(rt, "count")

		symbols := make([]int, count)
		for i := range symbols {
			symbols[i] = rapid.IntRange(0, n-1).Draw(rt, "symbol")
		}

		w := &memWriter{}
		enc := ac.NewEncoder(w)
		encDist := New(n, rate)

		for _, s := range symbols {
			encDist.Encode(enc, s)
		}
		require.NoError(rt, enc.FinishEncoder())

		r := &memReader{data: w.buf}
		dec := ac.NewDecoder(r)
		require.NoError(rt, dec.StartDecoder())
		decDist := New(n, rate)

		for _, want := range symbols {
			got := decDist.Decode(dec)
			require.Equal(rt, want, got)
		}
	})
}

func TestConditionalDistributionContextsIndependent(t *testing.T) {
	c := NewConditional(3, 4, 4)

	w := &memWriter{}
	enc := ac.NewEncoder(w)

	// Skew context 0 heavily toward symbol 1, context 1 toward symbol 3;
	// context 2 is left untouched as a control.
	for i := 0; i < 64; i++ {
		c.Encode(enc, 0, 1)
		c.Encode(enc, 1, 3)
	}
	require.NoError(t, enc.FinishEncoder())

	require.Greater(t, c.At(0).freq[1], c.At(0).freq[0])
	require.Greater(t, c.At(1).freq[3], c.At(1).freq[0])

	for i := 0; i < c.At(2).n; i++ {
		require.InDelta(t, quip.FreqTotal/c.At(2).n, c.At(2).freq[i], 1,
			"untouched context must remain flat")
	}
}

func TestDistributionSetRejectsNothingButSumsCorrectly(t *testing.T) {
	freqs := []uint16{100, 200, 300, quip.FreqTotal - 600}
	d := New(4, 4)
	d.Set(freqs)

	var sum uint32
	for _, f := range d.freq {
		sum += f
	}
	require.EqualValues(t, quip.FreqTotal, sum)
	require.EqualValues(t, quip.FreqTotal, d.cum[d.n])
}
