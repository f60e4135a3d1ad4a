package ac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// memWriter/memReader are minimal quip.Writer/quip.Reader implementations
// local to this test file: a real Writer adapter lives in package internal,
// but pulling that package in here would be a test-only import cycle risk
// for no benefit.
type memWriter struct {
	buf []byte
}

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
		return 0, errors.New("EOF")
	}
	return n, nil
}

// TestRangeCoderFlatAlphabet encodes and decodes a run of symbols drawn
// from a flat, static eight-symbol cumulative table.
func TestRangeCoderFlatAlphabet(t *testing.T) {
	const total = uint32(8)
	symbols := []int{0, 3, 7, 1, 1, 6, 0, 5, 4, 2}

	w := &memWriter{}
	enc := NewEncoder(w)

	for _, s := range symbols {
		enc.EncodeRenorm(uint32(s), uint32(s+1), total)
	}
	require.NoError(t, enc.FinishEncoder())

	r := &memReader{data: w.buf}
	dec := NewDecoder(r)
	require.NoError(t, dec.StartDecoder())

	for _, want := range symbols {
		target := dec.DecodeTarget(total)
		got := int(target)
		require.Equal(t, want, got)
		dec.DecodeRenorm(uint32(got), uint32(got+1), total)
	}
}

// TestRangeCoderRoundTripProperty exercises the coder against randomly
// generated cumulative-frequency tables and symbol sequences, the way a
// dist.Distribution actually drives it in production.
func TestRangeCoderRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 16).Draw(rt, "n")
		freqs := make([]uint32, n)
		for i := range freqs {
			freqs[i] = uint32(rapid.IntRange(1, 50).Draw(rt, "freq"))
		}

		cum := make([]uint32, n+1)
		for i := 0; i < n; i++ {
			cum[i+1] = cum[i] + freqs[i]
		}
		total := cum[n]

		count := rapid.IntRange(0, 200).Draw(rt, "count")
		symbols := make([]int, count)
		for i := range symbols {
			symbols[i] = rapid.IntRange(0, n-1).Draw(rt, "symbol")
		}

		w := &memWriter{}
		enc := NewEncoder(w)
		for _, s := range symbols {
			enc.EncodeRenorm(cum[s], cum[s+1], total)
		}
		require.NoError(rt, enc.FinishEncoder())

		r := &memReader{data: w.buf}
		dec := NewDecoder(r)
		require.NoError(rt, dec.StartDecoder())

		for _, want := range symbols {
			target := dec.DecodeTarget(total)

			s := 0
			for s < n-1 && cum[s+1] <= target {
				s++
			}

			require.Equal(rt, want, s)
			dec.DecodeRenorm(cum[s], cum[s+1], total)
		}
	})
}
