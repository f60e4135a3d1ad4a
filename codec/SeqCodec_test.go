package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSeqCodecRoundTripFixed(t *testing.T) {
	seqs := [][]byte{
		[]byte("ACGTACGTACGT"),
		[]byte("acgtacgt"),
		[]byte("NNNNNNNNNN"),
		[]byte("ACGTnacgtNRYSWKMBDHV"),
		[]byte("ACGT.ACGT-ACGT"), // '.' and '-' force the escape path
		{},
	}

	enc := NewSeqPlainEncoder()
	for _, s := range seqs {
		enc.AddSeq(s)
	}
	_, err := enc.Finish()
	require.NoError(t, err)

	sink := &memSink{}
	require.NoError(t, enc.Flush(sink))

	dec := NewSeqPlainDecoder()
	require.NoError(t, dec.StartDecoder(sink.buf))

	for _, want := range seqs {
		got := make([]byte, len(want))
		dec.Decode(got)
		require.Equal(t, string(want), string(got))
	}
}

func TestSeqCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		seqs := make([][]byte, n)

		for i := range seqs {
			length := rapid.IntRange(0, 60).Draw(rt, "len")
			s := make([]byte, length)
			for j := range s {
				s[j] = rapid.SampledFrom([]string{
					"A", "C", "G", "T", "U", "N", "R", "Y", "S", "W", "K", "M",
					"B", "D", "H", "V", "a", "c", "g", "t", "n", ".", "-",
				}).Draw(rt, "base")[0]
			}
			seqs[i] = s
		}

		enc := NewSeqPlainEncoder()
		for _, s := range seqs {
			enc.AddSeq(s)
		}
		_, err := enc.Finish()
		require.NoError(rt, err)

		sink := &memSink{}
		require.NoError(rt, enc.Flush(sink))

		dec := NewSeqPlainDecoder()
		require.NoError(rt, dec.StartDecoder(sink.buf))

		for _, want := range seqs {
			got := make([]byte, len(want))
			dec.Decode(got)
			require.Equal(rt, string(want), string(got))
		}
	})
}
