package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dcjones-quip/quip"
)

func TestQualCodecRoundTripSangerRange(t *testing.T) {
	reads := [][]byte{
		[]byte("IIIIIIIIIIIIIIII"),
		[]byte("!!!!!!!!!!"),
		[]byte("ABCDEFGHIJ"),
		{},
	}

	enc := NewQualEncoder()
	enc.SetBase(33)
	for _, q := range reads {
		enc.Encode(q)
	}
	_, err := enc.Finish()
	require.NoError(t, err)

	sink := &memSink{}
	require.NoError(t, enc.Flush(sink))

	dec := NewQualDecoder()
	dec.SetBase(33)
	require.NoError(t, dec.StartDecoder(sink.buf))

	for _, want := range reads {
		got := make([]byte, len(want))
		dec.Decode(got)
		require.Equal(t, string(want), string(got))
	}
}

func TestQualCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := byte(rapid.SampledFrom([]int{33, 64}).Draw(rt, "base"))
		n := rapid.IntRange(0, 30).Draw(rt, "n")

		reads := make([][]byte, n)
		for i := range reads {
			length := rapid.IntRange(0, 50).Draw(rt, "len")
			q := make([]byte, length)
			for j := range q {
				q[j] = base + byte(rapid.IntRange(0, quip.QualScale-1).Draw(rt, "score"))
			}
			reads[i] = q
		}

		enc := NewQualEncoder()
		enc.SetBase(base)
		for _, q := range reads {
			enc.Encode(q)
		}
		_, err := enc.Finish()
		require.NoError(rt, err)

		sink := &memSink{}
		require.NoError(rt, enc.Flush(sink))

		dec := NewQualDecoder()
		dec.SetBase(base)
		require.NoError(rt, dec.StartDecoder(sink.buf))

		for _, want := range reads {
			got := make([]byte, len(want))
			dec.Decode(got)
			require.Equal(rt, string(want), string(got))
		}
	})
}
