package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type memSink struct{ buf []byte }

func (m *memSink) Write(p []byte) error {
	m.buf = append(m.buf, p...)
	return nil
}

func TestIdCodecRoundTripFixed(t *testing.T) {
	ids := [][]byte{
		[]byte("read/1"),
		[]byte("read/2"),
		[]byte("read/3"),
		[]byte("SRR000001.100"),
		[]byte("SRR000001.101"),
		[]byte(""),
		[]byte("unrelated-id-42"),
	}

	enc := NewIdEncoder()
	for _, id := range ids {
		enc.Encode(id)
	}
	_, err := enc.Finish()
	require.NoError(t, err)

	sink := &memSink{}
	require.NoError(t, enc.Flush(sink))

	dec := NewIdDecoder()
	require.NoError(t, dec.StartDecoder(sink.buf))

	for _, want := range ids {
		got := dec.Decode()
		require.Equal(t, string(want), string(got))
	}
}

// TestIdCodecRoundTripLongMatchRun exercises a common-prefix run longer than
// matchLenAlphabet-1, forcing the encoder to emit more than one matchLen
// symbol for a single tokMatch token.
func TestIdCodecRoundTripLongMatchRun(t *testing.T) {
	prefix := ""
	for len(prefix) < 200 {
		prefix += "abcdefghij"
	}

	ids := [][]byte{
		[]byte(prefix + "-first"),
		[]byte(prefix + "-second"),
		[]byte(prefix),
	}

	enc := NewIdEncoder()
	for _, id := range ids {
		enc.Encode(id)
	}
	_, err := enc.Finish()
	require.NoError(t, err)

	sink := &memSink{}
	require.NoError(t, enc.Flush(sink))

	dec := NewIdDecoder()
	require.NoError(t, dec.StartDecoder(sink.buf))

	for _, want := range ids {
		got := dec.Decode()
		require.Equal(t, string(want), string(got))
	}
}

func TestIdCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		ids := make([][]byte, n)
		for i := range ids {
			base := rapid.StringMatching(`[a-zA-Z0-9_./:]{0,32}`).Draw(rt, "id")
			if i > 0 && rapid.Bool().Draw(rt, "shareLongPrefix") {
				extra := rapid.StringMatching(`[a-zA-Z0-9_./:]{0,40}`).Draw(rt, "extra")
				base = string(ids[i-1]) + extra
			}
			ids[i] = []byte(base)
		}

		enc := NewIdEncoder()
		for _, id := range ids {
			enc.Encode(id)
		}
		_, err := enc.Finish()
		require.NoError(rt, err)

		sink := &memSink{}
		require.NoError(rt, enc.Flush(sink))

		dec := NewIdDecoder()
		require.NoError(rt, dec.StartDecoder(sink.buf))

		for _, want := range ids {
			got := dec.Decode()
			require.Equal(rt, string(want), string(got))
		}
	})
}
