package recfmt

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dcjones-quip/quip"
)

func TestEncodeDecodeLineRoundTrip(t *testing.T) {
	reads := []quip.Read{
		{ID: []byte("read/1"), Seq: []byte("ACGT"), Qual: []byte("IIII")},
		{ID: []byte("read/2"), Seq: []byte("ACGT")},
		{ID: []byte("read/3"), Seq: []byte("ACGT"), Qual: []byte("IIII"),
			Aux: []quip.AuxTag{
				{Tag: [2]byte{'N', 'M'}, Type: 'i', Value: []byte("3")},
				{Tag: [2]byte{'M', 'D'}, Type: 'Z', Value: []byte("a,b:c%d\te\nf")},
			}},
	}

	for _, want := range reads {
		line := EncodeLine(&want)
		got, err := DecodeLine(line)
		require.NoError(t, err)

		require.Equal(t, string(want.ID), string(got.ID))
		require.Equal(t, string(want.Seq), string(got.Seq))
		require.Equal(t, string(want.Qual), string(got.Qual))
		require.Equal(t, len(want.Aux), len(got.Aux))

		for i := range want.Aux {
			require.Equal(t, want.Aux[i].Tag, got.Aux[i].Tag)
			require.Equal(t, want.Aux[i].Type, got.Aux[i].Type)
			require.Equal(t, string(want.Aux[i].Value), string(got.Aux[i].Value))
		}
	}
}

func TestDecodeLineRejectsMalformed(t *testing.T) {
	_, err := DecodeLine("only-one-field")
	require.Error(t, err)
	require.True(t, quip.IsKind(err, quip.ErrMalformedHeader))

	_, err = DecodeLine("id\tACGT\tIIII\tbadaux")
	require.Error(t, err)
	require.True(t, quip.IsKind(err, quip.ErrMalformedHeader))
}

func TestEscapeValueRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		value := make([]byte, n)
		for i := range value {
			value[i] = byte(rapid.IntRange(0, 255).Draw(rt, "byte"))
		}

		got, err := unescapeValue(escapeValue(value))
		require.NoError(rt, err)
		require.Equal(rt, value, got)
	})
}
