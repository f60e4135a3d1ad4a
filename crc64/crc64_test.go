package crc64

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSumMatchesIncrementalHash(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 500).Draw(rt, "data")

		h := New()
		_, err := h.Write(data)
		require.NoError(rt, err)

		require.Equal(rt, Sum(data), h.Sum64())
	})
}

func TestSumSplitWritesMatchSingleWrite(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(rt, "a")
		b := rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(rt, "b")

		h := New()
		h.Write(a)
		h.Write(b)

		require.Equal(rt, Sum(append(append([]byte{}, a...), b...)), h.Sum64())
	})
}

func TestResetZeroesAccumulator(t *testing.T) {
	h := New()
	h.Write([]byte("nonempty"))
	require.NotZero(t, h.Sum64())

	h.Reset()
	require.Zero(t, h.Sum64())
	require.Equal(t, Sum(nil), h.Sum64())
}

func TestSumDetectsSingleByteChange(t *testing.T) {
	a := []byte("the quick brown fox")
	b := []byte("the quick brown fax")
	require.NotEqual(t, Sum(a), Sum(b))
}
