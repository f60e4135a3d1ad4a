package container

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dcjones-quip/quip"
)

type memPipe struct{ buf []byte }

func (p *memPipe) Write(b []byte) error {
	p.buf = append(p.buf, b...)
	return nil
}

type memCursor struct {
	data []byte
	pos  int
}

func (c *memCursor) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.pos:])
	c.pos += n
	return n, nil
}

func TestContainerRoundTripPlain(t *testing.T) {
	reads := []quip.Read{
		{ID: []byte("a"), Seq: []byte("ACGT"), Qual: []byte("IIII")},
		{ID: []byte("b"), Seq: []byte("TTTT")},
	}

	pipe := &memPipe{}
	w, err := NewWriter(pipe, Options{AuxVariant: AuxHeaderText, AuxPayload: []byte("@HD\tVN:1.6\n")})
	require.NoError(t, err)

	for _, r := range reads {
		require.NoError(t, w.AddRead(r))
	}
	require.NoError(t, w.Finish())

	r, err := NewReader(&memCursor{data: pipe.buf}, Options{})
	require.NoError(t, err)
	require.Equal(t, byte(quip.MagicVersion3), r.Version)
	require.Equal(t, AuxHeaderText, r.AuxVariant)
	require.Equal(t, "@HD\tVN:1.6\n", string(r.AuxPayload))

	for _, want := range reads {
		got, err := r.Next()
		require.NoError(t, err)
		require.Equal(t, string(want.ID), string(got.ID))
		require.Equal(t, string(want.Seq), string(got.Seq))
		require.Equal(t, string(want.Qual), string(got.Qual))
	}

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestContainerReferenceMismatch(t *testing.T) {
	ref := &ReferenceTable{Names: []string{"chr1", "chr2"}, Lengths: []uint64{1000, 2000}}

	pipe := &memPipe{}
	w, err := NewWriter(pipe, Options{Reference: ref})
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	_, err = NewReader(&memCursor{data: pipe.buf}, Options{})
	require.Error(t, err)
	require.True(t, quip.IsKind(err, quip.ErrMissingReference))

	wrong := &ReferenceTable{Names: []string{"chrX"}, Lengths: []uint64{99}}
	_, err = NewReader(&memCursor{data: pipe.buf}, Options{Reference: wrong})
	require.Error(t, err)
	require.True(t, quip.IsKind(err, quip.ErrWrongReference))

	r, err := NewReader(&memCursor{data: pipe.buf}, Options{Reference: ref})
	require.NoError(t, err)
	require.True(t, r.Reference.Equal(ref))
}

func TestContainerRejectsVersion1(t *testing.T) {
	_, err := NewWriter(&memPipe{}, Options{Version: 1})
	require.Error(t, err)
	require.True(t, quip.IsKind(err, quip.ErrMalformedHeader))
}

func TestContainerInspectCountsBlocks(t *testing.T) {
	reads := []quip.Read{
		{ID: []byte("a"), Seq: []byte("ACGT")},
		{ID: []byte("b"), Seq: []byte("TTTTACGT")},
		{ID: []byte("c"), Seq: []byte("GGGG")},
	}

	pipe := &memPipe{}
	w, err := NewWriter(pipe, Options{})
	require.NoError(t, err)
	for _, r := range reads {
		require.NoError(t, w.AddRead(r))
	}
	require.NoError(t, w.Finish())

	var totalReads, totalBases int64
	hdr, err := Inspect(&memCursor{data: pipe.buf}, func(b BlockInfo) {
		totalReads += int64(b.Reads)
		totalBases += b.Bases
		for _, size := range b.SubstreamSizes {
			require.GreaterOrEqual(t, size, 0)
		}
	})
	require.NoError(t, err)
	require.Equal(t, byte(quip.MagicVersion3), hdr.Version)
	require.EqualValues(t, len(reads), totalReads)
	require.EqualValues(t, 4+8+4, totalBases)
}

func TestContainerRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		reads := make([]quip.Read, n)

		for i := range reads {
			seqLen := rapid.IntRange(0, 30).Draw(rt, "seqLen")
			seq := make([]byte, seqLen)
			for j := range seq {
				seq[j] = rapid.SampledFrom([]byte("ACGT")).Draw(rt, "base")
			}

			reads[i] = quip.Read{
				ID:  []byte(rapid.StringMatching(`[a-zA-Z0-9_./:]{1,16}`).Draw(rt, "id")),
				Seq: seq,
			}
		}

		pipe := &memPipe{}
		w, err := NewWriter(pipe, Options{})
		require.NoError(rt, err)
		for _, r := range reads {
			require.NoError(rt, w.AddRead(r))
		}
		require.NoError(rt, w.Finish())

		r, err := NewReader(&memCursor{data: pipe.buf}, Options{})
		require.NoError(rt, err)

		for _, want := range reads {
			got, err := r.Next()
			require.NoError(rt, err)
			require.Equal(rt, string(want.ID), string(got.ID))
			require.Equal(rt, string(want.Seq), string(got.Seq))
		}

		_, err = r.Next()
		require.ErrorIs(rt, err, io.EOF)
	})
}
