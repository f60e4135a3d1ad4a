package block

import (
	"io"

	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/codec"
	"github.com/dcjones-quip/quip/crc64"

	"golang.org/x/sync/errgroup"
)

// Reader is the symmetric consumer of a Writer's output: it reads one
// block at a time, fans chunk decoding out across the four sub-stream
// decoders, accumulates a running crc64 over each sub-stream's decoded
// bytes, and yields Reads in their original order. Checksums are compared
// against the block header's stored values only once the whole block has
// been decoded; a mismatch is reported to listeners but never fails the
// read, matching a report-do-not-repair failure mode.
type Reader struct {
	r         quip.Reader
	listeners []quip.Listener
	newSeqDec func() codec.SeqDecoder

	blockID    int
	blockReads int
	blockIdx   int

	lengths    *rleReader
	qualScheme *rleReader

	idDec   *codec.IdDecoder
	seqDec  codec.SeqDecoder
	qualDec *codec.QualDecoder
	auxDec  *codec.AuxDecoder

	idHash, seqHash, qualHash, auxHash             *crc64.Hash
	idWantCRC, seqWantCRC, qualWantCRC, auxWantCRC uint64

	pending    []quip.Read
	pendingIdx int

	terminated bool
}

// NewReader creates a block reader over r. newSeqDec must select the same
// seq sub-stream implementation the writer used; pass nil for the plain
// order-N nucleotide model.
func NewReader(r quip.Reader, listeners []quip.Listener, newSeqDec func() codec.SeqDecoder) *Reader {
	if newSeqDec == nil {
		newSeqDec = func() codec.SeqDecoder { return codec.NewSeqPlainDecoder() }
	}
	return &Reader{r: r, listeners: listeners, newSeqDec: newSeqDec}
}

// Next returns the next Read, or io.EOF once the terminator block has been
// consumed.
func (br *Reader) Next() (*quip.Read, error) {
	if br.terminated {
		return nil, io.EOF
	}

	for br.pendingIdx >= len(br.pending) {
		if br.blockReads == 0 || br.blockIdx >= br.blockReads {
			more, err := br.readBlockHeader()
			if err != nil {
				return nil, err
			}
			if !more {
				br.terminated = true
				return nil, io.EOF
			}
		}

		if err := br.decodeChunk(); err != nil {
			return nil, err
		}
	}

	read := br.pending[br.pendingIdx]
	br.pendingIdx++
	return &read, nil
}

func (br *Reader) readBlockHeader() (bool, error) {
	reads, err := readU32(br.r)
	if err != nil {
		return false, err
	}

	if reads == 0 {
		quip.Notify(br.listeners, quip.NewEvent(quip.EvtContainerEnd, br.blockID))
		return false, nil
	}

	if _, err := readU32(br.r); err != nil { // bases_in_block: informational, not required to reproduce
		return false, err
	}

	br.blockReads = int(reads)
	br.blockIdx = 0
	br.pending = nil
	br.pendingIdx = 0

	if br.lengths, err = readLengthRLE(br.r, int(reads)); err != nil {
		return false, err
	}
	if br.qualScheme, err = readQualSchemeRLE(br.r, int(reads)); err != nil {
		return false, err
	}

	// Fixed wire order: id, aux, seq, qual. All four headers precede all
	// four payloads.
	idHdr, err := readSubstreamHeader(br.r)
	if err != nil {
		return false, err
	}
	auxHdr, err := readSubstreamHeader(br.r)
	if err != nil {
		return false, err
	}
	seqHdr, err := readSubstreamHeader(br.r)
	if err != nil {
		return false, err
	}
	qualHdr, err := readSubstreamHeader(br.r)
	if err != nil {
		return false, err
	}

	idData, err := readSubstreamPayload(br.r, idHdr.Compressed)
	if err != nil {
		return false, err
	}
	auxData, err := readSubstreamPayload(br.r, auxHdr.Compressed)
	if err != nil {
		return false, err
	}
	seqData, err := readSubstreamPayload(br.r, seqHdr.Compressed)
	if err != nil {
		return false, err
	}
	qualData, err := readSubstreamPayload(br.r, qualHdr.Compressed)
	if err != nil {
		return false, err
	}

	br.idWantCRC, br.auxWantCRC, br.seqWantCRC, br.qualWantCRC = idHdr.CRC, auxHdr.CRC, seqHdr.CRC, qualHdr.CRC
	br.idHash, br.seqHash, br.qualHash, br.auxHash = crc64.New(), crc64.New(), crc64.New(), crc64.New()

	br.idDec = codec.NewIdDecoder()
	br.seqDec = br.newSeqDec()
	br.qualDec = codec.NewQualDecoder()
	br.auxDec = codec.NewAuxDecoder()

	if err := br.idDec.StartDecoder(idData); err != nil {
		return false, err
	}
	if err := br.seqDec.StartDecoder(seqData); err != nil {
		return false, err
	}
	if err := br.qualDec.StartDecoder(qualData); err != nil {
		return false, err
	}
	if err := br.auxDec.StartDecoder(auxData); err != nil {
		return false, err
	}

	br.idDec.ResetDecoder()
	br.seqDec.ResetDecoder()
	br.qualDec.ResetDecoder()
	br.auxDec.ResetDecoder()

	quip.Notify(br.listeners, quip.NewEvent(quip.EvtBlockStart, br.blockID))
	return true, nil
}

func (br *Reader) decodeChunk() error {
	n := br.blockReads - br.blockIdx
	if n > quip.CHUNK {
		n = quip.CHUNK
	}

	lens := make([]int, n)
	qualBases := make([]byte, n)

	for i := 0; i < n; i++ {
		lens[i] = int(br.lengths.next())
		qualBases[i] = byte(br.qualScheme.next())
	}

	ids := make([][]byte, n)
	seqs := make([][]byte, n)
	quals := make([][]byte, n)
	auxs := make([][]quip.AuxTag, n)

	var g errgroup.Group

	g.Go(func() error {
		for i := 0; i < n; i++ {
			ids[i] = br.idDec.Decode()
			br.idHash.Write(ids[i])
		}
		return nil
	})

	g.Go(func() error {
		for i := 0; i < n; i++ {
			seqs[i] = make([]byte, lens[i])
			br.seqDec.Decode(seqs[i])
			br.seqHash.Write(seqs[i])
		}
		return nil
	})

	g.Go(func() error {
		for i := 0; i < n; i++ {
			if qualBases[i] == 0 {
				continue
			}
			br.qualDec.SetBase(qualBases[i])
			quals[i] = make([]byte, lens[i])
			br.qualDec.Decode(quals[i])
			br.qualHash.Write(quals[i])
		}
		return nil
	})

	g.Go(func() error {
		for i := 0; i < n; i++ {
			auxs[i] = br.auxDec.Decode()
			br.auxHash.Write(auxHashBytes(auxs[i]))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return quip.WrapError(quip.ErrInternalConcurrencyFailure, "chunk decode failed", err)
	}

	pending := make([]quip.Read, n)
	for i := 0; i < n; i++ {
		pending[i] = quip.Read{ID: ids[i], Seq: seqs[i], Qual: quals[i], Aux: auxs[i]}
	}

	br.pending = pending
	br.pendingIdx = 0
	br.blockIdx += n

	if br.blockIdx >= br.blockReads {
		br.checkBlockCRCs()
		br.blockID++
	}

	return nil
}

func (br *Reader) checkBlockCRCs() {
	br.verifySubstream(quip.SubstreamName(0), br.idHash.Sum64(), br.idWantCRC)
	br.verifySubstream(quip.SubstreamName(1), br.auxHash.Sum64(), br.auxWantCRC)
	br.verifySubstream(quip.SubstreamName(2), br.seqHash.Sum64(), br.seqWantCRC)
	br.verifySubstream(quip.SubstreamName(3), br.qualHash.Sum64(), br.qualWantCRC)
}

func (br *Reader) verifySubstream(name string, got, want uint64) {
	if got == want {
		return
	}

	evt := quip.NewEvent(quip.EvtChecksumMismatch, br.blockID)
	evt.Substream = name
	quip.Notify(br.listeners, evt)
}
