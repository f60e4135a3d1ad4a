// Package block implements the chunked, block-parallel compressed
// container body: reads are buffered into fixed-size chunks, each chunk is
// fanned out across the four sub-stream encoders concurrently, and a
// self-contained block is flushed once BlockBases worth of sequence has
// accumulated. Blocks themselves are processed one at a time and never
// pipelined, so output order is always exactly the input order.
package block

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/codec"
	"github.com/dcjones-quip/quip/crc64"

	"golang.org/x/sync/errgroup"
)

// Writer accumulates Reads and writes a sequence of compressed blocks
// followed by a zero-read terminator block.
type Writer struct {
	w         quip.Writer
	listeners []quip.Listener
	newSeqEnc func() codec.SeqEncoder

	blockID int

	chunk []quip.Read

	blockReads int
	blockBases int64

	idEnc   *codec.IdEncoder
	seqEnc  codec.SeqEncoder
	qualEnc *codec.QualEncoder
	auxEnc  *codec.AuxEncoder

	idBytes, seqBytes, qualBytes, auxBytes int64
	idHash, seqHash, qualHash, auxHash     *crc64.Hash

	lengths    *rleBuilder
	qualScheme *rleBuilder

	finished bool
}

// NewWriter creates a block writer over w. newSeqEnc selects the seq
// sub-stream implementation used for every block; pass nil to use the
// mandatory plain order-N nucleotide model.
func NewWriter(w quip.Writer, listeners []quip.Listener, newSeqEnc func() codec.SeqEncoder) *Writer {
	if newSeqEnc == nil {
		newSeqEnc = func() codec.SeqEncoder { return codec.NewSeqPlainEncoder() }
	}

	bw := &Writer{w: w, listeners: listeners, newSeqEnc: newSeqEnc}
	bw.startBlock()
	return bw
}

func (bw *Writer) startBlock() {
	bw.idEnc = codec.NewIdEncoder()
	bw.seqEnc = bw.newSeqEnc()
	bw.qualEnc = codec.NewQualEncoder()
	bw.auxEnc = codec.NewAuxEncoder()
	bw.lengths = newRLEBuilder()
	bw.qualScheme = newRLEBuilder()
	bw.idHash = crc64.New()
	bw.seqHash = crc64.New()
	bw.qualHash = crc64.New()
	bw.auxHash = crc64.New()
	bw.idBytes, bw.seqBytes, bw.qualBytes, bw.auxBytes = 0, 0, 0, 0
	bw.blockReads = 0
	bw.blockBases = 0
}

// qualBaseFor picks the offset byte that places every byte of qual inside
// the [base, base+QualScale) coding window, preferring the two standard
// Phred offsets so unrelated reads sharing either scheme collapse into one
// RLE run.
func qualBaseFor(qual []byte) (byte, error) {
	minB, maxB := qual[0], qual[0]

	for _, b := range qual[1:] {
		if b < minB {
			minB = b
		}
		if b > maxB {
			maxB = b
		}
	}

	if int(maxB)-int(minB) >= quip.QualScale {
		return 0, quip.NewError(quip.ErrInvalidQualityRange,
			"quality range %d exceeds window of %d", int(maxB)-int(minB)+1, quip.QualScale)
	}

	switch {
	case minB >= 33 && int(maxB) < 33+quip.QualScale:
		return 33, nil
	case minB >= 64 && int(maxB) < 64+quip.QualScale:
		return 64, nil
	default:
		return minB, nil
	}
}

// AddRead buffers r, triggering a chunk flush (fan out across the four
// encoders) and/or a block flush (frame and write) as thresholds are
// crossed.
func (bw *Writer) AddRead(r quip.Read) error {
	if err := r.Validate(); err != nil {
		return err
	}

	bw.chunk = append(bw.chunk, r)

	if len(bw.chunk) >= quip.CHUNK {
		if err := bw.flushChunk(); err != nil {
			return err
		}
	}

	if bw.blockBases >= quip.BlockBases {
		if err := bw.flushBlock(); err != nil {
			return err
		}
	}

	return nil
}

func (bw *Writer) flushChunk() error {
	if len(bw.chunk) == 0 {
		return nil
	}

	chunk := bw.chunk
	qualBases := make([]byte, len(chunk))

	for i, r := range chunk {
		bw.lengths.push(uint32(len(r.Seq)))
		bw.blockReads++
		bw.blockBases += int64(len(r.Seq))

		if len(r.Qual) == 0 {
			bw.qualScheme.push(0)
			continue
		}

		base, err := qualBaseFor(r.Qual)
		if err != nil {
			return err
		}

		qualBases[i] = base
		bw.qualScheme.push(uint32(base))
	}

	var g errgroup.Group

	g.Go(func() error {
		for _, r := range chunk {
			bw.idEnc.Encode(r.ID)
			bw.idHash.Write(r.ID)
			bw.idBytes += int64(len(r.ID))
		}
		return nil
	})

	g.Go(func() error {
		for _, r := range chunk {
			bw.seqEnc.AddSeq(r.Seq)
			bw.seqHash.Write(r.Seq)
			bw.seqBytes += int64(len(r.Seq))
		}
		return nil
	})

	g.Go(func() error {
		for i, r := range chunk {
			if len(r.Qual) == 0 {
				continue
			}
			bw.qualEnc.SetBase(qualBases[i])
			bw.qualEnc.Encode(r.Qual)
			bw.qualHash.Write(r.Qual)
			bw.qualBytes += int64(len(r.Qual))
		}
		return nil
	})

	g.Go(func() error {
		for _, r := range chunk {
			bw.auxEnc.Encode(r.Aux)
			hashed := auxHashBytes(r.Aux)
			bw.auxHash.Write(hashed)
			bw.auxBytes += int64(len(hashed))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return quip.WrapError(quip.ErrInternalConcurrencyFailure, "chunk encode failed", err)
	}

	bw.chunk = bw.chunk[:0]
	return nil
}

func (bw *Writer) flushBlock() error {
	if err := bw.flushChunk(); err != nil {
		return err
	}

	if bw.blockReads == 0 {
		return nil
	}

	quip.Notify(bw.listeners, quip.NewEvent(quip.EvtBlockStart, bw.blockID))

	idBuf, seqBuf, qualBuf, auxBuf := &memSink{}, &memSink{}, &memSink{}, &memSink{}

	if _, err := bw.idEnc.Finish(); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "id finish", err)
	}
	if err := bw.idEnc.Flush(idBuf); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "id flush", err)
	}

	if _, err := bw.seqEnc.Finish(); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "seq finish", err)
	}
	if err := bw.seqEnc.Flush(seqBuf); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "seq flush", err)
	}

	if _, err := bw.qualEnc.Finish(); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "qual finish", err)
	}
	if err := bw.qualEnc.Flush(qualBuf); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "qual flush", err)
	}

	if _, err := bw.auxEnc.Finish(); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "aux finish", err)
	}
	if err := bw.auxEnc.Flush(auxBuf); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "aux flush", err)
	}

	if err := writeU32(bw.w, uint32(bw.blockReads)); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "reads_in_block", err)
	}
	if err := writeU32(bw.w, uint32(bw.blockBases)); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "bases_in_block", err)
	}
	if err := bw.lengths.writeLengthsTo(bw.w); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "lengths RLE", err)
	}
	if err := bw.qualScheme.writeQualSchemeTo(bw.w); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "qual scheme RLE", err)
	}

	// Fixed wire order: id, aux, seq, qual.
	blobs := []*memSink{idBuf, auxBuf, seqBuf, qualBuf}
	uncompressed := []int64{bw.idBytes, bw.auxBytes, bw.seqBytes, bw.qualBytes}
	crcs := []uint64{bw.idHash.Sum64(), bw.auxHash.Sum64(), bw.seqHash.Sum64(), bw.qualHash.Sum64()}

	// First pass: all four fixed-width headers, then all four compressed
	// payloads, matching the wire layout's two-pass shape.
	for i, blob := range blobs {
		h := substreamHeader{
			Uncompressed: uint32(uncompressed[i]),
			Compressed:   uint32(len(blob.buf)),
			CRC:          crcs[i],
		}
		if err := writeSubstreamHeader(bw.w, h); err != nil {
			return quip.WrapError(quip.ErrWriterIoError, "substream header", err)
		}
	}

	for _, blob := range blobs {
		if err := writeSubstreamPayload(bw.w, blob.buf); err != nil {
			return quip.WrapError(quip.ErrWriterIoError, "substream payload", err)
		}
	}

	evt := quip.NewEvent(quip.EvtBlockEnd, bw.blockID)
	evt.Reads = bw.blockReads
	evt.Bases = bw.blockBases
	quip.Notify(bw.listeners, evt)

	bw.blockID++
	bw.startBlock()
	return nil
}

// Finish flushes any buffered reads as a final block and writes the
// zero-read terminator block that marks the end of the container body.
func (bw *Writer) Finish() error {
	if bw.finished {
		return nil
	}
	bw.finished = true

	if err := bw.flushBlock(); err != nil {
		return err
	}

	if err := writeU32(bw.w, 0); err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "terminator", err)
	}

	quip.Notify(bw.listeners, quip.NewEvent(quip.EvtContainerEnd, bw.blockID))
	return nil
}
