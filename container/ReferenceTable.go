package container

import (
	"encoding/binary"

	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/crc64"
)

// ReferenceTable names the reference sequences a REFERENCE-flagged
// container's seq sub-stream was coded against (one name/length pair per
// contig, mirroring a SAM header's @SQ lines). It is carried in the
// container header so a decoder can fail fast with ErrMissingReference or
// ErrWrongReference before it has spent any work decoding blocks.
type ReferenceTable struct {
	Names   []string
	Lengths []uint64
}

// checksum is a deterministic CRC64 over the table contents, used to
// detect a decoder being pointed at the wrong reference.
func (rt *ReferenceTable) checksum() uint64 {
	h := crc64.New()

	for i, name := range rt.Names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], rt.Lengths[i])
		h.Write(lenBuf[:])
	}

	return h.Sum64()
}

func (rt *ReferenceTable) writeTo(w quip.Writer) error {
	if err := writeUvarint(w, uint64(len(rt.Names))); err != nil {
		return err
	}

	for i, name := range rt.Names {
		if err := writeStringField(w, name); err != nil {
			return err
		}
		if err := writeUvarint(w, rt.Lengths[i]); err != nil {
			return err
		}
	}

	var crcBuf [8]byte
	binary.LittleEndian.PutUint64(crcBuf[:], rt.checksum())

	return w.Write(crcBuf[:])
}

func readReferenceTable(r quip.Reader) (*ReferenceTable, error) {
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}

	rt := &ReferenceTable{Names: make([]string, n), Lengths: make([]uint64, n)}

	for i := uint64(0); i < n; i++ {
		name, err := readStringField(r)
		if err != nil {
			return nil, err
		}
		length, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		rt.Names[i] = name
		rt.Lengths[i] = length
	}

	var crcBuf [8]byte
	if err := readFull(r, crcBuf[:]); err != nil {
		return nil, err
	}

	storedCRC := binary.LittleEndian.Uint64(crcBuf[:])

	if storedCRC != rt.checksum() {
		return nil, quip.NewError(quip.ErrWrongReference, "reference table checksum mismatch")
	}

	return rt, nil
}

// Equal reports whether rt names the same contigs, in the same order, with
// the same lengths, as other.
func (rt *ReferenceTable) Equal(other *ReferenceTable) bool {
	if other == nil || len(rt.Names) != len(other.Names) {
		return false
	}

	for i := range rt.Names {
		if rt.Names[i] != other.Names[i] || rt.Lengths[i] != other.Lengths[i] {
			return false
		}
	}

	return true
}
