package container

import (
	"encoding/binary"

	"github.com/dcjones-quip/quip"
)

// BlockInfo summarizes one block's header fields and sub-stream frame
// sizes without invoking any of the four sub-stream decoders.
type BlockInfo struct {
	ID             int
	Reads          int
	Bases          int64
	SubstreamSizes [4]int
	SubstreamCRCs  [4]uint64
}

// Inspect walks a container's header and every block header, in order,
// reporting each via fn. It never constructs a sub-stream decoder: it reads
// the block headers and RLE pairs and skips each compressed payload by its
// byte count, with no per-read decoding work.
func Inspect(r quip.Reader, fn func(BlockInfo)) (*Header, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	blockID := 0

	for {
		reads, err := readU32Inspect(r)
		if err != nil {
			return nil, err
		}

		if reads == 0 {
			return hdr, nil
		}

		bases, err := readU32Inspect(r)
		if err != nil {
			return nil, err
		}

		if err := skipRLEForInspect(r, int(reads), true); err != nil { // read-length RLE
			return nil, err
		}
		if err := skipRLEForInspect(r, int(reads), false); err != nil { // quality-scheme RLE
			return nil, err
		}

		info := BlockInfo{ID: blockID, Reads: int(reads), Bases: int64(bases)}

		var sizes [4]uint32
		for i := 0; i < 4; i++ {
			size, crc, err := readSubstreamHeaderSkip(r)
			if err != nil {
				return nil, err
			}
			sizes[i] = size
			info.SubstreamCRCs[i] = crc
		}
		for i := 0; i < 4; i++ {
			if err := discard(r, sizes[i]); err != nil {
				return nil, err
			}
			info.SubstreamSizes[i] = int(sizes[i])
		}

		fn(info)
		blockID++
	}
}

func readU32Inspect(r quip.Reader) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// skipRLEForInspect reads and discards a run-length-encoded side channel
// until the summed run counts equal reads. lengthField selects the field
// width of the value: 4 bytes (read-length RLE) or 1 byte (quality-scheme
// RLE); the run_count field is always 4 bytes.
func skipRLEForInspect(r quip.Reader, reads int, lengthField bool) error {
	total := 0

	for total < reads {
		if lengthField {
			if _, err := readU32Inspect(r); err != nil {
				return err
			}
		} else {
			if _, err := readByte(r); err != nil {
				return err
			}
		}

		c, err := readU32Inspect(r)
		if err != nil {
			return err
		}
		total += int(c)
	}

	return nil
}

// readSubstreamHeaderSkip reads one sub-stream's fixed-width header
// ([4 bytes uncompressed][4 bytes compressed][8 bytes crc64]) and returns
// the compressed size (needed to know how many payload bytes to skip
// afterward) and the stored crc64.
func readSubstreamHeaderSkip(r quip.Reader) (compressed uint32, crc uint64, err error) {
	if _, err = readU32Inspect(r); err != nil { // uncompressed_size, unused here
		return 0, 0, err
	}
	if compressed, err = readU32Inspect(r); err != nil {
		return 0, 0, err
	}

	var crcBuf [8]byte
	if err = readFull(r, crcBuf[:]); err != nil {
		return 0, 0, err
	}
	crc = binary.BigEndian.Uint64(crcBuf[:])

	return compressed, crc, nil
}

func discard(r quip.Reader, n uint32) error {
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	return readFull(r, buf)
}
