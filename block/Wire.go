package block

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/dcjones-quip/quip"
)

func readByte(r quip.Reader) (byte, error) {
	var buf [1]byte
	n, err := r.Read(buf[:])

	if n == 1 {
		return buf[0], nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	return 0, quip.NewError(quip.ErrUnexpectedEndOfFile, "short read")
}

func readFull(r quip.Reader, buf []byte) error {
	got := 0

	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n

		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return quip.NewError(quip.ErrUnexpectedEndOfFile, "short read")
		}
	}

	return nil
}

// writeU32 writes a big-endian 4-byte field, the width used throughout the
// block header for counts and run lengths.
func writeU32(w quip.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return w.Write(buf[:])
}

func readU32(r quip.Reader) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// writeU64 writes a big-endian 8-byte field, used for the per-sub-stream
// crc64 values.
func writeU64(w quip.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return w.Write(buf[:])
}

func readU64(r quip.Reader) (uint64, error) {
	var buf [8]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// memSink is an in-memory quip.Writer used to capture a sub-stream
// encoder's compressed bytes before its size/checksum are known and it can
// be framed onto the real output.
type memSink struct {
	buf []byte
}

func (m *memSink) Write(p []byte) error {
	m.buf = append(m.buf, p...)
	return nil
}

// substreamHeader is one sub-stream's fixed-width header entry: the byte
// count fed to the codec's Encode calls, the compressed byte count, and the
// crc64 of the uncompressed bytes. A block writes all four headers
// (id, aux, seq, qual) before any sub-stream's compressed payload.
type substreamHeader struct {
	Uncompressed uint32
	Compressed   uint32
	CRC          uint64
}

func writeSubstreamHeader(w quip.Writer, h substreamHeader) error {
	if err := writeU32(w, h.Uncompressed); err != nil {
		return err
	}
	if err := writeU32(w, h.Compressed); err != nil {
		return err
	}
	return writeU64(w, h.CRC)
}

func readSubstreamHeader(r quip.Reader) (substreamHeader, error) {
	var h substreamHeader

	uncompressed, err := readU32(r)
	if err != nil {
		return h, err
	}
	compressed, err := readU32(r)
	if err != nil {
		return h, err
	}
	crc, err := readU64(r)
	if err != nil {
		return h, err
	}

	h.Uncompressed = uncompressed
	h.Compressed = compressed
	h.CRC = crc
	return h, nil
}

// writeSubstreamPayload writes a sub-stream's compressed bytes verbatim;
// its length was already recorded in its substreamHeader.
func writeSubstreamPayload(w quip.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return w.Write(data)
}

func readSubstreamPayload(r quip.Reader, compressed uint32) ([]byte, error) {
	data := make([]byte, compressed)
	if compressed > 0 {
		if err := readFull(r, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}
