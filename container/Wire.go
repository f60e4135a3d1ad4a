package container

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/dcjones-quip/quip"
)

func writeUvarint(w quip.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return w.Write(buf[:n])
}

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

func readUvarint(r quip.Reader) (uint64, error) {
	var x uint64
	var s uint

	for i := 0; i < binary.MaxVarintLen64; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}

		if b < 0x80 {
			return x | uint64(b)<<s, nil
		}

		x |= uint64(b&0x7f) << s
		s += 7
	}

	return 0, quip.NewError(quip.ErrMalformedHeader, "varint too long")
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

func writeBytesField(w quip.Writer, p []byte) error {
	if err := writeUvarint(w, uint64(len(p))); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return w.Write(p)
}

func readBytesField(r quip.Reader) ([]byte, error) {
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}

	p := make([]byte, n)
	if n > 0 {
		if err := readFull(r, p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func writeStringField(w quip.Writer, s string) error {
	return writeBytesField(w, []byte(s))
}

func readStringField(r quip.Reader) (string, error) {
	p, err := readBytesField(r)
	if err != nil {
		return "", err
	}
	return string(p), nil
}
