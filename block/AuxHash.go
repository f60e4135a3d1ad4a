package block

import (
	"encoding/binary"

	"github.com/dcjones-quip/quip"
)

// auxHashBytes renders one read's aux tags in a simple, deterministic byte
// form for the aux sub-stream's running checksum. The checksum covers the
// logical record content fed to/produced by AuxCodec, not AuxCodec's
// internal compressed representation, so the same rendering is used on
// both the encode and decode side.
func auxHashBytes(aux []quip.AuxTag) []byte {
	if len(aux) == 0 {
		return nil
	}

	var buf []byte
	var lenBuf [4]byte

	for _, a := range aux {
		buf = append(buf, a.Tag[0], a.Tag[1], a.Type)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(a.Value)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, a.Value...)
	}

	return buf
}
