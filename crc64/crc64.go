// Package crc64 computes the Jones/ECMA-182 reflected CRC64 checksum used
// for the per-substream integrity hashes in every block header: initial
// value 0, no final XOR, reflected input and output. It uses the standard
// library's hash/crc64 ECMA table and undoes that package's built-in
// inversion of the register on entry and exit.
package crc64

import "hash/crc64"

var table = crc64.MakeTable(crc64.ECMA)

// Sum returns the CRC64 of p as a single-shot computation.
func Sum(p []byte) uint64 {
	return ^crc64.Update(^uint64(0), table, p)
}

// Hash is an incremental CRC64 accumulator, one per substream per block,
// reset at each block boundary the same way the block's byte counters are.
type Hash struct {
	crc uint64
}

// New returns a Hash with the initial accumulator at 0.
func New() *Hash {
	return &Hash{}
}

// Write feeds p into the running checksum. Never returns an error.
func (h *Hash) Write(p []byte) (int, error) {
	h.crc = ^crc64.Update(^h.crc, table, p)
	return len(p), nil
}

// Sum64 returns the checksum of all bytes written so far.
func (h *Hash) Sum64() uint64 {
	return h.crc
}

// Reset zeroes the accumulator, ready for the next block.
func (h *Hash) Reset() {
	h.crc = 0
}
