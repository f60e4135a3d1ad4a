package block

import "github.com/dcjones-quip/quip"

// rleBuilder accumulates a run-length-encoded side channel: read lengths
// and the active quality scheme base both tend to repeat across many
// consecutive reads, so a (value, run) pair per distinct run is far
// cheaper than one value per read. The wire form carries no leading count
// field; a reader accumulates pairs until the summed run lengths reach the
// block's read count.
type rleBuilder struct {
	values []uint32
	runs   []uint32
}

func newRLEBuilder() *rleBuilder {
	return &rleBuilder{}
}

func (b *rleBuilder) push(v uint32) {
	if n := len(b.values); n > 0 && b.values[n-1] == v {
		b.runs[n-1]++
		return
	}

	b.values = append(b.values, v)
	b.runs = append(b.runs, 1)
}

// writeLengthsTo writes the read-length RLE: repeated [4 bytes value][4
// bytes run_count] pairs.
func (b *rleBuilder) writeLengthsTo(w quip.Writer) error {
	for i := range b.values {
		if err := writeU32(w, b.values[i]); err != nil {
			return err
		}
		if err := writeU32(w, b.runs[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeQualSchemeTo writes the quality-scheme RLE: repeated [1 byte
// base_quality][4 bytes run_count] pairs.
func (b *rleBuilder) writeQualSchemeTo(w quip.Writer) error {
	for i := range b.values {
		if err := w.Write([]byte{byte(b.values[i])}); err != nil {
			return err
		}
		if err := writeU32(w, b.runs[i]); err != nil {
			return err
		}
	}
	return nil
}

// rleReader pops values one at a time from a wire-encoded run list.
type rleReader struct {
	values []uint32
	runs   []uint32
	idx    int
	left   uint32
}

// readLengthRLE reads read-length RLE pairs until the summed run counts
// equal reads.
func readLengthRLE(r quip.Reader, reads int) (*rleReader, error) {
	rr := &rleReader{}
	total := 0

	for total < reads {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		c, err := readU32(r)
		if err != nil {
			return nil, err
		}
		rr.values = append(rr.values, v)
		rr.runs = append(rr.runs, c)
		total += int(c)
	}

	if len(rr.values) > 0 {
		rr.left = rr.runs[0]
	}

	return rr, nil
}

// readQualSchemeRLE reads quality-scheme RLE pairs until the summed run
// counts equal reads.
func readQualSchemeRLE(r quip.Reader, reads int) (*rleReader, error) {
	rr := &rleReader{}
	total := 0

	for total < reads {
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		c, err := readU32(r)
		if err != nil {
			return nil, err
		}
		rr.values = append(rr.values, uint32(b))
		rr.runs = append(rr.runs, c)
		total += int(c)
	}

	if len(rr.values) > 0 {
		rr.left = rr.runs[0]
	}

	return rr, nil
}

func (rr *rleReader) next() uint32 {
	for rr.left == 0 && rr.idx < len(rr.values)-1 {
		rr.idx++
		rr.left = rr.runs[rr.idx]
	}

	v := rr.values[rr.idx]
	rr.left--
	return v
}
