package codec

import "github.com/dcjones-quip/quip"

// bufWriter is the in-memory sink every sub-stream encoder's arithmetic
// coder writes through. Encode/Finish only ever touch this buffer; Flush is
// the one call that drains it to the real outer writer, matching the block
// writer's two-phase finish-then-flush protocol.
type bufWriter struct {
	buf []byte
}

func (w *bufWriter) Write(p []byte) error {
	w.buf = append(w.buf, p...)
	return nil
}

func (w *bufWriter) len() int {
	return len(w.buf)
}

// bufReader is the in-memory source every sub-stream decoder's arithmetic
// coder reads through, pre-filled by the block reader with exactly the
// compressed byte count for that sub-stream before StartDecoder is called.
type bufReader struct {
	data []byte
	pos  int
}

func (r *bufReader) Read(p []byte) (int, error) {
	n := copy(p, r.data[r.pos:])
	r.pos += n

	if n == 0 {
		return 0, quip.NewError(quip.ErrUnexpectedEndOfFile, "substream buffer exhausted")
	}

	return n, nil
}

func (r *bufReader) reset(data []byte) {
	r.data = data
	r.pos = 0
}
