package internal

import (
	"io"

	"github.com/dcjones-quip/quip"
)

// WriterAdapter adapts a standard io.Writer into the quip.Writer
// capability: a short write (n != len(p)) becomes a WriterIoError instead
// of a silent partial success, matching the all-or-fail contract every
// sub-stream encoder and the block/container writers depend on.
type WriterAdapter struct {
	W io.Writer
}

func (a WriterAdapter) Write(p []byte) error {
	n, err := a.W.Write(p)

	if err != nil {
		return quip.WrapError(quip.ErrWriterIoError, "write failed", err)
	}
	if n != len(p) {
		return quip.NewError(quip.ErrWriterIoError, "short write: wrote %d of %d bytes", n, len(p))
	}

	return nil
}

// ReaderAdapter adapts a standard io.Reader into the quip.Reader
// capability.
type ReaderAdapter struct {
	R io.Reader
}

func (a ReaderAdapter) Read(p []byte) (int, error) {
	return a.R.Read(p)
}
