// Package container implements the on-disk/on-wire "QUIP" format: a fixed
// magic and version, a flags byte selecting the optional REFERENCE and
// ASSEMBLED sections, an aux side-channel payload, an optional reference
// table, and the block stream itself (package block).
package container

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/block"
	"github.com/dcjones-quip/quip/codec"
)

// AuxVariant selects what, if anything, accompanies the container as
// free-form auxiliary metadata (e.g. a verbatim SAM header).
type AuxVariant byte

const (
	// AuxNone carries no auxiliary payload.
	AuxNone AuxVariant = 0
	// AuxHeaderText carries a verbatim textual header (e.g. a SAM @-header).
	AuxHeaderText AuxVariant = 1
	// AuxRawBytes carries an opaque byte payload with no assumed encoding.
	AuxRawBytes AuxVariant = 2
)

// Options configures a container Writer or Reader.
type Options struct {
	// Version is MagicVersion2 or MagicVersion3. Defaults to MagicVersion3
	// when zero. Version 1 (pre-dating the block/chunk container layout
	// this module implements) is never accepted.
	Version byte

	// Reference, when non-nil, marks this a REFERENCE container: on
	// encode its contents are written into the header; on decode it is
	// the expected reference, checked against the one embedded in the
	// stream.
	Reference *ReferenceTable

	// Assembled marks this an ASSEMBLED container and carries the contig
	// count the seq sub-stream's assembled implementation produced.
	Assembled bool
	AssemblyN uint64

	AuxVariant AuxVariant
	AuxPayload []byte

	// SeqEncoderFactory/SeqDecoderFactory select the seq sub-stream
	// implementation. Leave nil for the mandatory plain order-N
	// nucleotide model; a REFERENCE or ASSEMBLED container must supply
	// matching encoder and decoder factories built against Reference.
	SeqEncoderFactory func() codec.SeqEncoder
	SeqDecoderFactory func() codec.SeqDecoder

	Listeners []quip.Listener
}

func (o *Options) version() byte {
	if o.Version == 0 {
		return quip.MagicVersion3
	}
	return o.Version
}

func validateVersion(v byte) error {
	if v != quip.MagicVersion2 && v != quip.MagicVersion3 {
		return quip.NewError(quip.ErrMalformedHeader, "unsupported container version %d", v)
	}
	return nil
}

// Writer encodes a full container: header, then a stream of Reads.
type Writer struct {
	w  quip.Writer
	bw *block.Writer
}

// NewWriter writes the container header to w and returns a Writer ready to
// accept Reads.
func NewWriter(w quip.Writer, opts Options) (*Writer, error) {
	version := opts.version()
	if err := validateVersion(version); err != nil {
		return nil, err
	}

	if err := w.Write(quip.Magic[:]); err != nil {
		return nil, quip.WrapError(quip.ErrWriterIoError, "magic", err)
	}
	if err := w.Write([]byte{version}); err != nil {
		return nil, quip.WrapError(quip.ErrWriterIoError, "version", err)
	}

	flags := byte(0)
	if opts.Reference != nil {
		flags |= quip.FlagReference
	}
	if opts.Assembled {
		flags |= quip.FlagAssembled
	}

	if err := w.Write([]byte{flags}); err != nil {
		return nil, quip.WrapError(quip.ErrWriterIoError, "flags", err)
	}

	if opts.Reference != nil {
		if err := opts.Reference.writeTo(w); err != nil {
			return nil, quip.WrapError(quip.ErrWriterIoError, "reference table", err)
		}
	}

	if opts.Assembled {
		if err := writeUvarint(w, opts.AssemblyN); err != nil {
			return nil, quip.WrapError(quip.ErrWriterIoError, "assembly_n", err)
		}
	}

	if err := w.Write([]byte{byte(opts.AuxVariant)}); err != nil {
		return nil, quip.WrapError(quip.ErrWriterIoError, "aux variant", err)
	}
	if opts.AuxVariant != AuxNone {
		if err := writeBytesField(w, opts.AuxPayload); err != nil {
			return nil, quip.WrapError(quip.ErrWriterIoError, "aux payload", err)
		}
	}

	bw := block.NewWriter(w, opts.Listeners, opts.SeqEncoderFactory)
	return &Writer{w: w, bw: bw}, nil
}

// AddRead buffers r for compression.
func (cw *Writer) AddRead(r quip.Read) error {
	return cw.bw.AddRead(r)
}

// Finish flushes any buffered reads and writes the container terminator.
func (cw *Writer) Finish() error {
	return cw.bw.Finish()
}

// Header is the container header, decoded independently of the block body
// so list/inspect tooling can report it without running any sub-stream
// decoder.
type Header struct {
	Version    byte
	Reference  *ReferenceTable
	Assembled  bool
	AssemblyN  uint64
	AuxVariant AuxVariant
	AuxPayload []byte
}

// ReadHeader reads and validates the fixed-size magic, version and flags
// prefix plus the variable-length aux/reference/assembly sections.
func ReadHeader(r quip.Reader) (*Header, error) {
	var magic [6]byte
	if err := readFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != quip.Magic {
		return nil, quip.NewError(quip.ErrMalformedHeader, "bad magic")
	}

	version, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if err := validateVersion(version); err != nil {
		return nil, err
	}

	flags, err := readByte(r)
	if err != nil {
		return nil, err
	}

	hdr := &Header{Version: version}

	if flags&quip.FlagReference != 0 {
		rt, err := readReferenceTable(r)
		if err != nil {
			return nil, err
		}
		hdr.Reference = rt
	}

	if flags&quip.FlagAssembled != 0 {
		hdr.Assembled = true
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		hdr.AssemblyN = n
	}

	variantByte, err := readByte(r)
	if err != nil {
		return nil, err
	}
	variant := AuxVariant(variantByte)
	hdr.AuxVariant = variant

	if variant != AuxNone {
		payload, err := readBytesField(r)
		if err != nil {
			return nil, err
		}
		hdr.AuxPayload = payload
	}

	return hdr, nil
}

// Reader decodes a full container: header, then a stream of Reads.
type Reader struct {
	br *block.Reader
	Header
}

// NewReader reads the container header from r, validates it against opts,
// and returns a Reader ready to yield Reads.
func NewReader(r quip.Reader, opts Options) (*Reader, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	if hdr.Reference != nil {
		if opts.Reference == nil {
			return nil, quip.NewError(quip.ErrMissingReference,
				"container requires a reference but none was supplied")
		}
		if !hdr.Reference.Equal(opts.Reference) {
			return nil, quip.NewError(quip.ErrWrongReference,
				"supplied reference does not match the container's reference table")
		}
	} else if opts.Reference != nil {
		return nil, quip.NewError(quip.ErrWrongReference,
			"a reference was supplied but the container is not a REFERENCE container")
	}

	br := block.NewReader(r, opts.Listeners, opts.SeqDecoderFactory)
	return &Reader{br: br, Header: *hdr}, nil
}

// Next returns the next Read, or io.EOF once the container is exhausted.
func (cr *Reader) Next() (*quip.Read, error) {
	return cr.br.Next()
}
