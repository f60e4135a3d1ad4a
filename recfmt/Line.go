// Package recfmt implements the line-delimited read-record format
// cmd/quip's CLI front-end reads and writes. It is deliberately not a
// FASTQ/SAM/BAM reader: those tokenizers are an external collaborator this
// module only talks to through quip.Read. recfmt exists so the CLI has
// something concrete to pipe through the codec without reimplementing any
// of those formats.
package recfmt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dcjones-quip/quip"
)

// EncodeLine renders r as one tab-separated line: id, seq, qual ("-" if
// absent), and a comma-separated list of tag:type:value aux entries.
func EncodeLine(r *quip.Read) string {
	qual := "-"
	if len(r.Qual) > 0 {
		qual = string(r.Qual)
	}

	auxParts := make([]string, len(r.Aux))
	for i, a := range r.Aux {
		auxParts[i] = fmt.Sprintf("%c%c:%c:%s", a.Tag[0], a.Tag[1], a.Type, escapeValue(a.Value))
	}

	return strings.Join([]string{string(r.ID), string(r.Seq), qual, strings.Join(auxParts, ",")}, "\t")
}

// escapeValue percent-encodes separator and control bytes so an aux value
// (which may contain arbitrary bytes, e.g. a SAM 'B' array) survives as
// one line of text.
func escapeValue(v []byte) string {
	var b strings.Builder

	for _, c := range v {
		if c == '\t' || c == '\n' || c == '%' || c == ',' || c == ':' || c < 0x20 {
			fmt.Fprintf(&b, "%%%02X", c)
		} else {
			b.WriteByte(c)
		}
	}

	return b.String()
}

func unescapeValue(s string) ([]byte, error) {
	var b bytes.Buffer

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}

		if i+2 >= len(s) {
			return nil, fmt.Errorf("truncated %%-escape in %q", s)
		}

		n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return nil, err
		}

		b.WriteByte(byte(n))
		i += 2
	}

	return b.Bytes(), nil
}

// DecodeLine parses one line written by EncodeLine back into a Read.
func DecodeLine(line string) (*quip.Read, error) {
	fields := strings.SplitN(line, "\t", 4)
	if len(fields) < 3 {
		return nil, quip.NewError(quip.ErrMalformedHeader, "malformed record line: need id, seq, qual")
	}

	r := &quip.Read{ID: []byte(fields[0]), Seq: []byte(fields[1])}

	if fields[2] != "-" {
		r.Qual = []byte(fields[2])
	}

	if len(fields) == 4 && fields[3] != "" {
		for _, part := range strings.Split(fields[3], ",") {
			tagFields := strings.SplitN(part, ":", 3)
			if len(tagFields) != 3 || len(tagFields[0]) != 2 || len(tagFields[1]) != 1 {
				return nil, quip.NewError(quip.ErrMalformedHeader, "malformed aux field %q", part)
			}

			value, err := unescapeValue(tagFields[2])
			if err != nil {
				return nil, quip.NewError(quip.ErrMalformedHeader, "malformed aux value %q", part)
			}

			r.Aux = append(r.Aux, quip.AuxTag{
				Tag:   [2]byte{tagFields[0][0], tagFields[0][1]},
				Type:  tagFields[1][0],
				Value: value,
			})
		}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}
