// Command quipfmt lists the block structure of a QUIP container without
// decoding any read data: container version, flags, reference table (if
// present) and, per block, its read/base counts and sub-stream frame
// sizes and checksums.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dcjones-quip/quip/container"
	"github.com/dcjones-quip/quip/internal"
)

func main() {
	input := pflag.StringP("input", "i", "-", "QUIP container path, or - for stdin")
	pflag.Parse()

	in, err := openInput(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quipfmt: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	var hdr *container.Header

	hdr, err = container.Inspect(internal.ReaderAdapter{R: in}, func(b container.BlockInfo) {
		fmt.Printf("block %-6d reads %-8d bases %-12d id=%d/%08x aux=%d/%08x seq=%d/%08x qual=%d/%08x\n",
			b.ID, b.Reads, b.Bases,
			b.SubstreamSizes[0], b.SubstreamCRCs[0],
			b.SubstreamSizes[1], b.SubstreamCRCs[1],
			b.SubstreamSizes[2], b.SubstreamCRCs[2],
			b.SubstreamSizes[3], b.SubstreamCRCs[3])
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "quipfmt: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("version %d\n", hdr.Version)

	if hdr.Reference != nil {
		fmt.Printf("reference: %d contigs\n", len(hdr.Reference.Names))
		for i, name := range hdr.Reference.Names {
			fmt.Printf("  %s\t%d\n", name, hdr.Reference.Lengths[i])
		}
	}

	if hdr.Assembled {
		fmt.Printf("assembled: %d contigs\n", hdr.AssemblyN)
	}

	switch hdr.AuxVariant {
	case container.AuxHeaderText:
		fmt.Printf("aux: header text, %d bytes\n", len(hdr.AuxPayload))
	case container.AuxRawBytes:
		fmt.Printf("aux: raw bytes, %d bytes\n", len(hdr.AuxPayload))
	}
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}
