// Command quip encodes and decodes the line-delimited read-record format
// (package recfmt) to and from the compressed QUIP container format
// (package container).
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/container"
	"github.com/dcjones-quip/quip/internal"
	"github.com/dcjones-quip/quip/recfmt"
)

// profile is the optional YAML config file loaded via --config: defaults
// a user can pin once instead of repeating on every invocation.
type profile struct {
	LogLevel   string `yaml:"log_level"`
	Version    int    `yaml:"version"`
	AuxVariant string `yaml:"aux_variant"`
}

func loadProfile(path string) (profile, error) {
	var p profile

	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, err
	}

	return p, nil
}

func auxVariantFromName(name string) (container.AuxVariant, error) {
	switch name {
	case "", "none":
		return container.AuxNone, nil
	case "header":
		return container.AuxHeaderText, nil
	case "raw":
		return container.AuxRawBytes, nil
	default:
		return 0, fmt.Errorf("unknown aux variant %q (want none, header or raw)", name)
	}
}

func main() {
	encode := pflag.BoolP("encode", "e", false, "encode a read-record stream into a QUIP container")
	decode := pflag.BoolP("decode", "d", false, "decode a QUIP container into a read-record stream")
	input := pflag.StringP("input", "i", "-", "input path, or - for stdin")
	output := pflag.StringP("output", "o", "-", "output path, or - for stdout")
	version := pflag.Int("version", int(quip.MagicVersion3), "container version to write (2 or 3)")
	auxVariant := pflag.String("aux-variant", "none", "aux payload variant: none, header or raw")
	logLevel := pflag.String("log-level", "info", "log level: debug, info, warn or error")
	configPath := pflag.String("config", "", "optional YAML profile overriding the defaults above")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: quip (-e|-d) [-i input] [-o output]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *configPath != "" {
		p, err := loadProfile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "quip: reading config: %v\n", err)
			os.Exit(1)
		}
		if p.LogLevel != "" {
			*logLevel = p.LogLevel
		}
		if p.Version != 0 {
			*version = p.Version
		}
		if p.AuxVariant != "" {
			*auxVariant = p.AuxVariant
		}
	}

	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quip: %v\n", err)
		os.Exit(1)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: lvl, ReportTimestamp: false})

	if *encode == *decode {
		fmt.Fprintln(os.Stderr, "quip: specify exactly one of --encode or --decode")
		pflag.Usage()
		os.Exit(1)
	}

	variant, err := auxVariantFromName(*auxVariant)
	if err != nil {
		logger.Fatal(err)
	}

	in, err := openInput(*input)
	if err != nil {
		logger.Fatal("opening input", "err", err)
	}
	defer in.Close()

	out, err := openOutput(*output)
	if err != nil {
		logger.Fatal("opening output", "err", err)
	}
	defer out.Close()

	listener := &cliListener{log: logger}

	if *encode {
		err = runEncode(in, out, byte(*version), variant, listener)
	} else {
		err = runDecode(in, out, listener)
	}

	if err != nil {
		logger.Fatal("run failed", "err", err)
	}
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

func openOutput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

// cliListener logs container lifecycle events at a level proportionate to
// their severity: a checksum mismatch is a warning, everything else is
// debug-level progress.
type cliListener struct {
	log *log.Logger
}

func (l *cliListener) ProcessEvent(evt quip.Event) {
	switch evt.Type {
	case quip.EvtChecksumMismatch:
		l.log.Warn("checksum mismatch", "block", evt.BlockID, "substream", evt.Substream)
	case quip.EvtBlockEnd:
		l.log.Debug("block written", "block", evt.BlockID, "reads", evt.Reads, "bases", evt.Bases)
	case quip.EvtContainerEnd:
		l.log.Debug("container finished", "blocks", evt.BlockID)
	}
}

func runEncode(in *os.File, out *os.File, version byte, variant container.AuxVariant, listener *cliListener) error {
	w, err := container.NewWriter(internal.WriterAdapter{W: out}, container.Options{
		Version:    version,
		AuxVariant: variant,
		Listeners:  []quip.Listener{listener},
	})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		r, err := recfmt.DecodeLine(line)
		if err != nil {
			return err
		}

		if err := w.AddRead(*r); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return w.Finish()
}

func runDecode(in *os.File, out *os.File, listener *cliListener) error {
	r, err := container.NewReader(internal.ReaderAdapter{R: in}, container.Options{
		Listeners: []quip.Listener{listener},
	})
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for {
		read, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		if _, err := fmt.Fprintln(writer, recfmt.EncodeLine(read)); err != nil {
			return err
		}
	}

	return nil
}
