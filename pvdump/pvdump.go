// Command pvdump loads a structure descriptor and prints it, or a container built from it,
// as text, JSON or a wire frame.
//
// Usage:
//
//	pvdump [flags] <file>
//	pvdump [flags] -nt scalar -type double -props alarm,timeStamp
//
// The file is a text descriptor, or a wire frame when -in=wire. -values fills the container
// from a JSON object before it is printed. -query runs a jq program over the JSON output
// and prints each result on its own line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	osfs "github.com/gopherfs/fs/io/os"
	"github.com/pkg/errors"

	"github.com/epics-base/pvdata/internal/conversions"
	"github.com/epics-base/pvdata/languages/go/compress"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/pvjson"
	"github.com/epics-base/pvdata/languages/go/pvtext"
	"github.com/epics-base/pvdata/languages/go/standard"
	"github.com/epics-base/pvdata/languages/go/structs"
	"github.com/epics-base/pvdata/languages/go/wire"
)

func main() {
	ctx := context.Background()

	fsys, err := osfs.New()
	if err != nil {
		exitf("can't access OS: %s", err)
	}
	if err := run(ctx, fsys, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		exitf("pvdump: %s", err)
	}
}

func exitf(s string, i ...any) {
	fmt.Fprintf(os.Stderr, s+"\n", i...)
	os.Exit(1)
}

type config struct {
	in        string
	format    string
	values    string
	compress  compress.Type
	bigEndian bool
	indent    string
	nt        string
	typ       string
	props     string
	query     string
	path      string
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	var ct string

	fl := flag.NewFlagSet("pvdump", flag.ContinueOnError)
	fl.SetOutput(stderr)
	fl.StringVar(&cfg.in, "in", "text", "input file format: text or wire")
	fl.StringVar(&cfg.format, "format", "text", "output: descriptor, text, json or wire")
	fl.StringVar(&cfg.values, "values", "", "JSON file to fill the container from")
	fl.StringVar(&ct, "compress", "none", "wire output compression: none, gzip, snappy or zstd")
	fl.BoolVar(&cfg.bigEndian, "big-endian", false, "write wire output big endian")
	fl.StringVar(&cfg.indent, "indent", "", "indent JSON output with this string")
	fl.StringVar(&cfg.nt, "nt", "", "build a normative type instead of reading a file: scalar, scalarArray or enum")
	fl.StringVar(&cfg.typ, "type", "double", "value type for -nt scalar and scalarArray")
	fl.StringVar(&cfg.props, "props", "", "comma separated properties for -nt: alarm, timeStamp, display, control")
	fl.StringVar(&cfg.query, "query", "", "jq program to run over -format json output")
	if err := fl.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.compress, err = compress.ParseType(ct); err != nil {
		return cfg, err
	}
	switch cfg.in {
	case "text", "wire":
	default:
		return cfg, errors.Errorf("-in must be text or wire, not %q", cfg.in)
	}
	switch cfg.format {
	case "descriptor", "text", "json", "wire":
	default:
		return cfg, errors.Errorf("-format must be descriptor, text, json or wire, not %q", cfg.format)
	}

	if cfg.query != "" && cfg.format != "json" {
		return cfg, errors.New("-query needs -format json")
	}

	switch {
	case cfg.nt != "" && fl.NArg() != 0:
		return cfg, errors.New("give either -nt or a file, not both")
	case cfg.nt == "" && fl.NArg() != 1:
		return cfg, errors.New("expected exactly one file argument")
	case fl.NArg() == 1:
		cfg.path = fl.Arg(0)
	}
	return cfg, nil
}

// run is main without the exits, so it can be tested against an in memory filesystem.
func run(ctx context.Context, fsys fs.ReadFileFS, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	s, err := load(ctx, fsys, cfg)
	if err != nil {
		return err
	}
	defer s.Destroy()

	if cfg.values != "" {
		b, err := fsys.ReadFile(cfg.values)
		if err != nil {
			return errors.Wrapf(err, "reading values %q", cfg.values)
		}
		if err := pvjson.Unmarshal(ctx, b, s); err != nil {
			return errors.Wrapf(err, "values %q", cfg.values)
		}
	}

	switch cfg.format {
	case "descriptor":
		err = pvtext.WriteDescriptor(ctx, stdout, s.Map())
	case "text":
		err = pvtext.WriteValue(ctx, stdout, s)
	case "json":
		if cfg.query != "" {
			var doc []byte
			if doc, err = pvjson.Marshal(ctx, s); err == nil {
				err = query(stdout, cfg.query, doc)
			}
			break
		}
		var opts []pvjson.MarshalOption
		if cfg.indent != "" {
			opts = append(opts, pvjson.WithIndent(cfg.indent))
		}
		err = pvjson.MarshalWriter(ctx, s, stdout, opts...)
	case "wire":
		order := wire.LittleEndian
		if cfg.bigEndian {
			order = wire.BigEndian
		}
		var frame []byte
		frame, err = wire.Marshal(ctx, s, wire.WithCompression(cfg.compress), wire.WithByteOrder(order))
		if err == nil {
			_, err = stdout.Write(frame)
		}
	}
	return errors.Wrap(err, "writing "+cfg.format)
}

// load returns a new container for the descriptor named by cfg.
func load(ctx context.Context, fsys fs.ReadFileFS, cfg config) (*structs.Struct, error) {
	if cfg.nt != "" {
		m, err := normative(cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "-nt %s", cfg.nt)
		}
		return structs.New(m)
	}

	b, err := fsys.ReadFile(cfg.path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", cfg.path)
	}
	if cfg.in == "wire" {
		s, err := wire.Unmarshal(ctx, b)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %q", cfg.path)
		}
		return s, nil
	}
	m, err := pvtext.ParseDescriptor(ctx, conversions.ByteSlice2String(b))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", cfg.path)
	}
	return structs.New(m)
}

func normative(cfg config) (*mapping.Map, error) {
	switch cfg.nt {
	case "enum":
		return standard.Enum(cfg.props)
	case "scalar", "scalarArray":
		t, err := field.ParseScalarType(cfg.typ)
		if err != nil {
			return nil, err
		}
		if cfg.nt == "scalar" {
			return standard.Scalar(t, cfg.props)
		}
		return standard.ScalarArray(t, cfg.props)
	}
	return nil, errors.Errorf("unknown normative type %q", cfg.nt)
}
