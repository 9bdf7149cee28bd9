package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/jacoelho/exi"
	exierrors "github.com/jacoelho/exi/errors"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [glog flags] <encode|decode|grammars> [options] [file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	code := runWithArgs(flag.Args(), os.Stdout, os.Stderr)
	glog.Flush()
	os.Exit(code)
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_ = writeln(stderr, "error: a command is required (encode, decode, grammars)")
		return 2
	}
	command, args := args[0], args[1:]
	switch command {
	case "encode", "decode", "grammars":
	default:
		_ = writef(stderr, "error: unknown command %q\n", command)
		return 2
	}

	fs := flag.NewFlagSet("exi "+command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var schemas stringList
	fs.Var(&schemas, "schema", "path to XSD schema file (repeatable)")
	strict := fs.Bool("strict", false, "compile without fallback productions")
	noHeader := fs.Bool("no-header", false, "omit the stream header byte")
	valueMaxLength := fs.Int("value-max-length", exi.Unbounded, "longest value added to the value tables (-1 unbounded)")
	valueCapacity := fs.Int("value-capacity", exi.Unbounded, "global value table capacity (-1 unbounded)")
	output := fs.String("o", "", "write output to file instead of stdout")
	raw := fs.Bool("raw", false, "write binary streams even when stdout is a terminal")
	cpuProfilePath := fs.String("cpuprofile", "", "write CPU profile to file")
	memProfilePath := fs.String("memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: exi %s --schema <schema.xsd> [options] %s\n\n", command, operand(command)),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if len(schemas) == 0 {
		if err := writeln(stderr, "error: --schema is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}
	remaining := fs.Args()
	want := 1
	if command == "grammars" {
		want = 0
	}
	if len(remaining) != want {
		if err := writef(stderr, "error: %s takes %d file argument(s)\n", command, want); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	if *cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(*cpuProfilePath)
		if err != nil {
			_ = writef(stderr, "error starting CPU profile: %v\n", err)
			return 1
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}
	if *memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(*memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	opts := exi.NewOptions().
		WithStrict(*strict).
		WithHeader(!*noHeader).
		WithValueMaxLength(*valueMaxLength).
		WithValuePartitionCapacity(*valueCapacity)
	schema, err := exi.LoadFile(opts, schemas...)
	if err != nil {
		return report(stderr, "error loading schema", err)
	}
	glog.V(1).Infof("compiled %d schema document(s)", len(schemas))

	out := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return report(stderr, "error creating output", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				_ = writef(stderr, "error closing %s: %v\n", *output, err)
			}
		}()
		out = f
	}

	switch command {
	case "grammars":
		if err := schema.DumpGrammars(out); err != nil {
			return report(stderr, "error dumping grammars", err)
		}
	case "encode":
		f, err := os.Open(remaining[0])
		if err != nil {
			return report(stderr, "error opening document", err)
		}
		data, err := schema.EncodeXML(f)
		closeErr := f.Close()
		if err != nil {
			return report(stderr, "error encoding "+remaining[0], err)
		}
		if closeErr != nil {
			return report(stderr, "error closing document", closeErr)
		}
		glog.V(1).Infof("encoded %s into %d bytes", remaining[0], len(data))
		if !*raw && isTerminal(out) {
			_, err = io.WriteString(out, hex.Dump(data))
		} else {
			_, err = out.Write(data)
		}
		if err != nil {
			return report(stderr, "error writing stream", err)
		}
	case "decode":
		data, err := os.ReadFile(remaining[0])
		if err != nil {
			return report(stderr, "error reading stream", err)
		}
		var buf bytes.Buffer
		if err := schema.DecodeXML(data, &buf); err != nil {
			return report(stderr, "error decoding "+remaining[0], err)
		}
		buf.WriteByte('\n')
		if _, err := buf.WriteTo(out); err != nil {
			return report(stderr, "error writing document", err)
		}
	}
	return 0
}

func operand(command string) string {
	switch command {
	case "encode":
		return "<document.xml>"
	case "decode":
		return "<stream.exi>"
	}
	return ""
}

func report(w io.Writer, prefix string, err error) int {
	if list, ok := exierrors.As(err); ok {
		for _, e := range list {
			if writeErr := writeln(w, e.Error()); writeErr != nil {
				return 1
			}
		}
		_ = writef(w, "%s\n", prefix)
		return 1
	}
	_ = writef(w, "%s: %v\n", prefix, err)
	return 1
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}
