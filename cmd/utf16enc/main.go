// Command utf16enc converts UTF-8 text (WTF-8 surrogate sequences allowed)
// to UTF-16.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
	"github.com/rcarmo/go-utf16/internal/encoding"
	"github.com/rcarmo/go-utf16/internal/logging"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errTerminalOutput = errors.New("refusing to write binary output to a terminal (use --hex or --force)")

// isTerminal reports whether w is a terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type options struct {
	order       string
	fatal       bool
	bom         bool
	replacement string
	hex         bool
	force       bool
	logLevel    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options

	fs := pflag.NewFlagSet("utf16enc", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.order, "order", "o", "be", "byte order: be or le")
	fs.BoolVarP(&opts.fatal, "fatal", "f", false, "fail on lone surrogates instead of replacing them")
	fs.BoolVarP(&opts.bom, "bom", "b", false, "prepend a byte order mark")
	fs.StringVarP(&opts.replacement, "replacement", "r", "", "replacement character for lone surrogates (default U+FFFD)")
	fs.BoolVar(&opts.hex, "hex", false, "write a hex dump instead of raw bytes")
	fs.BoolVar(&opts.force, "force", false, "write raw bytes even to a terminal")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: utf16enc [options] [file...]\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "utf16enc: %v\n", err)
		fs.Usage()
		return exitUsage
	}

	logger := logging.New(stderr, "text", logging.LevelWarn)
	logger.SetLevelFromString(opts.logLevel)

	enc, err := newEncoder(opts)
	if err != nil {
		fmt.Fprintf(stderr, "utf16enc: %v\n", err)
		fs.Usage()
		return exitUsage
	}

	if !opts.hex && !opts.force && isTerminal(stdout) {
		fmt.Fprintf(stderr, "utf16enc: %v\n", errTerminalOutput)
		return exitError
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	if err := encodeInputs(inputs, stdin, stdout, enc, opts.hex, logger); err != nil {
		fmt.Fprintf(stderr, "utf16enc: %v\n", err)
		return exitError
	}

	return exitOK
}

func newEncoder(opts options) (*encoding.Encoder, error) {
	order, err := utf16.ParseByteOrder(opts.order)
	if err != nil {
		return nil, err
	}

	if err := utf16.ValidateReplacement(opts.replacement); err != nil {
		return nil, err
	}

	return encoding.NewEncoder(order, encoding.Options{
		Fatal:       opts.fatal,
		PrependBOM:  opts.bom,
		Replacement: opts.replacement,
	}), nil
}

// encodeInputs writes the encoding of the concatenated inputs to stdout.
// "-" names stdin.
func encodeInputs(inputs []string, stdin io.Reader, stdout io.Writer, enc *encoding.Encoder, dump bool, logger *logging.Logger) (err error) {
	out := stdout
	if dump {
		dumper := hex.Dumper(stdout)
		defer func() {
			if cerr := dumper.Close(); err == nil {
				err = cerr
			}
		}()
		out = dumper
	}

	w := encoding.NewWriter(out, enc)
	for _, name := range inputs {
		n, err := copyInput(w, name, stdin)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.Debug("read %d bytes from %s", n, name)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	logger.Info("encoded %d input(s) as %s", len(inputs), enc.Name())
	return nil
}

func copyInput(w io.Writer, name string, stdin io.Reader) (int64, error) {
	if name == "-" {
		return io.Copy(w, stdin)
	}

	f, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(w, f)
}
