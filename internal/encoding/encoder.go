// Package encoding provides UTF-16BE and UTF-16LE text encoders built on the
// bounded encode-into primitive of internal/codec/utf16: one-shot encoding,
// chunked streams and an x/text transformer.
package encoding

import (
	"github.com/rcarmo/go-utf16/internal/codec/utf16"
)

// Options configures an Encoder.
type Options struct {
	// Fatal makes lone surrogates fail encoding instead of being replaced.
	Fatal bool
	// PrependBOM writes a byte order mark before the output unless the text
	// already starts with U+FEFF.
	PrependBOM bool
	// Replacement is the substitute for lone surrogates. It must be a single
	// non-surrogate BMP character; anything else selects U+FFFD.
	Replacement string
}

// Encoder encodes text into one UTF-16 byte order. It is immutable and safe
// for concurrent use.
type Encoder struct {
	order       utf16.ByteOrder
	fatal       bool
	prependBOM  bool
	replacement utf16.Replacement
}

// NewEncoder creates an encoder for order.
func NewEncoder(order utf16.ByteOrder, opts Options) *Encoder {
	return &Encoder{
		order:       order,
		fatal:       opts.Fatal,
		prependBOM:  opts.PrependBOM,
		replacement: utf16.ResolveReplacement(utf16.FromString(opts.Replacement), order),
	}
}

// NewBEEncoder creates a UTF-16BE encoder.
func NewBEEncoder(opts Options) *Encoder {
	return NewEncoder(utf16.BigEndian, opts)
}

// NewLEEncoder creates a UTF-16LE encoder.
func NewLEEncoder(opts Options) *Encoder {
	return NewEncoder(utf16.LittleEndian, opts)
}

// Name returns "UTF-16BE" or "UTF-16LE".
func (e *Encoder) Name() string { return e.order.Label() }

// Encoding returns "utf-16be" or "utf-16le".
func (e *Encoder) Encoding() string { return e.order.Encoding() }

func (e *Encoder) ByteOrder() utf16.ByteOrder { return e.order }

func (e *Encoder) Fatal() bool { return e.fatal }

func (e *Encoder) PrependBOM() bool { return e.prependBOM }

// Replacement returns the resolved substitute code point.
func (e *Encoder) Replacement() rune { return e.replacement.CodePoint }

func (e *Encoder) MaxBytesPerRune() int { return utf16.MaxBytesPerRune }

func (e *Encoder) options() utf16.Options {
	return utf16.Options{
		Order:       e.order,
		Fatal:       e.fatal,
		Replacement: e.replacement.Bytes,
	}
}

// Encode returns src as UTF-16 bytes, with a BOM when enabled.
func (e *Encoder) Encode(src utf16.Text) ([]byte, error) {
	bom := e.needsBOM(src)

	size := utf16.EncodedLen(src, len(e.replacement.Bytes))
	if bom {
		size += len(e.order.BOM())
	}

	out := make([]byte, size)
	off := 0
	if bom {
		off = copy(out, e.order.BOM())
	}

	res, err := utf16.EncodeInto(src, out, off, e.options())
	if err != nil {
		return nil, err
	}

	return out[:off+res.Written], nil
}

// EncodeString encodes s, read as UTF-8 with WTF-8 surrogate sequences.
func (e *Encoder) EncodeString(s string) ([]byte, error) {
	return e.Encode(utf16.FromString(s))
}

// EncodeInto encodes as much of src as fits in dst. No BOM is written.
func (e *Encoder) EncodeInto(src utf16.Text, dst []byte) (utf16.Result, error) {
	return utf16.EncodeInto(src, dst, 0, e.options())
}

func (e *Encoder) needsBOM(src utf16.Text) bool {
	return e.prependBOM && !startsWithBOM(src)
}

func startsWithBOM(src utf16.Text) bool {
	return len(src) > 0 && src[0] == utf16.BOMChar
}
