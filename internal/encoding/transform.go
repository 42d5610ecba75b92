package encoding

import (
	"io"

	"golang.org/x/text/transform"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
)

// Transformer converts UTF-8 (with WTF-8 surrogate sequences) to UTF-16.
// It implements transform.Transformer; use NewWriter, transform.NewReader or
// transform.String to drive it.
type Transformer struct {
	enc     *Encoder
	bomDone bool

	units utf16.Text
	ends  []int
}

var _ transform.Transformer = (*Transformer)(nil)

// NewTransformer returns a transformer for e. Each transformer carries its
// own state and must not be shared between goroutines.
func (e *Encoder) NewTransformer() *Transformer {
	return &Transformer{enc: e}
}

// NewWriter returns a writer that encodes everything written to it into w.
// Close must be called to flush a trailing high surrogate or partial UTF-8
// sequence; it does not close w.
func NewWriter(w io.Writer, enc *Encoder) *transform.Writer {
	return transform.NewWriter(w, enc.NewTransformer())
}

// NewReader returns a reader yielding the encoding of r.
func NewReader(r io.Reader, enc *Encoder) *transform.Reader {
	return transform.NewReader(r, enc.NewTransformer())
}

func (t *Transformer) Reset() {
	t.bomDone = false
}

func (t *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	short := false
	t.units = t.units[:0]
	t.ends = t.ends[:0]

	for p := 0; p < len(src); {
		if !atEOF && !utf16.FullWTF8(src[p:]) {
			short = true
			break
		}
		units, n, size := utf16.DecodeWTF8(src[p:])
		for i := 0; i < n; i++ {
			t.units = append(t.units, units[i])
			// the first half of a four-byte sequence cannot be consumed alone
			t.ends = append(t.ends, p)
		}
		p += size
		t.ends[len(t.ends)-1] = p
	}

	// a high surrogate at the end may be completed by the next call
	if n := len(t.units); !atEOF && n > 0 && utf16.IsHighSurrogate(t.units[n-1]) {
		t.units = t.units[:n-1]
		t.ends = t.ends[:n-1]
		short = true
	}

	if !t.bomDone && t.enc.prependBOM {
		if len(t.units) == 0 && !atEOF {
			if short {
				return 0, 0, transform.ErrShortSrc
			}
			return 0, 0, nil
		}
		if !startsWithBOM(t.units) {
			bom := t.enc.order.BOM()
			if len(dst) < len(bom) {
				return 0, 0, transform.ErrShortDst
			}
			nDst = copy(dst, bom)
		}
	}
	t.bomDone = true

	res, err := utf16.EncodeInto(t.units, dst, nDst, t.enc.options())
	nDst += res.Written
	if res.Read > 0 {
		nSrc = t.ends[res.Read-1]
	}

	switch {
	case err != nil:
		return nDst, nSrc, err
	case res.Read < len(t.units):
		return nDst, nSrc, transform.ErrShortDst
	case short:
		return nDst, nSrc, transform.ErrShortSrc
	}

	return nDst, nSrc, nil
}
