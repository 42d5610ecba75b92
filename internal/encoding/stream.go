package encoding

import (
	"fmt"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
)

// DefaultStreamBufferSize is the scratch buffer size used when NewStream is
// given a non-positive size.
const DefaultStreamBufferSize = 4096

// Stream encodes text delivered in chunks. A high surrogate at the end of a
// chunk is held until the next chunk shows whether it starts a pair. Byte
// chunks passed to EncodeBytes may also end inside a UTF-8 sequence; those
// bytes are held the same way.
//
// A Stream is not safe for concurrent use; chunks must be passed in source
// order.
type Stream struct {
	enc     *Encoder
	buf     []byte
	pending uint16
	partial []byte
	started bool
}

// NewStream creates a stream over enc that encodes through a scratch buffer
// of bufSize bytes.
func NewStream(enc *Encoder, bufSize int) *Stream {
	if bufSize <= 0 {
		bufSize = DefaultStreamBufferSize
	}
	if bufSize < utf16.MaxBytesPerRune {
		bufSize = utf16.MaxBytesPerRune
	}

	return &Stream{
		enc: enc,
		buf: make([]byte, bufSize),
	}
}

func (s *Stream) Encoder() *Encoder { return s.enc }

// Pending reports whether a high surrogate or an incomplete byte sequence
// is being held.
func (s *Stream) Pending() bool { return s.pending != 0 || len(s.partial) > 0 }

// EncodeChunk encodes chunk and returns the bytes ready so far. On a fatal
// lone surrogate the bytes encoded before it are returned with the error and
// the stream is reset.
func (s *Stream) EncodeChunk(chunk utf16.Text) ([]byte, error) {
	units := chunk
	if s.pending != 0 {
		units = make(utf16.Text, 0, len(chunk)+1)
		units = append(units, s.pending)
		units = append(units, chunk...)
		s.pending = 0
	}

	if n := len(units); n > 0 && utf16.IsHighSurrogate(units[n-1]) {
		s.pending = units[n-1]
		units = units[:n-1]
	}

	out, err := s.encode(nil, units)
	if err != nil {
		s.Reset()
		return out, err
	}

	return out, nil
}

// EncodeString is EncodeChunk for a UTF-8/WTF-8 chunk.
func (s *Stream) EncodeString(chunk string) ([]byte, error) {
	return s.EncodeChunk(utf16.FromString(chunk))
}

// EncodeBytes is EncodeChunk for a UTF-8/WTF-8 byte chunk. An incomplete
// sequence at the end of p is kept for the next call.
func (s *Stream) EncodeBytes(p []byte) ([]byte, error) {
	if len(s.partial) > 0 {
		p = append(s.partial, p...)
		s.partial = nil
	}

	pos := 0
	for pos < len(p) {
		if !utf16.FullWTF8(p[pos:]) {
			s.partial = append([]byte(nil), p[pos:]...)
			break
		}
		_, _, size := utf16.DecodeWTF8(p[pos:])
		pos += size
	}

	return s.EncodeChunk(utf16.FromBytes(p[:pos]))
}

// Flush ends the stream. A held high surrogate is encoded as lone and held
// incomplete bytes as U+FFFD. If nothing was written yet and the encoder
// prepends a BOM, the BOM alone is returned. The stream is reset afterwards.
func (s *Stream) Flush() ([]byte, error) {
	defer s.Reset()

	var units utf16.Text
	if s.pending != 0 {
		units = append(units, s.pending)
	}
	units = append(units, utf16.FromBytes(s.partial)...)
	if len(units) > 0 {
		return s.encode(nil, units)
	}

	var out []byte
	if !s.started && s.enc.prependBOM {
		out = append(out, s.enc.order.BOM()...)
	}

	return out, nil
}

// Reset discards held input and re-arms the BOM.
func (s *Stream) Reset() {
	s.pending = 0
	s.partial = nil
	s.started = false
}

func (s *Stream) encode(out []byte, units utf16.Text) ([]byte, error) {
	if len(units) == 0 {
		return out, nil
	}

	if !s.started {
		s.started = true
		if s.enc.needsBOM(units) {
			out = append(out, s.enc.order.BOM()...)
		}
	}

	opts := s.enc.options()
	for len(units) > 0 {
		res, err := utf16.EncodeInto(units, s.buf, 0, opts)
		out = append(out, s.buf[:res.Written]...)
		if err != nil {
			return out, err
		}
		if res.Read == 0 {
			return out, fmt.Errorf("%w: %d bytes", ErrBufferTooSmall, len(s.buf))
		}
		units = units[res.Read:]
	}

	return out, nil
}
