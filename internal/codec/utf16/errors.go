package utf16

import (
	"errors"
	"fmt"
)

var (
	// ErrLoneSurrogate matches every *LoneSurrogateError through errors.Is.
	ErrLoneSurrogate = errors.New("lone surrogate")
	// ErrUnknownByteOrder is returned by ParseByteOrder.
	ErrUnknownByteOrder = errors.New("unknown byte order")
	// ErrInvalidReplacement is returned by ValidateReplacement.
	ErrInvalidReplacement = errors.New("invalid replacement")
)

// LoneSurrogateError reports an unpaired surrogate met in fatal mode.
type LoneSurrogateError struct {
	CodePoint rune
	// Offset is the index of the surrogate in the source passed to the
	// failing call, in code units.
	Offset int
}

func (e *LoneSurrogateError) Error() string {
	return fmt.Sprintf("encode-error: \uFFFD %s", FormatCodePoint(e.CodePoint))
}

func (e *LoneSurrogateError) Is(target error) bool {
	return target == ErrLoneSurrogate
}

// FormatCodePoint renders r as U+XXXX (at least four hex digits).
func FormatCodePoint(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}
