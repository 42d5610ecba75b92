package utf16

import "fmt"

var (
	defaultReplacementBE = [2]byte{0xFF, 0xFD}
	defaultReplacementLE = [2]byte{0xFD, 0xFF}
)

// Replacement is the resolved substitute for lone surrogates.
type Replacement struct {
	CodePoint rune
	Bytes     []byte
}

// DefaultReplacement returns U+FFFD serialized in order.
func DefaultReplacement(order ByteOrder) Replacement {
	return Replacement{
		CodePoint: ReplacementChar,
		Bytes:     defaultReplacementBytes(order),
	}
}

func defaultReplacementBytes(order ByteOrder) []byte {
	if order == LittleEndian {
		b := defaultReplacementLE
		return b[:]
	}
	b := defaultReplacementBE
	return b[:]
}

// ResolveReplacement derives the replacement bytes for candidate. Only a
// single code unit that is not a surrogate is accepted; anything else
// resolves to U+FFFD.
func ResolveReplacement(candidate Text, order ByteOrder) Replacement {
	if len(candidate) == 1 {
		var scratch [MaxBytesPerRune]byte
		res, err := EncodeInto(candidate, scratch[:], 0, Options{
			Order:       order,
			Fatal:       true,
			Replacement: defaultReplacementBytes(order),
		})
		if err == nil && res.Read == 1 {
			b := make([]byte, res.Written)
			copy(b, scratch[:res.Written])
			return Replacement{CodePoint: rune(candidate[0]), Bytes: b}
		}
	}
	return DefaultReplacement(order)
}

// ValidateReplacement returns an error wrapping ErrInvalidReplacement unless
// s is empty or encodes exactly one code unit that is not a surrogate. An
// empty s selects the default.
func ValidateReplacement(s string) error {
	if s == "" {
		return nil
	}
	if units := FromString(s); len(units) != 1 || IsSurrogate(units[0]) {
		return fmt.Errorf("%w %q: not a single BMP character", ErrInvalidReplacement, s)
	}
	return nil
}
