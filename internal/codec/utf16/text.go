package utf16

import "unicode/utf8"

const (
	surr1    = 0xD800
	surr2    = 0xDC00
	surr3    = 0xE000
	surrSelf = 0x10000

	// ReplacementChar is the default substitute for lone surrogates.
	ReplacementChar = '\uFFFD'
	// BOMChar is U+FEFF, the code point serialized as a byte order mark.
	BOMChar = '\uFEFF'
)

// Text is source text as UTF-16 code units. Unlike a Go string it can carry
// unpaired surrogates.
type Text []uint16

// IsSurrogate reports whether u is in [0xD800, 0xDFFF].
func IsSurrogate(u uint16) bool {
	return surr1 <= u && u < surr3
}

func IsHighSurrogate(u uint16) bool {
	return surr1 <= u && u < surr2
}

func IsLowSurrogate(u uint16) bool {
	return surr2 <= u && u < surr3
}

// FromString converts s to Text. See FromBytes.
func FromString(s string) Text {
	return FromBytes([]byte(s))
}

// FromBytes converts UTF-8 to Text. Three-byte surrogate sequences
// (ED A0..BF 80..BF, as produced by WTF-8) become single surrogate units, so
// lone surrogates survive the conversion. Other invalid bytes become U+FFFD.
func FromBytes(p []byte) Text {
	t := make(Text, 0, len(p))
	for len(p) > 0 {
		units, n, size := DecodeWTF8(p)
		t = append(t, units[:n]...)
		p = p[size:]
	}
	return t
}

// DecodeWTF8 decodes the first sequence of p into one or two code units and
// reports how many units (n) and bytes (size) it covers. An empty p yields
// n == 0.
func DecodeWTF8(p []byte) (units [2]uint16, n, size int) {
	if len(p) == 0 {
		return units, 0, 0
	}
	if isSurrogateSeq(p) {
		units[0] = uint16(p[0]&0x0F)<<12 | uint16(p[1]&0x3F)<<6 | uint16(p[2]&0x3F)
		return units, 1, 3
	}
	r, size := utf8.DecodeRune(p)
	if r >= surrSelf {
		r -= surrSelf
		units[0] = uint16(surr1 + (r>>10)&0x3FF)
		units[1] = uint16(surr2 + r&0x3FF)
		return units, 2, size
	}
	units[0] = uint16(r)
	return units, 1, size
}

// FullWTF8 reports whether p begins with a complete sequence, counting WTF-8
// surrogate sequences as valid. Like utf8.FullRune, an invalid prefix is
// reported as full since it decodes to U+FFFD.
func FullWTF8(p []byte) bool {
	if len(p) > 0 && p[0] == 0xED && len(p) < 3 {
		if len(p) == 1 || (p[1] >= 0x80 && p[1] <= 0xBF) {
			return false
		}
	}
	return utf8.FullRune(p)
}

func isSurrogateSeq(p []byte) bool {
	return len(p) >= 3 && p[0] == 0xED &&
		p[1] >= 0xA0 && p[1] <= 0xBF &&
		p[2] >= 0x80 && p[2] <= 0xBF
}

// AppendWTF8 appends the WTF-8 form of t to dst. Valid pairs become four-byte
// UTF-8, lone surrogates become three-byte surrogate sequences.
func AppendWTF8(dst []byte, t Text) []byte {
	for i := 0; i < len(t); {
		n := stepLen(t, i)
		u := t[i]
		switch {
		case n == 2:
			r := (rune(u)-surr1)<<10 | (rune(t[i+1]) - surr2) + surrSelf
			dst = utf8.AppendRune(dst, r)
		case IsSurrogate(u):
			dst = append(dst, 0xE0|byte(u>>12), 0x80|byte(u>>6)&0x3F, 0x80|byte(u)&0x3F)
		default:
			dst = utf8.AppendRune(dst, rune(u))
		}
		i += n
	}
	return dst
}

// stepLen returns the number of code units in the step starting at t[i]: 2
// for a valid surrogate pair, 1 otherwise.
func stepLen(t Text, i int) int {
	if IsHighSurrogate(t[i]) && i+1 < len(t) && IsLowSurrogate(t[i+1]) {
		return 2
	}
	return 1
}
