package utf16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Text
	}{
		{name: "empty", input: "", want: Text{}},
		{name: "ascii", input: "AB", want: Text{0x41, 0x42}},
		{name: "hiragana", input: "あ", want: Text{0x3042}},
		{name: "supplementary", input: "\U0002A6BE", want: Text{0xD869, 0xDEBE}},
		{name: "wtf8 lone low", input: "\xED\xB0\x80", want: Text{0xDC00}},
		{name: "wtf8 lone high", input: "A\xED\xA1\xA7", want: Text{0x41, 0xD867}},
		{name: "wtf8 pair halves", input: "\xED\xA1\xA7\xED\xB9\xBE", want: Text{0xD867, 0xDE7E}},
		{name: "invalid byte", input: "\xFFA", want: Text{0xFFFD, 0x41}},
		{name: "truncated sequence", input: "\xE3\x81", want: Text{0xFFFD, 0xFFFD}},
		{name: "overlong ED", input: "\xED\x9F\xBF", want: Text{0xD7FF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromString(tt.input))
		})
	}
}

func TestAppendWTF8(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"あい\U0002000Bう",
		"\xED\xB0\x80",
		"x\xED\xA0\x80y",
	}

	for _, in := range inputs {
		assert.Equal(t, in, string(AppendWTF8(nil, FromString(in))))
	}

	// a high surrogate unit followed by a low one is a pair, not two
	// surrogate sequences
	assert.Equal(t, "\U00010000", string(AppendWTF8(nil, Text{0xD800, 0xDC00})))
}

func TestFullWTF8(t *testing.T) {
	tests := []struct {
		input []byte
		want  bool
	}{
		{input: []byte{}, want: false},
		{input: []byte{'A'}, want: true},
		{input: []byte{0xE3}, want: false},
		{input: []byte{0xE3, 0x81}, want: false},
		{input: []byte{0xE3, 0x81, 0x82}, want: true},
		{input: []byte{0xED}, want: false},
		{input: []byte{0xED, 0xA0}, want: false},
		{input: []byte{0xED, 0x9F}, want: false},
		{input: []byte{0xED, 0xA0, 0x80}, want: true},
		{input: []byte{0xED, 0x41}, want: true},
		{input: []byte{0xF0, 0x9F, 0x98}, want: false},
		{input: []byte{0xFF}, want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FullWTF8(tt.input), "FullWTF8(% X)", tt.input)
	}
}

func TestDecodeWTF8(t *testing.T) {
	units, n, size := DecodeWTF8(nil)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, size)

	units, n, size = DecodeWTF8([]byte("\U0001F600rest"))
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, size)
	assert.Equal(t, [2]uint16{0xD83D, 0xDE00}, units)

	units, n, size = DecodeWTF8([]byte{0xED, 0xBF, 0xBF})
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, size)
	assert.Equal(t, uint16(0xDFFF), units[0])
}

func TestSurrogateClassification(t *testing.T) {
	assert.False(t, IsSurrogate(0xD7FF))
	assert.True(t, IsSurrogate(0xD800))
	assert.True(t, IsSurrogate(0xDFFF))
	assert.False(t, IsSurrogate(0xE000))

	assert.True(t, IsHighSurrogate(0xDBFF))
	assert.False(t, IsHighSurrogate(0xDC00))
	assert.True(t, IsLowSurrogate(0xDC00))
	assert.False(t, IsLowSurrogate(0xDBFF))
}
