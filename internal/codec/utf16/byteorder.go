// Package utf16 implements the bounded UTF-16 encode-into primitive used by
// the encoders, streams and transformers of this module.
//
// Source text is a sequence of UTF-16 code units (Text) so that unpaired
// surrogates can be represented and reported. Output is written into a
// caller-owned buffer in big-endian or little-endian byte order.
package utf16

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ByteOrder selects the serialization of each UTF-16 code unit.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

const (
	LabelBE = "UTF-16BE"
	LabelLE = "UTF-16LE"
)

// MaxBytesPerRune is the largest output a single step can produce: one
// surrogate pair.
const MaxBytesPerRune = 4

var (
	bomBE = [2]byte{0xFE, 0xFF}
	bomLE = [2]byte{0xFF, 0xFE}
)

// Label returns the registration label, "UTF-16BE" or "UTF-16LE".
func (o ByteOrder) Label() string {
	if o == LittleEndian {
		return LabelLE
	}
	return LabelBE
}

// Encoding returns the lower-case encoding name, "utf-16be" or "utf-16le".
func (o ByteOrder) Encoding() string {
	return strings.ToLower(o.Label())
}

func (o ByteOrder) String() string {
	return o.Label()
}

// BOM returns a fresh copy of the byte order mark for o.
func (o ByteOrder) BOM() []byte {
	b := bomBE
	if o == LittleEndian {
		b = bomLE
	}
	return b[:]
}

// Binary returns the encoding/binary order matching o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ParseByteOrder accepts "be", "le", the labels and the encoding names,
// case-insensitively.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "be", "big", "bigendian", "big-endian", "utf-16be", "utf16be":
		return BigEndian, nil
	case "le", "little", "littleendian", "little-endian", "utf-16le", "utf16le":
		return LittleEndian, nil
	default:
		return BigEndian, fmt.Errorf("%w: %q", ErrUnknownByteOrder, s)
	}
}
