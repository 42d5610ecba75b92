package utf16

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteOrder(t *testing.T) {
	assert.Equal(t, "UTF-16BE", BigEndian.Label())
	assert.Equal(t, "UTF-16LE", LittleEndian.Label())
	assert.Equal(t, "utf-16be", BigEndian.Encoding())
	assert.Equal(t, "utf-16le", LittleEndian.Encoding())
	assert.Equal(t, "UTF-16LE", LittleEndian.String())

	assert.Equal(t, []byte{0xFE, 0xFF}, BigEndian.BOM())
	assert.Equal(t, []byte{0xFF, 0xFE}, LittleEndian.BOM())

	assert.Equal(t, binary.BigEndian, BigEndian.Binary())
	assert.Equal(t, binary.LittleEndian, LittleEndian.Binary())
}

func TestParseByteOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteOrder
		wantErr bool
	}{
		{input: "be", want: BigEndian},
		{input: "BE", want: BigEndian},
		{input: "UTF-16BE", want: BigEndian},
		{input: " big-endian ", want: BigEndian},
		{input: "le", want: LittleEndian},
		{input: "utf-16le", want: LittleEndian},
		{input: "little", want: LittleEndian},
		{input: "", wantErr: true},
		{input: "utf-16", wantErr: true},
		{input: "middle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseByteOrder(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownByteOrder))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
