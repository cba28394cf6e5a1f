package wire

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactSizeRoundTrip(t *testing.T) {
	tests := []struct {
		value    uint64
		encoding string
	}{
		{0, "00"},
		{0xfc, "fc"},
		{0xfd, "fdfd00"},
		{0xffff, "fdffff"},
		{0x10000, "fe00000100"},
		{0xffffffff, "feffffffff"},
		{0x100000000, "ff0000000001000000"},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			enc := EncodeCompactSize(tt.value)
			assert.Equal(t, tt.encoding, hex.EncodeToString(enc))
			assert.Len(t, enc, CompactSizeLen(tt.value))

			got, n, err := DecodeCompactSize(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
			assert.Equal(t, len(enc), n)

			var buf bytes.Buffer
			require.NoError(t, WriteCompactSize(&buf, tt.value))
			got, err = ReadCompactSize(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestDecodeCompactSizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrTruncated},
		{"short u16", "fd01", ErrTruncated},
		{"short u32", "fe010203", ErrTruncated},
		{"short u64", "ff01020304050607", ErrTruncated},
		{"u16 below marker", "fdfc00", ErrNonCanonical},
		{"u32 fits u16", "feffff0000", ErrNonCanonical},
		{"u64 fits u32", "ffffffffff00000000", ErrNonCanonical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := hex.DecodeString(tt.input)
			require.NoError(t, err)

			_, _, err = DecodeCompactSize(b)
			assert.ErrorIs(t, err, tt.want)

			_, err = ReadCompactSize(bytes.NewReader(b))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeCompactSizeIgnoresTrailingBytes(t *testing.T) {
	n, consumed, err := DecodeCompactSize([]byte{0xfd, 0x00, 0x01, 0xaa, 0xbb})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x100), n)
	assert.Equal(t, 3, consumed)
}
