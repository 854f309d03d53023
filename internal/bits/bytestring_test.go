package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteString_Copy(t *testing.T) {
	raw := []byte{0x8D, 0x4B, 0x18}
	b := NewByteString(raw)
	raw[0] = 0

	assert.Equal(t, uint8(0x8D), b.ByteAt(0))

	out := b.Bytes()
	out[1] = 0
	assert.Equal(t, uint8(0x4B), b.ByteAt(1))
}

func TestByteString_Hex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"upper case", "8D4B18F4", "8D4B18F4", false},
		{"lower case", "8d4b18f4", "8D4B18F4", false},
		{"empty", "", "", false},
		{"odd length", "8D4", "", true},
		{"not hex", "ZZ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseHex(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b.String())
			assert.Equal(t, len(tt.input)/2, b.Len())
		})
	}
}

func TestByteString_Equality(t *testing.T) {
	a := MustParseHex("8D392AE4")
	b := NewByteString([]byte{0x8D, 0x39, 0x2A, 0xE4})
	c := MustParseHex("8D392AE5")

	assert.True(t, a == b)
	assert.False(t, a == c)

	seen := map[ByteString]int{a: 1}
	assert.Equal(t, 1, seen[b])
}

func TestByteString_BytesInRange(t *testing.T) {
	b := MustParseHex("8D392AE499107FB5C00439035DB8")

	assert.Equal(t, uint64(0x392AE4), b.BytesInRange(1, 4))
	assert.Equal(t, uint64(0x99107FB5C00439), b.BytesInRange(4, 11))
	assert.Equal(t, uint64(0x8D392AE499107FB5), b.BytesInRange(0, 8))
	assert.Equal(t, uint64(0), b.BytesInRange(3, 3))
	assert.Equal(t, uint64(0x035DB8), b.BytesInRange(11, 14))
}

func TestByteString_Range(t *testing.T) {
	b := MustParseHex("8D392AE499107FB5C00439035DB8")

	requireRangePanic(t, func() { b.ByteAt(14) })
	requireRangePanic(t, func() { b.ByteAt(-1) })
	requireRangePanic(t, func() { b.BytesInRange(4, 13) })
	requireRangePanic(t, func() { b.BytesInRange(5, 4) })
	requireRangePanic(t, func() { b.BytesInRange(10, 15) })
}
