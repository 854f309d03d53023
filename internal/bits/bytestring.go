package bits

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ByteString is an immutable sequence of octets. The zero value is empty.
// Two ByteStrings are equal with == when they hold the same bytes, so values
// can be used as map keys.
type ByteString struct {
	data string
}

// NewByteString returns a ByteString holding a private copy of b.
func NewByteString(b []byte) ByteString {
	return ByteString{data: string(b)}
}

// ParseHex parses an even-length hexadecimal string (either case).
func ParseHex(s string) (ByteString, error) {
	if len(s)%2 != 0 {
		return ByteString{}, fmt.Errorf("odd hex string length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ByteString{}, fmt.Errorf("failed to parse hex string: %w", err)
	}
	return ByteString{data: string(b)}, nil
}

// MustParseHex is like ParseHex but panics on malformed input.
func MustParseHex(s string) ByteString {
	b, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the number of bytes.
func (b ByteString) Len() int {
	return len(b.data)
}

// ByteAt returns the unsigned byte at index.
func (b ByteString) ByteAt(index int) uint8 {
	if index < 0 || index >= len(b.data) {
		panic(rangeError("byte %d outside of [0, %d)", index, len(b.data)))
	}
	return b.data[index]
}

// BytesInRange returns the bytes in [fromIndex, toIndex) as a big-endian
// unsigned value. At most 8 bytes can be read.
func (b ByteString) BytesInRange(fromIndex, toIndex int) uint64 {
	if fromIndex < 0 || toIndex > len(b.data) || fromIndex > toIndex {
		panic(rangeError("range [%d, %d) outside of [0, %d)", fromIndex, toIndex, len(b.data)))
	}
	if toIndex-fromIndex > 8 {
		panic(rangeError("range [%d, %d) wider than 8 bytes", fromIndex, toIndex))
	}
	var v uint64
	for i := fromIndex; i < toIndex; i++ {
		v = v<<8 | uint64(b.data[i])
	}
	return v
}

// Bytes returns a copy of the underlying bytes.
func (b ByteString) Bytes() []byte {
	return []byte(b.data)
}

// String returns the bytes as upper-case hexadecimal.
func (b ByteString) String() string {
	return strings.ToUpper(hex.EncodeToString([]byte(b.data)))
}
