// Package bits extracts unsigned bit fields from 64-bit words and exposes an
// immutable byte sequence used to carry Mode S frames.
package bits

import (
	"errors"
	"fmt"
)

// WordSize is the number of bits in the words handled by ExtractUInt and TestBit.
const WordSize = 64

// ErrRange is wrapped by every panic raised on an out-of-range bit or byte index.
var ErrRange = errors.New("bits: index out of range")

func rangeError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...))
}

// ExtractUInt returns the size bits of value starting at bit start, where bit 0
// is the least significant bit. size must be in [1, 31] and start+size must not
// exceed 64; violating either panics with an error wrapping ErrRange.
func ExtractUInt(value uint64, start, size int) uint32 {
	if size <= 0 || size >= 32 {
		panic(rangeError("size %d not in [1, 31]", size))
	}
	if start < 0 || start+size > WordSize {
		panic(rangeError("bits [%d, %d) outside of a %d-bit word", start, start+size, WordSize))
	}
	return uint32((value >> uint(start)) & (uint64(1)<<uint(size) - 1))
}

// TestBit reports whether bit index of value is set. index must be in [0, 63].
func TestBit(value uint64, index int) bool {
	if index < 0 || index >= WordSize {
		panic(rangeError("bit %d outside of a %d-bit word", index, WordSize))
	}
	return value&(uint64(1)<<uint(index)) != 0
}
