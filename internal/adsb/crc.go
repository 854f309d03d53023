package adsb

// ModeSGenerator is the Mode S CRC-24 generator polynomial.
const ModeSGenerator = 0xfff409

const crcWidth = 24

const crcMask = 1<<crcWidth - 1

// CRC24 computes 24-bit cyclic redundancy checks for a fixed generator.
// A CRC24 is immutable once built and may be shared between goroutines.
type CRC24 struct {
	generator uint32
	table     [256]uint32
}

// modeSCRC is the checksum used to validate every received frame.
var modeSCRC = NewCRC24(ModeSGenerator)

// NewCRC24 builds the byte lookup table for the given generator, of which
// only the low 24 bits are used.
func NewCRC24(generator uint32) *CRC24 {
	c := &CRC24{generator: generator & crcMask}
	for i := 0; i < len(c.table); i++ {
		c.table[i] = c.Bitwise([]byte{byte(i)})
	}
	return c
}

// Bitwise divides data, followed by 24 zero bits, by the generator one bit at
// a time and returns the remainder. It is only used to build the table.
func (c *CRC24) Bitwise(data []byte) uint32 {
	table := [2]uint32{0, c.generator}
	var crc uint32
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := uint32(b>>uint(i)) & 1
			crc = ((crc << 1) | bit) ^ table[(crc>>(crcWidth-1))&1]
		}
	}
	for i := 0; i < crcWidth; i++ {
		crc = (crc << 1) ^ table[(crc>>(crcWidth-1))&1]
	}
	return crc & crcMask
}

// Checksum returns the 24-bit CRC of data using the lookup table.
func (c *CRC24) Checksum(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = ((crc << 8) | uint32(b)) ^ c.table[(crc>>16)&0xff]
	}
	for i := 0; i < crcWidth/8; i++ {
		crc = (crc << 8) ^ c.table[(crc>>16)&0xff]
	}
	return crc & crcMask
}

// CalculateCRC returns the Mode S CRC-24 of data. A complete frame whose
// trailing three bytes hold the parity of the rest has a CRC of zero.
func CalculateCRC(data []byte) uint32 {
	return modeSCRC.Checksum(data)
}
