package adsb

import (
	"es1090/internal/bits"
)

// Gillham bit positions, most significant first, within the 12-bit altitude
// field when the Q bit is clear. D1 occupies the Q bit position.
var (
	gillham500 = [...]int{4, 2, 0, 10, 8, 6, 5, 3, 1} // D1 D2 D4 A1 A2 A4 B1 B2 B4
	gillham100 = [...]int{11, 9, 7}                   // C1 C2 C4
)

// DecodeAirbornePosition decodes an airborne position message (type codes 9
// to 18 and 20 to 22). It returns false if a Gray-coded altitude is invalid.
func DecodeAirbornePosition(raw *RawMessage) (AirbornePosition, bool) {
	payload := raw.Payload()
	lon := bits.ExtractUInt(payload, 0, CPRBits)
	lat := bits.ExtractUInt(payload, CPRBits, CPRBits)
	parity := 0
	if bits.TestBit(payload, 34) {
		parity = 1
	}

	altitude, ok := decodeAltitude(bits.ExtractUInt(payload, 36, 12))
	if !ok {
		return AirbornePosition{}, false
	}

	return AirbornePosition{
		header:         header{timestampNs: raw.TimestampNs(), icao: raw.ICAO()},
		AltitudeMeters: ConvertFrom(float64(altitude), Foot),
		Parity:         parity,
		X:              float64(lon) / CPRMax,
		Y:              float64(lat) / CPRMax,
	}, true
}

// decodeAltitude returns the altitude in feet of a 12-bit AC field.
func decodeAltitude(alt uint32) (int, bool) {
	if bits.TestBit(uint64(alt), 4) {
		n := (alt>>5)<<4 | alt&0xF
		return -1000 + 25*int(n), true
	}

	high := decodeGray(regroup(alt, gillham500[:]))
	low := decodeGray(regroup(alt, gillham100[:]))
	switch low {
	case 0, 5, 6:
		return 0, false
	case 7:
		low = 5
	}
	if high%2 == 1 {
		low = 6 - low
	}
	return -1300 + 100*low + 500*high, true
}

// regroup packs the bits of alt at the given positions, first position in the
// most significant place.
func regroup(alt uint32, positions []int) uint32 {
	var v uint32
	for _, p := range positions {
		v = v<<1 | (alt>>uint(p))&1
	}
	return v
}

func decodeGray(g uint32) int {
	var n uint32
	for ; g != 0; g >>= 1 {
		n ^= g
	}
	return int(n)
}
