package adsb

import (
	"math"

	"es1090/internal/bits"
)

// DecodeAirborneVelocity decodes a velocity message (type code 19). Subtypes
// 1 and 2 carry a ground speed vector, 3 and 4 an airspeed and heading; 2 and
// 4 are the supersonic variants with a four times coarser speed unit. It
// returns false for other subtypes and when a required field is unavailable.
func DecodeAirborneVelocity(raw *RawMessage) (AirborneVelocity, bool) {
	payload := raw.Payload()
	subtype := bits.ExtractUInt(payload, 48, 3)
	info := uint64(bits.ExtractUInt(payload, 21, 22))

	f0 := int(bits.ExtractUInt(info, 0, 10))
	b1 := bits.TestBit(info, 10)
	f2 := int(bits.ExtractUInt(info, 11, 10))
	b3 := bits.TestBit(info, 21)

	var speed, angle float64
	switch subtype {
	case 1, 2:
		// f0/b1: north-south velocity and sign, f2/b3: east-west.
		if f0 == 0 || f2 == 0 {
			return AirborneVelocity{}, false
		}
		vns := float64(f0 - 1)
		if b1 {
			vns = -vns
		}
		vew := float64(f2 - 1)
		if b3 {
			vew = -vew
		}
		speed = math.Hypot(vns, vew)
		if subtype == 2 {
			speed *= 4
		}
		angle = math.Atan2(vew, vns)
		if angle < 0 {
			angle += Turn
		}
	case 3, 4:
		// f0: airspeed, f2: heading, b3: heading available.
		if !b3 || f0 == 0 {
			return AirborneVelocity{}, false
		}
		speed = float64(f0 - 1)
		if subtype == 4 {
			speed *= 4
		}
		angle = ConvertFrom(float64(f2)/(1<<10), Turn)
	default:
		return AirborneVelocity{}, false
	}

	return AirborneVelocity{
		header:         header{timestampNs: raw.TimestampNs(), icao: raw.ICAO()},
		Speed:          ConvertFrom(speed, Knot),
		TrackOrHeading: angle,
	}, true
}
