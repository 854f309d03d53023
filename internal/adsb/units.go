package adsb

import "math"

// Unit multipliers. Each unit is expressed in the base unit of its dimension:
// radians for angles, meters for lengths, seconds for durations and meters
// per second for speeds.
const (
	Centi = 1e-2
	Kilo  = 1e3

	Radian = 1.0
	Turn   = 2 * math.Pi * Radian
	Degree = Turn / 360
	T32    = Turn / (1 << 32)

	Meter        = 1.0
	Centimeter   = Centi * Meter
	Kilometer    = Kilo * Meter
	Inch         = 2.54 * Centimeter
	Foot         = 12 * Inch
	NauticalMile = 1852 * Meter

	Second = 1.0
	Minute = 60 * Second
	Hour   = 60 * Minute

	MeterPerSecond   = 1.0
	Knot             = NauticalMile / Hour
	KilometerPerHour = Kilometer / Hour
)

// Convert converts value from one unit to another of the same dimension.
func Convert(value, from, to float64) float64 {
	return value * (from / to)
}

// ConvertFrom converts value expressed in unit from to the base unit.
func ConvertFrom(value, from float64) float64 {
	return Convert(value, from, 1)
}

// ConvertTo converts value expressed in the base unit to unit to.
func ConvertTo(value, to float64) float64 {
	return Convert(value, 1, to)
}
