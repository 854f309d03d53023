package adsb

import (
	"fmt"
	"math"
)

// maxLatitudeT32 is 90 degrees in T32 units.
const maxLatitudeT32 = 1 << 30

// GeoPos is a longitude/latitude pair in T32 fixed point, where a full turn
// is 2^32 units.
type GeoPos struct {
	longitudeT32 int32
	latitudeT32  int32
}

// IsValidLatitudeT32 reports whether latitudeT32 lies within [-90°, 90°].
func IsValidLatitudeT32(latitudeT32 int64) bool {
	return latitudeT32 >= -maxLatitudeT32 && latitudeT32 <= maxLatitudeT32
}

// NewGeoPos returns the position, or an error wrapping ErrInvalidArgument if
// the latitude is out of range.
func NewGeoPos(longitudeT32, latitudeT32 int32) (GeoPos, error) {
	if !IsValidLatitudeT32(int64(latitudeT32)) {
		return GeoPos{}, fmt.Errorf("%w: latitude %d outside of ±2^30", ErrInvalidArgument, latitudeT32)
	}
	return GeoPos{longitudeT32: longitudeT32, latitudeT32: latitudeT32}, nil
}

// GeoPosFromDegrees rounds a position in degrees to the nearest T32 position.
func GeoPosFromDegrees(longitude, latitude float64) (GeoPos, error) {
	lon := int64(math.RoundToEven(Convert(longitude, Degree, T32)))
	lat := int64(math.RoundToEven(Convert(latitude, Degree, T32)))
	if !IsValidLatitudeT32(lat) {
		return GeoPos{}, fmt.Errorf("%w: latitude %.6f° outside of ±90°", ErrInvalidArgument, latitude)
	}
	return GeoPos{longitudeT32: wrapT32(lon), latitudeT32: int32(lat)}, nil
}

// wrapT32 folds an angle in T32 units into the int32 range.
func wrapT32(v int64) int32 {
	return int32(uint32(uint64(v)))
}

// LongitudeT32 returns the longitude in T32 units.
func (p GeoPos) LongitudeT32() int32 { return p.longitudeT32 }

// LatitudeT32 returns the latitude in T32 units.
func (p GeoPos) LatitudeT32() int32 { return p.latitudeT32 }

// Longitude returns the longitude in radians.
func (p GeoPos) Longitude() float64 {
	return ConvertFrom(float64(p.longitudeT32), T32)
}

// Latitude returns the latitude in radians.
func (p GeoPos) Latitude() float64 {
	return ConvertFrom(float64(p.latitudeT32), T32)
}

// LongitudeDegrees returns the longitude in degrees.
func (p GeoPos) LongitudeDegrees() float64 {
	return Convert(float64(p.longitudeT32), T32, Degree)
}

// LatitudeDegrees returns the latitude in degrees.
func (p GeoPos) LatitudeDegrees() float64 {
	return Convert(float64(p.latitudeT32), T32, Degree)
}

func (p GeoPos) String() string {
	return fmt.Sprintf("(%g°, %g°)", p.LongitudeDegrees(), p.LatitudeDegrees())
}
