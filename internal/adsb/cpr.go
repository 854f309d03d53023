package adsb

import (
	"fmt"
	"math"
)

// Number of latitude zones for even and odd encodings.
const (
	cprZonesEven = 60
	cprZonesOdd  = 59
)

// DecodeCPR resolves a global position from an even (x0, y0) and an odd
// (x1, y1) pair of CPR coordinates in [0, 1). mostRecent selects the parity
// whose position is returned. It returns false if the two messages fall into
// different longitude zone counts or if the resolved latitude is invalid.
// It panics with an error wrapping ErrInvalidArgument if mostRecent is not 0
// or 1.
func DecodeCPR(x0, y0, x1, y1 float64, mostRecent int) (GeoPos, bool) {
	if mostRecent != 0 && mostRecent != 1 {
		panic(fmt.Errorf("%w: parity %d", ErrInvalidArgument, mostRecent))
	}

	zLat := math.RoundToEven(y0*cprZonesOdd - y1*cprZonesEven)
	lat0 := (cprZoneIndex(zLat, cprZonesEven) + y0) / cprZonesEven
	lat1 := (cprZoneIndex(zLat, cprZonesOdd) + y1) / cprZonesOdd

	nl := cprLongitudeZones(lat0)
	if nl != cprLongitudeZones(lat1) {
		return GeoPos{}, false
	}

	lon0, lon1 := x0, x1
	if nl > 1 {
		zLon := math.RoundToEven(x0*(nl-1) - x1*nl)
		lon0 = (cprZoneIndex(zLon, nl) + x0) / nl
		lon1 = (cprZoneIndex(zLon, nl-1) + x1) / (nl - 1)
	}

	lat, lon := lat0, lon0
	if mostRecent == 1 {
		lat, lon = lat1, lon1
	}

	latT32 := cprTurnToT32(lat)
	if !IsValidLatitudeT32(latT32) {
		return GeoPos{}, false
	}
	return GeoPos{longitudeT32: wrapT32(cprTurnToT32(lon)), latitudeT32: int32(latT32)}, true
}

func cprZoneIndex(z, zones float64) float64 {
	if z < 0 {
		return z + zones
	}
	return z
}

// cprLongitudeZones returns the number of even longitude zones at a latitude
// given in turns. Latitudes where the acos argument leaves its domain, close
// to the poles, have a single zone.
func cprLongitudeZones(lat float64) float64 {
	cosLat := math.Cos(ConvertFrom(lat, Turn))
	a := math.Acos(1 - (1-math.Cos(Turn/cprZonesEven))/(cosLat*cosLat))
	if math.IsNaN(a) {
		return 1
	}
	return math.Floor(Turn / a)
}

// cprTurnToT32 moves an angle in [0, 1) turn into [-0.5, 0.5) and rounds it
// to T32 units.
func cprTurnToT32(v float64) int64 {
	if v >= 0.5 {
		v--
	}
	return int64(math.RoundToEven(Convert(v, Turn, T32)))
}
