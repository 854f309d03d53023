package adsb

import (
	"fmt"

	"es1090/internal/aircraft"
)

// Message is a decoded extended squitter. The set of implementations is
// closed: Identification, AirbornePosition and AirborneVelocity.
type Message interface {
	TimestampNs() int64
	ICAO() aircraft.ICAOAddress
	isMessage()
}

// header holds the fields common to every message.
type header struct {
	timestampNs int64
	icao        aircraft.ICAOAddress
}

func newHeader(timestampNs int64, icao aircraft.ICAOAddress) (header, error) {
	if timestampNs < 0 {
		return header{}, fmt.Errorf("%w: negative timestamp %d", ErrInvalidArgument, timestampNs)
	}
	return header{timestampNs: timestampNs, icao: icao}, nil
}

// TimestampNs returns the arrival time of the frame the message came from.
func (h header) TimestampNs() int64 { return h.timestampNs }

// ICAO returns the address of the emitting aircraft.
func (h header) ICAO() aircraft.ICAOAddress { return h.icao }

func (header) isMessage() {}

// Identification carries the call sign and emitter category of an aircraft.
type Identification struct {
	header
	Category int
	CallSign CallSign
}

// NewIdentification validates and builds an identification message.
func NewIdentification(timestampNs int64, icao aircraft.ICAOAddress, category int, callSign CallSign) (Identification, error) {
	h, err := newHeader(timestampNs, icao)
	if err != nil {
		return Identification{}, err
	}
	if category < 0 || category > 0xFF {
		return Identification{}, fmt.Errorf("%w: category %d", ErrInvalidArgument, category)
	}
	return Identification{header: h, Category: category, CallSign: callSign}, nil
}

// AirbornePosition carries the barometric altitude and one CPR-encoded
// position. X and Y are the CPR longitude and latitude scaled to [0, 1).
type AirbornePosition struct {
	header
	AltitudeMeters float64
	Parity         int
	X              float64
	Y              float64
}

// NewAirbornePosition validates and builds a position message.
func NewAirbornePosition(timestampNs int64, icao aircraft.ICAOAddress, altitude float64, parity int, x, y float64) (AirbornePosition, error) {
	h, err := newHeader(timestampNs, icao)
	if err != nil {
		return AirbornePosition{}, err
	}
	if parity != 0 && parity != 1 {
		return AirbornePosition{}, fmt.Errorf("%w: parity %d", ErrInvalidArgument, parity)
	}
	if x < 0 || x >= 1 || y < 0 || y >= 1 {
		return AirbornePosition{}, fmt.Errorf("%w: CPR coordinates (%g, %g) outside of [0, 1)", ErrInvalidArgument, x, y)
	}
	return AirbornePosition{header: h, AltitudeMeters: altitude, Parity: parity, X: x, Y: y}, nil
}

// AirborneVelocity carries the speed in m/s and the track or heading in
// radians within [0, 2π).
type AirborneVelocity struct {
	header
	Speed          float64
	TrackOrHeading float64
}

// NewAirborneVelocity validates and builds a velocity message.
func NewAirborneVelocity(timestampNs int64, icao aircraft.ICAOAddress, speed, trackOrHeading float64) (AirborneVelocity, error) {
	h, err := newHeader(timestampNs, icao)
	if err != nil {
		return AirborneVelocity{}, err
	}
	if speed < 0 {
		return AirborneVelocity{}, fmt.Errorf("%w: negative speed %g", ErrInvalidArgument, speed)
	}
	if trackOrHeading < 0 || trackOrHeading >= Turn {
		return AirborneVelocity{}, fmt.Errorf("%w: angle %g outside of [0, 2π)", ErrInvalidArgument, trackOrHeading)
	}
	return AirborneVelocity{header: h, Speed: speed, TrackOrHeading: trackOrHeading}, nil
}
