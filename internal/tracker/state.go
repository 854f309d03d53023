// Package tracker maintains the state of every aircraft heard by the receiver.
package tracker

import (
	"math"

	"es1090/internal/adsb"
	"es1090/internal/aircraft"
)

// Field identifies the part of an aircraft state an Update changed.
type Field int

const (
	FieldTimestamp Field = iota
	FieldCategory
	FieldCallSign
	FieldPosition
	FieldAltitude
	FieldVelocity
	FieldTrackOrHeading
)

var fieldNames = [...]string{
	FieldTimestamp:      "timestamp",
	FieldCategory:       "category",
	FieldCallSign:       "callsign",
	FieldPosition:       "position",
	FieldAltitude:       "altitude",
	FieldVelocity:       "velocity",
	FieldTrackOrHeading: "track",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// Update reports a change of one field of an aircraft state. Value holds the
// new value with the type of the corresponding setter argument.
type Update struct {
	ICAO        aircraft.ICAOAddress
	TimestampNs int64
	Field       Field
	Value       any
	State       *ObservableState
}

// Listener receives updates synchronously, in setter call order.
type Listener func(Update)

// TrajectoryPoint is a position together with the altitude in meters the
// aircraft had there.
type TrajectoryPoint struct {
	Position adsb.GeoPos
	Altitude float64
}

// ObservableState is the state of one aircraft. It implements
// adsb.StateSetter and forwards every change to its listener. Altitude and
// velocity are NaN until known.
type ObservableState struct {
	icao     aircraft.ICAOAddress
	data     *aircraft.Data
	listener Listener

	lastMessageNs  int64
	category       int
	callSign       adsb.CallSign
	position       adsb.GeoPos
	hasPosition    bool
	altitude       float64
	velocity       float64
	trackOrHeading float64

	trajectory   []TrajectoryPoint
	trajectoryNs int64
}

var _ adsb.StateSetter = (*ObservableState)(nil)

// NewObservableState returns the state of icao. data may be nil when the
// aircraft is not registered; listener may be nil.
func NewObservableState(icao aircraft.ICAOAddress, data *aircraft.Data, listener Listener) *ObservableState {
	return &ObservableState{
		icao:         icao,
		data:         data,
		listener:     listener,
		altitude:     math.NaN(),
		velocity:     math.NaN(),
		trajectoryNs: -1,
	}
}

func (s *ObservableState) ICAO() aircraft.ICAOAddress { return s.icao }

// Data returns the registered metadata, or nil.
func (s *ObservableState) Data() *aircraft.Data { return s.data }

func (s *ObservableState) LastMessageTimestampNs() int64 { return s.lastMessageNs }
func (s *ObservableState) Category() int                 { return s.category }
func (s *ObservableState) CallSign() adsb.CallSign       { return s.callSign }

// Position returns the last known position.
func (s *ObservableState) Position() (adsb.GeoPos, bool) { return s.position, s.hasPosition }

// Altitude returns the altitude in meters.
func (s *ObservableState) Altitude() float64 { return s.altitude }

// Velocity returns the speed in meters per second.
func (s *ObservableState) Velocity() float64 { return s.velocity }

// TrackOrHeading returns the direction in radians.
func (s *ObservableState) TrackOrHeading() float64 { return s.trackOrHeading }

// Trajectory returns a copy of the recorded (position, altitude) points.
func (s *ObservableState) Trajectory() []TrajectoryPoint {
	out := make([]TrajectoryPoint, len(s.trajectory))
	copy(out, s.trajectory)
	return out
}

func (s *ObservableState) SetLastMessageTimestampNs(timestampNs int64) {
	s.lastMessageNs = timestampNs
	s.emit(FieldTimestamp, timestampNs)
}

func (s *ObservableState) SetCategory(category int) {
	s.category = category
	s.emit(FieldCategory, category)
}

func (s *ObservableState) SetCallSign(callSign adsb.CallSign) {
	s.callSign = callSign
	s.emit(FieldCallSign, callSign)
}

// SetPosition records the position and, once the altitude is known, appends
// it to the trajectory.
func (s *ObservableState) SetPosition(position adsb.GeoPos) {
	s.position = position
	s.hasPosition = true
	if !math.IsNaN(s.altitude) {
		s.appendTrajectory(TrajectoryPoint{Position: position, Altitude: s.altitude})
	}
	s.emit(FieldPosition, position)
}

// SetAltitude records the altitude. It starts the trajectory when a position
// is already known, and corrects the last point when it was recorded from a
// message with the same timestamp.
func (s *ObservableState) SetAltitude(altitude float64) {
	s.altitude = altitude
	if s.hasPosition {
		point := TrajectoryPoint{Position: s.position, Altitude: altitude}
		switch {
		case len(s.trajectory) == 0:
			s.appendTrajectory(point)
		case s.trajectoryNs == s.lastMessageNs:
			s.trajectory[len(s.trajectory)-1] = point
		}
	}
	s.emit(FieldAltitude, altitude)
}

func (s *ObservableState) SetVelocity(velocity float64) {
	s.velocity = velocity
	s.emit(FieldVelocity, velocity)
}

func (s *ObservableState) SetTrackOrHeading(trackOrHeading float64) {
	s.trackOrHeading = trackOrHeading
	s.emit(FieldTrackOrHeading, trackOrHeading)
}

func (s *ObservableState) appendTrajectory(p TrajectoryPoint) {
	s.trajectory = append(s.trajectory, p)
	s.trajectoryNs = s.lastMessageNs
}

func (s *ObservableState) emit(field Field, value any) {
	if s.listener == nil {
		return
	}
	s.listener(Update{
		ICAO:        s.icao,
		TimestampNs: s.lastMessageNs,
		Field:       field,
		Value:       value,
		State:       s,
	})
}

// Snapshot is a serializable copy of an aircraft state. Unknown values are
// nil.
type Snapshot struct {
	ICAO             string         `json:"icao"`
	LastSeenNs       int64          `json:"last_seen_ns"`
	Category         int            `json:"category"`
	CallSign         string         `json:"callsign,omitempty"`
	LatitudeDeg      *float64       `json:"latitude,omitempty"`
	LongitudeDeg     *float64       `json:"longitude,omitempty"`
	AltitudeMeters   *float64       `json:"altitude_m,omitempty"`
	VelocityMps      *float64       `json:"velocity_mps,omitempty"`
	TrackDeg         *float64       `json:"track_deg,omitempty"`
	TrajectoryPoints int            `json:"trajectory_points"`
	Aircraft         *aircraft.Data `json:"aircraft,omitempty"`
}

// Snapshot copies the current state.
func (s *ObservableState) Snapshot() Snapshot {
	snap := Snapshot{
		ICAO:             s.icao.String(),
		LastSeenNs:       s.lastMessageNs,
		Category:         s.category,
		CallSign:         s.callSign.String(),
		AltitudeMeters:   known(s.altitude),
		VelocityMps:      known(s.velocity),
		TrajectoryPoints: len(s.trajectory),
		Aircraft:         s.data,
	}
	if s.hasPosition {
		lat, lon := s.position.LatitudeDegrees(), s.position.LongitudeDegrees()
		snap.LatitudeDeg, snap.LongitudeDeg = &lat, &lon
	}
	if !math.IsNaN(s.velocity) {
		track := adsb.ConvertTo(s.trackOrHeading, adsb.Degree)
		snap.TrackDeg = &track
	}
	return snap
}

func known(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
