package adsb

import "fmt"

// StateSetter receives the aircraft state changes produced by an Accumulator.
type StateSetter interface {
	SetLastMessageTimestampNs(timestampNs int64)
	SetCategory(category int)
	SetCallSign(callSign CallSign)
	SetPosition(position GeoPos)
	SetAltitude(altitude float64)
	SetVelocity(velocity float64)
	SetTrackOrHeading(trackOrHeading float64)
}

// Accumulator folds the messages of a single aircraft into a StateSetter. It
// keeps the last position message of each parity and resolves a position when
// the two are at most PairWindowNs apart. An Accumulator is not safe for
// concurrent use.
type Accumulator[T StateSetter] struct {
	state     T
	positions [2]*AirbornePosition
}

// NewAccumulator returns an accumulator updating state.
func NewAccumulator[T StateSetter](state T) *Accumulator[T] {
	return &Accumulator[T]{state: state}
}

// State returns the state being updated.
func (a *Accumulator[T]) State() T {
	return a.state
}

// Update applies msg to the state.
func (a *Accumulator[T]) Update(msg Message) {
	a.state.SetLastMessageTimestampNs(msg.TimestampNs())

	switch m := msg.(type) {
	case Identification:
		a.state.SetCategory(m.Category)
		a.state.SetCallSign(m.CallSign)
	case AirbornePosition:
		a.state.SetAltitude(m.AltitudeMeters)
		a.positions[m.Parity] = &m
		if pos, ok := a.resolve(m); ok {
			a.state.SetPosition(pos)
		}
	case AirborneVelocity:
		a.state.SetVelocity(m.Speed)
		a.state.SetTrackOrHeading(m.TrackOrHeading)
	default:
		panic(fmt.Sprintf("adsb: unexpected message type %T", msg))
	}
}

// resolve decodes the position of latest using the stored message of the
// other parity.
func (a *Accumulator[T]) resolve(latest AirbornePosition) (GeoPos, bool) {
	other := a.positions[1-latest.Parity]
	if other == nil {
		return GeoPos{}, false
	}
	dt := latest.TimestampNs() - other.TimestampNs()
	if dt < -PairWindowNs || dt > PairWindowNs {
		return GeoPos{}, false
	}
	even, odd := a.positions[0], a.positions[1]
	return DecodeCPR(even.X, even.Y, odd.X, odd.Y, latest.Parity)
}
