// Package publish forwards decoded messages and aircraft snapshots to
// external brokers and stores.
package publish

import (
	"time"

	"es1090/internal/adsb"
	"es1090/internal/metrics"
)

// Envelope is the JSON document published for every decoded message.
type Envelope struct {
	SessionID   string    `json:"session_id"`
	Kind        string    `json:"kind"`
	ICAO        string    `json:"icao"`
	TimestampNs int64     `json:"timestamp_ns"`
	PublishedAt time.Time `json:"published_at"`

	Category       *int     `json:"category,omitempty"`
	CallSign       *string  `json:"callsign,omitempty"`
	AltitudeMeters *float64 `json:"altitude_m,omitempty"`
	Parity         *int     `json:"parity,omitempty"`
	CPRX           *float64 `json:"cpr_x,omitempty"`
	CPRY           *float64 `json:"cpr_y,omitempty"`
	SpeedMps       *float64 `json:"speed_mps,omitempty"`
	TrackRadians   *float64 `json:"track_rad,omitempty"`
}

// NewEnvelope wraps msg. msg must not be nil.
func NewEnvelope(sessionID string, msg adsb.Message, at time.Time) Envelope {
	env := Envelope{
		SessionID:   sessionID,
		Kind:        metrics.Kind(msg),
		ICAO:        msg.ICAO().String(),
		TimestampNs: msg.TimestampNs(),
		PublishedAt: at.UTC(),
	}

	switch m := msg.(type) {
	case adsb.Identification:
		cs := m.CallSign.String()
		env.Category, env.CallSign = &m.Category, &cs
	case adsb.AirbornePosition:
		env.AltitudeMeters, env.Parity = &m.AltitudeMeters, &m.Parity
		env.CPRX, env.CPRY = &m.X, &m.Y
	case adsb.AirborneVelocity:
		env.SpeedMps, env.TrackRadians = &m.Speed, &m.TrackOrHeading
	}
	return env
}
