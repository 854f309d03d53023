// Package basestation renders aircraft state updates as BaseStation (SBS)
// transmission lines.
package basestation

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
	"es1090/internal/aircraft"
	"es1090/internal/tracker"
)

// MessageType is the first field of every line written.
const MessageType = "MSG"

// Transmission types of MSG lines.
const (
	TransmissionIdentification   = 1
	TransmissionAirbornePosition = 3
	TransmissionAirborneVelocity = 4
)

const (
	dateLayout = "2006/01/02"
	timeLayout = "15:04:05.000"
)

// Message is one BaseStation transmission. Empty strings are unknown values.
type Message struct {
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	Generated        time.Time
	Logged           time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// Format returns m as a 22-field CSV line without the trailing newline.
func Format(m Message) string {
	fields := []string{
		MessageType,
		strconv.Itoa(m.TransmissionType),
		strconv.Itoa(m.SessionID),
		strconv.Itoa(m.AircraftID),
		m.HexIdent,
		strconv.Itoa(m.FlightID),
		m.Generated.Format(dateLayout),
		m.Generated.Format(timeLayout),
		m.Logged.Format(dateLayout),
		m.Logged.Format(timeLayout),
		m.Callsign,
		m.Altitude,
		m.GroundSpeed,
		m.Track,
		m.Latitude,
		m.Longitude,
		m.VerticalRate,
		m.Squawk,
		m.Alert,
		m.Emergency,
		m.SPI,
		m.IsOnGround,
	}
	return strings.Join(fields, ",")
}

// Writer turns tracker updates into lines written to out: a call sign
// change gives an identification line, a resolved position an airborne
// position line, and a new track an airborne velocity line. Other updates
// are ignored. A Writer is not safe for concurrent use.
type Writer struct {
	out       io.Writer
	logger    *logrus.Logger
	start     time.Time
	now       func() time.Time
	sessionID int

	aircraftIDs map[aircraft.ICAOAddress]int
	nextID      int
	lines       uint64
}

// NewWriter returns a writer whose generated times are start plus the
// message timestamps.
func NewWriter(out io.Writer, start time.Time, logger *logrus.Logger) *Writer {
	return &Writer{
		out:         out,
		logger:      logger,
		start:       start.UTC(),
		now:         func() time.Time { return time.Now().UTC() },
		sessionID:   1,
		aircraftIDs: make(map[aircraft.ICAOAddress]int),
		nextID:      1,
	}
}

// Handle writes the line corresponding to u, if any.
func (w *Writer) Handle(u tracker.Update) error {
	msg, ok := w.convert(u)
	if !ok {
		return nil
	}
	if _, err := io.WriteString(w.out, Format(msg)+"\n"); err != nil {
		return fmt.Errorf("failed to write SBS line: %w", err)
	}
	w.lines++
	if w.logger.IsLevelEnabled(logrus.TraceLevel) {
		w.logger.WithFields(logrus.Fields{
			"icao": msg.HexIdent,
			"type": msg.TransmissionType,
		}).Trace("SBS line written")
	}
	return nil
}

// Forget releases the aircraft ID of icao.
func (w *Writer) Forget(icao aircraft.ICAOAddress) {
	delete(w.aircraftIDs, icao)
}

// Lines is the number of lines written.
func (w *Writer) Lines() uint64 { return w.lines }

func (w *Writer) aircraftID(icao aircraft.ICAOAddress) int {
	id, ok := w.aircraftIDs[icao]
	if !ok {
		id = w.nextID
		w.nextID++
		w.aircraftIDs[icao] = id
	}
	return id
}

func (w *Writer) convert(u tracker.Update) (Message, bool) {
	s := u.State
	if s == nil {
		return Message{}, false
	}

	msg := Message{
		SessionID: w.sessionID,
		HexIdent:  u.ICAO.String(),
		Generated: w.start.Add(time.Duration(u.TimestampNs)),
		Logged:    w.now(),
	}

	switch u.Field {
	case tracker.FieldCallSign:
		msg.TransmissionType = TransmissionIdentification
		msg.Callsign = s.CallSign().String()

	case tracker.FieldPosition:
		pos, ok := s.Position()
		if !ok {
			return Message{}, false
		}
		msg.TransmissionType = TransmissionAirbornePosition
		msg.Altitude = formatAltitude(s.Altitude())
		msg.Latitude = fmt.Sprintf("%.5f", pos.LatitudeDegrees())
		msg.Longitude = fmt.Sprintf("%.5f", pos.LongitudeDegrees())
		msg.IsOnGround = "0"

	case tracker.FieldTrackOrHeading:
		msg.TransmissionType = TransmissionAirborneVelocity
		if v := s.Velocity(); !math.IsNaN(v) {
			msg.GroundSpeed = strconv.Itoa(int(adsb.ConvertTo(v, adsb.Knot) + 0.5))
		}
		track := adsb.ConvertTo(s.TrackOrHeading(), adsb.Degree)
		if track < 0 {
			track += 360
		}
		msg.Track = fmt.Sprintf("%.1f", track)

	default:
		return Message{}, false
	}

	id := w.aircraftID(u.ICAO)
	msg.AircraftID = id
	msg.FlightID = id
	return msg, true
}

// formatAltitude renders meters as whole feet, or "" when unknown.
func formatAltitude(meters float64) string {
	if math.IsNaN(meters) {
		return ""
	}
	feet := adsb.ConvertTo(meters, adsb.Foot)
	if feet < 0 {
		return strconv.Itoa(int(feet - 0.5))
	}
	return strconv.Itoa(int(feet + 0.5))
}
