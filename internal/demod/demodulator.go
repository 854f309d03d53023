package demod

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
)

const (
	// WindowSize is the number of power values examined at each position:
	// an 8 µs preamble and a 112 µs message with some margin.
	WindowSize = 1200
	// TickNs is the duration represented by one power value.
	TickNs = 100

	// bitsOffset is the window index of the first message bit.
	bitsOffset = 80
	// dfBits is the number of bits holding the downlink format.
	dfBits = 5
)

// state is the stage the demodulator is in at the current window position.
type state int

const (
	searching  state = iota // looking for a preamble peak
	candidate               // peak found, checking the downlink format
	decoding                // reading the 112 message bits
	validating              // checking the CRC of the decoded frame
)

// Stats counts demodulation outcomes since the Demodulator was created.
type Stats struct {
	Candidates     uint64
	RejectedFormat uint64
	RejectedCRC    uint64
	Accepted       uint64
}

// Demodulator finds extended squitters in a sample stream.
type Demodulator struct {
	window *PowerWindow
	logger *logrus.Logger
	frame  [adsb.RawMessageLength]byte

	candidates     atomic.Uint64
	rejectedFormat atomic.Uint64
	rejectedCRC    atomic.Uint64
	accepted       atomic.Uint64
}

// NewDemodulator returns a demodulator reading 12-bit samples from r. logger
// may be nil.
func NewDemodulator(r io.Reader, logger *logrus.Logger) (*Demodulator, error) {
	window, err := NewPowerWindow(r, WindowSize)
	if err != nil {
		return nil, err
	}
	return &Demodulator{window: window, logger: logger}, nil
}

// Next returns the next valid extended squitter, or nil at the end of the
// stream. The message timestamp is the position of its preamble in the
// stream, in nanoseconds.
func (d *Demodulator) Next() (*adsb.RawMessage, error) {
	w := d.window
	var prev, cur uint32
	st := searching

	for w.IsFull() {
		next := w.Get(1) + w.Get(11) + w.Get(36) + w.Get(46)

		switch st {
		case searching:
			if cur > prev && cur > next && cur >= 2*d.sumV() {
				st = candidate
				continue
			}

		case candidate:
			d.candidates.Add(1)
			if d.downlinkFormat() == adsb.ExtendedSquitterDF {
				st = decoding
				continue
			}
			d.rejectedFormat.Add(1)

		case decoding:
			d.decodeFrame()
			st = validating
			continue

		case validating:
			timestampNs := w.Position() * TickNs
			if raw, ok := adsb.NewRawMessage(timestampNs, d.frame[:]); ok {
				d.accepted.Add(1)
				if d.logger != nil {
					d.logger.WithFields(logrus.Fields{
						"icao":        raw.ICAO().String(),
						"timestampNs": timestampNs,
					}).Debug("Demodulated frame")
				}
				if err := w.AdvanceBy(WindowSize); err != nil {
					return nil, err
				}
				return raw, nil
			}
			d.rejectedCRC.Add(1)
		}

		// No frame at this position.
		st = searching
		prev, cur = cur, next
		if err := w.Advance(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// sumV sums the powers at positions where the preamble has no pulse.
func (d *Demodulator) sumV() uint32 {
	w := d.window
	return w.Get(5) + w.Get(15) + w.Get(20) + w.Get(25) + w.Get(30) + w.Get(40)
}

// bit decodes message bit i: a pulse in the first half of its slot is a one.
func (d *Demodulator) bit(i int) byte {
	offset := bitsOffset + 10*i
	if d.window.Get(offset) >= d.window.Get(offset+5) {
		return 1
	}
	return 0
}

func (d *Demodulator) downlinkFormat() int {
	var df int
	for i := 0; i < dfBits; i++ {
		df = df<<1 | int(d.bit(i))
	}
	return df
}

func (d *Demodulator) decodeFrame() {
	for i := range d.frame {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | d.bit(8*i+j)
		}
		d.frame[i] = b
	}
}

// Stats returns a snapshot of the counters. It may be called from any
// goroutine.
func (d *Demodulator) Stats() Stats {
	return Stats{
		Candidates:     d.candidates.Load(),
		RejectedFormat: d.rejectedFormat.Load(),
		RejectedCRC:    d.rejectedCRC.Load(),
		Accepted:       d.accepted.Load(),
	}
}
