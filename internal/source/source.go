// Package source provides the streams of raw messages the decoder consumes:
// demodulated samples, recorded frames and Beast feeds.
package source

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
	"es1090/internal/demod"
)

// Source yields raw messages in arrival order. Next returns nil and a nil
// error once the stream is exhausted. A Source is owned by a single
// goroutine.
type Source interface {
	Next(ctx context.Context) (*adsb.RawMessage, error)
}

// Samples demodulates a stream of 12-bit samples.
type Samples struct {
	demodulator *demod.Demodulator
}

// NewSamples returns a source demodulating the samples read from r.
func NewSamples(r io.Reader, logger *logrus.Logger) (*Samples, error) {
	d, err := demod.NewDemodulator(r, logger)
	if err != nil {
		return nil, err
	}
	return &Samples{demodulator: d}, nil
}

// Next returns the next demodulated frame. Cancellation is only checked
// between frames.
func (s *Samples) Next(ctx context.Context) (*adsb.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.demodulator.Next()
}

// Stats returns the demodulator counters.
func (s *Samples) Stats() demod.Stats {
	return s.demodulator.Stats()
}
