package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
	"es1090/internal/beast"
)

const beastReadSize = 4096

// Beast reads extended squitters from a Beast binary feed, such as the one
// served by dump1090 on port 30005. Other message types are ignored.
type Beast struct {
	r       io.Reader
	decoder *beast.Decoder
	logger  *logrus.Logger
	buf     []byte
	pending []*adsb.RawMessage
	done    bool
	ignored uint64
}

// NewBeast returns a source decoding the Beast stream read from r.
func NewBeast(r io.Reader, logger *logrus.Logger) *Beast {
	return &Beast{
		r:       r,
		decoder: beast.NewDecoder(logger),
		logger:  logger,
		buf:     make([]byte, beastReadSize),
	}
}

// Ignored returns the number of Beast messages that were not valid extended
// squitters.
func (s *Beast) Ignored() uint64 {
	return s.ignored
}

// Next returns the next extended squitter of the feed.
func (s *Beast) Next(ctx context.Context) (*adsb.RawMessage, error) {
	for len(s.pending) == 0 {
		if s.done {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := s.r.Read(s.buf)
		if n > 0 {
			s.accept(s.decoder.Decode(s.buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			s.done = true
		} else if err != nil {
			return nil, fmt.Errorf("failed to read Beast stream: %w", err)
		}
	}

	raw := s.pending[0]
	s.pending = s.pending[1:]
	return raw, nil
}

func (s *Beast) accept(messages []*beast.Message) {
	for _, msg := range messages {
		if !msg.IsExtendedSquitter() {
			s.ignored++
			continue
		}
		raw, ok := adsb.NewRawMessage(msg.TimestampNs(), msg.Data)
		if !ok {
			s.ignored++
			s.logger.WithField("frame", fmt.Sprintf("%X", msg.Data)).Debug("Dropping Beast frame with invalid CRC")
			continue
		}
		s.pending = append(s.pending, raw)
	}
}
