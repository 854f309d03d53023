package source

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
)

// RecordSize is the size of a recorded frame: an 8-byte big-endian timestamp
// in nanoseconds followed by the 14 frame bytes.
const RecordSize = 8 + adsb.RawMessageLength

// Recording replays frames recorded with WriteRecord. Records whose CRC is
// invalid are skipped.
type Recording struct {
	r        io.Reader
	logger   *logrus.Logger
	realtime bool
	start    time.Time
	record   [RecordSize]byte
	skipped  uint64

	// overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRecording returns a source reading records from r. With realtime set,
// each frame is delivered no earlier than its timestamp after the first call
// to Next.
func NewRecording(r io.Reader, realtime bool, logger *logrus.Logger) *Recording {
	return &Recording{
		r:        r,
		logger:   logger,
		realtime: realtime,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Skipped returns the number of records dropped because of their CRC.
func (s *Recording) Skipped() uint64 {
	return s.skipped
}

// Next returns the next recorded frame.
func (s *Recording) Next(ctx context.Context) (*adsb.RawMessage, error) {
	if s.start.IsZero() {
		s.start = s.now()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, err := io.ReadFull(s.r, s.record[:])
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn("Recording ends with a truncated record")
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		timestampNs := int64(binary.BigEndian.Uint64(s.record[:8]))
		if timestampNs < 0 {
			return nil, fmt.Errorf("invalid record timestamp %d", timestampNs)
		}
		raw, ok := adsb.NewRawMessage(timestampNs, s.record[8:])
		if !ok {
			s.skipped++
			s.logger.WithField("frame", fmt.Sprintf("%X", s.record[8:])).Debug("Skipping record with invalid CRC")
			continue
		}

		if s.realtime {
			wait := s.start.Add(time.Duration(timestampNs)).Sub(s.now())
			if wait > 0 {
				if err := s.sleep(ctx, wait); err != nil {
					return nil, err
				}
			}
		}
		return raw, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WriteRecord appends raw to w in the recording format.
func WriteRecord(w io.Writer, raw *adsb.RawMessage) error {
	var record [RecordSize]byte
	binary.BigEndian.PutUint64(record[:8], uint64(raw.TimestampNs()))
	copy(record[8:], raw.Bytes().Bytes())
	if _, err := w.Write(record[:]); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
