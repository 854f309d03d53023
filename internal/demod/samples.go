// Package demod turns a stream of 12-bit real samples into validated Mode S
// extended squitters.
//
// The stages are pulled synchronously: the Demodulator reads from a
// PowerWindow, which reads whole batches from a PowerComputer, which reads
// from a SamplesDecoder. None of them is safe for concurrent use.
package demod

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Bias is subtracted from the unsigned 12-bit samples to center them on zero.
const Bias = 2048

var (
	// ErrBatchSize is returned for batch sizes the stage cannot work with, and
	// wrapped by the panic raised when a batch buffer has the wrong length.
	ErrBatchSize = errors.New("demod: invalid batch size")
	// ErrWindowSize is returned for window sizes outside of [1, BatchSize].
	ErrWindowSize = errors.New("demod: invalid window size")
	// ErrIndex is wrapped by the panic raised on a read outside of the window.
	ErrIndex = errors.New("demod: window index out of range")
)

// SamplesDecoder reads batches of 12-bit samples stored little-endian on two
// bytes each and returns them as signed values in [-2048, 2047].
type SamplesDecoder struct {
	r         io.Reader
	batchSize int
	raw       []byte
}

// NewSamplesDecoder returns a decoder reading batchSize samples at a time
// from r.
func NewSamplesDecoder(r io.Reader, batchSize int) (*SamplesDecoder, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d samples", ErrBatchSize, batchSize)
	}
	if r == nil {
		return nil, errors.New("demod: nil sample reader")
	}
	return &SamplesDecoder{r: r, batchSize: batchSize, raw: make([]byte, 2*batchSize)}, nil
}

// BatchSize returns the number of samples read by each ReadBatch call.
func (d *SamplesDecoder) BatchSize() int {
	return d.batchSize
}

// ReadBatch fills batch, which must hold exactly BatchSize samples, and
// returns the number of samples decoded. Fewer than BatchSize samples are
// returned only at the end of the stream, where a trailing odd byte is
// dropped. The error is nil at the end of the stream.
func (d *SamplesDecoder) ReadBatch(batch []int16) (int, error) {
	if len(batch) != d.batchSize {
		panic(fmt.Errorf("%w: batch of %d samples, want %d", ErrBatchSize, len(batch), d.batchSize))
	}

	n, err := io.ReadFull(d.r, d.raw)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("failed to read samples: %w", err)
	}

	count := n / 2
	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint16(d.raw[2*i:]) & 0x0FFF
		batch[i] = int16(v) - Bias
	}
	return count, nil
}
