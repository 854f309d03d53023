package demod

import (
	"fmt"
	"io"
)

// PowerComputer turns pairs of consecutive samples into power values. Each
// value is computed over the eight most recent samples, the stream being
// preceded by six zero samples.
type PowerComputer struct {
	decoder   *SamplesDecoder
	batchSize int
	samples   []int16
	history   [8]int32
	pos       int
}

// NewPowerComputer returns a computer producing batchSize power values per
// batch. batchSize must be a positive multiple of 8.
func NewPowerComputer(r io.Reader, batchSize int) (*PowerComputer, error) {
	if batchSize <= 0 || batchSize%8 != 0 {
		return nil, fmt.Errorf("%w: %d is not a positive multiple of 8", ErrBatchSize, batchSize)
	}
	decoder, err := NewSamplesDecoder(r, 2*batchSize)
	if err != nil {
		return nil, err
	}
	return &PowerComputer{
		decoder:   decoder,
		batchSize: batchSize,
		samples:   make([]int16, 2*batchSize),
		pos:       6,
	}, nil
}

// BatchSize returns the number of power values produced by a full batch.
func (c *PowerComputer) BatchSize() int {
	return c.batchSize
}

// ReadBatch fills batch, which must hold exactly BatchSize values, and
// returns the number of values computed. A short count means the end of the
// sample stream was reached.
func (c *PowerComputer) ReadBatch(batch []uint32) (int, error) {
	if len(batch) != c.batchSize {
		panic(fmt.Errorf("%w: batch of %d values, want %d", ErrBatchSize, len(batch), c.batchSize))
	}

	n, err := c.decoder.ReadBatch(c.samples)
	if err != nil {
		return 0, err
	}

	count := n / 2
	for i := 0; i < count; i++ {
		c.push(c.samples[2*i])
		c.push(c.samples[2*i+1])
		batch[i] = c.power()
	}
	return count, nil
}

func (c *PowerComputer) push(s int16) {
	c.history[c.pos] = int32(s)
	c.pos = (c.pos + 1) & 7
}

// power combines the eight samples in history, oldest first.
func (c *PowerComputer) power() uint32 {
	h := &c.history
	x := func(j int) int32 { return h[(c.pos+j)&7] }
	a := x(0) - x(2) + x(4) - x(6)
	b := x(1) - x(3) + x(5) - x(7)
	return uint32(a*a + b*b)
}
