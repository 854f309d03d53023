package demod

import (
	"fmt"
	"io"
)

// BatchSize is the number of power values read from the PowerComputer at once.
const BatchSize = 1 << 16

// PowerWindow is a fixed-size window sliding over the power values of a
// sample stream. Values are kept in two batch buffers used as a ring: the
// batch holding absolute index k lives in buffer (k/BatchSize)%2, so a window
// straddling two batches needs no copy.
type PowerWindow struct {
	computer  *PowerComputer
	size      int
	buffers   [2][]uint32
	position  int64
	available int64
	exhausted bool
}

// NewPowerWindow returns a window of size values over the powers of the
// samples read from r, positioned at the start of the stream. The first
// batch is read immediately.
func NewPowerWindow(r io.Reader, size int) (*PowerWindow, error) {
	if size < 1 || size > BatchSize {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrWindowSize, size, BatchSize)
	}
	computer, err := NewPowerComputer(r, BatchSize)
	if err != nil {
		return nil, err
	}
	w := &PowerWindow{
		computer: computer,
		size:     size,
		buffers:  [2][]uint32{make([]uint32, BatchSize), make([]uint32, BatchSize)},
	}
	if err := w.fill(0); err != nil {
		return nil, err
	}
	return w, nil
}

// fill reads the next batch into the given buffer.
func (w *PowerWindow) fill(buffer int) error {
	n, err := w.computer.ReadBatch(w.buffers[buffer])
	if err != nil {
		return err
	}
	w.available += int64(n)
	if n < BatchSize {
		w.exhausted = true
	}
	return nil
}

// Size returns the number of values in the window.
func (w *PowerWindow) Size() int {
	return w.size
}

// Position returns the absolute index of the first value of the window,
// which is also the number of times the window was advanced.
func (w *PowerWindow) Position() int64 {
	return w.position
}

// IsFull reports whether every value of the window was produced by the
// stream. It becomes false for good once the window runs past the end of
// the stream.
func (w *PowerWindow) IsFull() bool {
	return w.position+int64(w.size) <= w.available
}

// Get returns the value at index i of the window. It panics with an error
// wrapping ErrIndex if i is not in [0, Size()).
func (w *PowerWindow) Get(i int) uint32 {
	if i < 0 || i >= w.size {
		panic(fmt.Errorf("%w: %d not in [0, %d)", ErrIndex, i, w.size))
	}
	a := w.position + int64(i)
	return w.buffers[(a/BatchSize)&1][a%BatchSize]
}

// Advance moves the window one value forward, reading the next batch when
// the end of the window enters it.
func (w *PowerWindow) Advance() error {
	w.position++
	end := w.position + int64(w.size) - 1
	if end%BatchSize == 0 && !w.exhausted {
		return w.fill(int((end / BatchSize) & 1))
	}
	return nil
}

// AdvanceBy advances the window n times.
func (w *PowerWindow) AdvanceBy(n int) error {
	if n < 0 {
		return fmt.Errorf("demod: cannot advance by %d", n)
	}
	for i := 0; i < n; i++ {
		if err := w.Advance(); err != nil {
			return err
		}
	}
	return nil
}
