package adsb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"es1090/internal/aircraft"
	"es1090/internal/bits"
)

// mustRaw builds a raw message from a hex frame, failing the test on a bad CRC
func mustRaw(t *testing.T, timestampNs int64, frame string) *RawMessage {
	t.Helper()
	raw, ok := NewRawMessage(timestampNs, bits.MustParseHex(frame).Bytes())
	require.True(t, ok, "frame %s rejected", frame)
	return raw
}

// requirePanicIs asserts that f panics with an error wrapping target
func requirePanicIs(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, target), "got %v", err)
	}()
	f()
}

func TestNewRawMessage(t *testing.T) {
	raw := mustRaw(t, 8096200, "8D392AE499107FB5C00439035DB8")

	assert.Equal(t, int64(8096200), raw.TimestampNs())
	assert.Equal(t, 17, raw.DownlinkFormat())
	assert.Equal(t, aircraft.MustParseICAOAddress("392AE4"), raw.ICAO())
	assert.Equal(t, "392AE4", raw.ICAO().String())
	assert.Equal(t, uint64(0x99107FB5C00439), raw.Payload())
	assert.Equal(t, 19, raw.TypeCode())
	assert.Equal(t, "8D392AE499107FB5C00439035DB8", raw.Bytes().String())
}

func TestNewRawMessage_BadCRC(t *testing.T) {
	raw, ok := NewRawMessage(0, bits.MustParseHex("8D4D222860AF1F17C9E5D3B8A4F8").Bytes())
	assert.False(t, ok)
	assert.Nil(t, raw)
}

func TestNewRawMessage_Contract(t *testing.T) {
	requirePanicIs(t, ErrFrameLength, func() {
		NewRawMessage(0, make([]byte, 13))
	})
	requirePanicIs(t, ErrInvalidArgument, func() {
		NewRawMessage(-1, bits.MustParseHex("8D392AE499107FB5C00439035DB8").Bytes())
	})
}

// TestNewRawMessage_CopiesFrame tests that later changes to the input buffer
// do not leak into the message
func TestNewRawMessage_CopiesFrame(t *testing.T) {
	frame := bits.MustParseHex("8D392AE499107FB5C00439035DB8").Bytes()
	raw, ok := NewRawMessage(0, frame)
	require.True(t, ok)

	frame[1] = 0
	assert.Equal(t, "392AE4", raw.ICAO().String())
}

func TestRawMessageSize(t *testing.T) {
	tests := []struct {
		name     string
		byte0    byte
		expected int
	}{
		{"DF17", 0x8D, 14},
		{"DF17 other capability", 0x8F, 14},
		{"DF18", 0x90, 0},
		{"DF11", 0x5D, 0},
		{"zero", 0x00, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RawMessageSize(tt.byte0))
		})
	}
}

func TestTypeCode(t *testing.T) {
	assert.Equal(t, 4, TypeCode(0x231445F2DB63A0))
	assert.Equal(t, 31, TypeCode(0xF82300020049B8))
}
