package adsb

import (
	"fmt"

	"es1090/internal/aircraft"
	"es1090/internal/bits"
)

// RawMessage is a 14-byte extended squitter whose CRC has been checked,
// together with its arrival time in nanoseconds.
type RawMessage struct {
	timestampNs int64
	bytes       bits.ByteString
}

// NewRawMessage returns the raw message for frame received at timestampNs, or
// false if its CRC is not zero. It panics with an error wrapping
// ErrFrameLength if frame is not RawMessageLength bytes long, and with one
// wrapping ErrInvalidArgument if timestampNs is negative.
func NewRawMessage(timestampNs int64, frame []byte) (*RawMessage, bool) {
	if len(frame) != RawMessageLength {
		panic(fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(frame), RawMessageLength))
	}
	if timestampNs < 0 {
		panic(fmt.Errorf("%w: negative timestamp %d", ErrInvalidArgument, timestampNs))
	}
	if CalculateCRC(frame) != 0 {
		return nil, false
	}
	return &RawMessage{timestampNs: timestampNs, bytes: bits.NewByteString(frame)}, true
}

// RawMessageSize returns the length of a message whose first byte is byte0:
// RawMessageLength for extended squitters, 0 for anything else.
func RawMessageSize(byte0 byte) int {
	if DownlinkFormat(byte0) == ExtendedSquitterDF {
		return RawMessageLength
	}
	return 0
}

// DownlinkFormat extracts the downlink format from the first byte of a frame.
func DownlinkFormat(byte0 byte) int {
	return int(bits.ExtractUInt(uint64(byte0), 3, 5))
}

// TypeCode extracts the type code from an ME field.
func TypeCode(payload uint64) int {
	return int(bits.ExtractUInt(payload, 51, 5))
}

// TimestampNs returns the arrival time of the frame in nanoseconds.
func (m *RawMessage) TimestampNs() int64 { return m.timestampNs }

// Bytes returns the whole frame.
func (m *RawMessage) Bytes() bits.ByteString { return m.bytes }

// DownlinkFormat returns the DF field of the frame.
func (m *RawMessage) DownlinkFormat() int {
	return DownlinkFormat(m.bytes.ByteAt(0))
}

// ICAO returns the transponder address in bytes 1 to 3.
func (m *RawMessage) ICAO() aircraft.ICAOAddress {
	return aircraft.ICAOAddress(m.bytes.BytesInRange(1, 4))
}

// Payload returns the 56-bit ME field.
func (m *RawMessage) Payload() uint64 {
	return m.bytes.BytesInRange(4, 11)
}

// TypeCode returns the five most significant bits of the ME field.
func (m *RawMessage) TypeCode() int {
	return TypeCode(m.Payload())
}

func (m *RawMessage) String() string {
	return fmt.Sprintf("RawMessage{timestampNs=%d, bytes=%s}", m.timestampNs, m.bytes)
}
