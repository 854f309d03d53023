package beast

import (
	"es1090/internal/adsb"
)

// Beast mode message types
const (
	SyncByte   = 0x1A // Beast mode sync byte, doubled when it appears in a body
	ModeAC     = 0x31 // Mode A/C
	ModeS      = 0x32 // Mode S Short (56 bits)
	ModeSLong  = 0x33 // Mode S Long (112 bits)
	ModeStatus = 0x34 // Status
)

// Body layout after the type byte
const (
	timestampLen = 6
	signalLen    = 1
	headerLen    = timestampLen + signalLen
)

// ClockHz is the frequency of the 48-bit Beast timestamp counter.
const ClockHz = 12_000_000

// Message is one unescaped Beast frame.
type Message struct {
	MessageType byte
	// Timestamp is the 48-bit receiver clock, in ticks of 1/ClockHz second.
	Timestamp uint64
	Signal    byte
	Data      []byte
}

// TimestampNs converts the receiver clock to nanoseconds.
func (msg *Message) TimestampNs() int64 {
	const nsPerSecond = 1_000_000_000
	seconds, ticks := msg.Timestamp/ClockHz, msg.Timestamp%ClockHz
	return int64(seconds)*nsPerSecond + int64(ticks)*nsPerSecond/ClockHz
}

// DownlinkFormat returns the DF of a Mode S message, or -1 for other types.
func (msg *Message) DownlinkFormat() int {
	if msg.MessageType != ModeS && msg.MessageType != ModeSLong || len(msg.Data) == 0 {
		return -1
	}
	return adsb.DownlinkFormat(msg.Data[0])
}

// IsExtendedSquitter reports whether msg carries a complete DF17 frame.
func (msg *Message) IsExtendedSquitter() bool {
	return msg.MessageType == ModeSLong &&
		len(msg.Data) == adsb.RawMessageLength &&
		adsb.RawMessageSize(msg.Data[0]) == adsb.RawMessageLength
}

// dataLength returns the number of data bytes of a message type, or 0 for
// unknown types.
func dataLength(messageType byte) int {
	switch messageType {
	case ModeAC, ModeStatus:
		return 2
	case ModeS:
		return 7
	case ModeSLong:
		return 14
	default:
		return 0
	}
}

// Encode serializes msg, escaping every sync byte of its body.
func Encode(msg *Message) []byte {
	body := make([]byte, 0, headerLen+len(msg.Data))
	for i := timestampLen - 1; i >= 0; i-- {
		body = append(body, byte(msg.Timestamp>>(8*uint(i))))
	}
	body = append(body, msg.Signal)
	body = append(body, msg.Data...)

	out := []byte{SyncByte, msg.MessageType}
	for _, b := range body {
		out = append(out, b)
		if b == SyncByte {
			out = append(out, SyncByte)
		}
	}
	return out
}
