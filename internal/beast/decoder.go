package beast

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// maxBuffer is the initial capacity of the pending byte buffer.
const maxBuffer = 4096

// Decoder splits a Beast byte stream into messages. Data may be fed in
// chunks of any size; incomplete frames are kept until the next call.
type Decoder struct {
	logger  *logrus.Logger
	buffer  []byte
	skipped uint64
}

// NewDecoder creates a new Beast decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, maxBuffer),
	}
}

// Skipped returns the number of bytes dropped while resynchronizing.
func (d *Decoder) Skipped() uint64 {
	return d.skipped
}

// Decode appends data to the pending bytes and returns every complete message.
func (d *Decoder) Decode(data []byte) []*Message {
	d.buffer = append(d.buffer, data...)

	var messages []*Message
	for {
		start := d.findFrameStart()
		if start < 0 {
			// Keep a trailing sync byte, it may start the next frame.
			keep := 0
			if n := len(d.buffer); n > 0 && d.buffer[n-1] == SyncByte {
				keep = 1
			}
			d.drop(len(d.buffer) - keep)
			break
		}
		d.drop(start)

		msg, consumed, status := d.parseFrame()
		if status == frameIncomplete {
			break
		}
		if status == frameBroken {
			// Resume at the sync byte that interrupted the frame.
			d.logger.WithFields(logrus.Fields{
				"message_type": fmt.Sprintf("0x%02x", d.buffer[1]),
				"consumed":     consumed,
			}).Debug("Truncated Beast frame, resynchronizing")
			d.drop(consumed)
			continue
		}

		d.buffer = d.buffer[consumed:]
		messages = append(messages, msg)
	}

	if cap(d.buffer) > 2*maxBuffer {
		d.buffer = append(make([]byte, 0, maxBuffer), d.buffer...)
	}
	return messages
}

func (d *Decoder) drop(n int) {
	d.skipped += uint64(n)
	d.buffer = d.buffer[n:]
}

// findFrameStart returns the index of the first sync byte followed by a known
// message type, or -1.
func (d *Decoder) findFrameStart() int {
	for i := 0; i+1 < len(d.buffer); i++ {
		if d.buffer[i] != SyncByte {
			continue
		}
		if d.buffer[i+1] == SyncByte {
			// Escaped data byte of a frame we did not see the start of.
			i++
			continue
		}
		if dataLength(d.buffer[i+1]) > 0 {
			return i
		}
	}
	return -1
}

type frameStatus int

const (
	frameComplete frameStatus = iota
	frameIncomplete
	frameBroken
)

// parseFrame unescapes the frame at the start of the buffer. It returns the
// number of buffer bytes the frame used, or for a broken frame the offset of
// the sync byte that interrupted it.
func (d *Decoder) parseFrame() (*Message, int, frameStatus) {
	messageType := d.buffer[1]
	body := make([]byte, 0, headerLen+dataLength(messageType))

	i := 2
	for len(body) < cap(body) {
		if i >= len(d.buffer) {
			return nil, 0, frameIncomplete
		}
		b := d.buffer[i]
		if b == SyncByte {
			if i+1 >= len(d.buffer) {
				return nil, 0, frameIncomplete
			}
			if d.buffer[i+1] != SyncByte {
				return nil, i, frameBroken
			}
			i++
		}
		body = append(body, b)
		i++
	}

	var timestamp uint64
	for _, b := range body[:timestampLen] {
		timestamp = timestamp<<8 | uint64(b)
	}
	return &Message{
		MessageType: messageType,
		Timestamp:   timestamp,
		Signal:      body[timestampLen],
		Data:        body[headerLen:],
	}, i, frameComplete
}
