package adsb

import (
	"strings"

	"es1090/internal/bits"
)

const callSignLength = 8

// DecodeIdentification decodes an identification message (type codes 1 to
// 4). It returns false if a character code is not a letter, digit or space.
func DecodeIdentification(raw *RawMessage) (Identification, bool) {
	payload := raw.Payload()
	category := (14-raw.TypeCode())<<4 | int(bits.ExtractUInt(payload, 48, 3))

	var sb strings.Builder
	for i := 0; i < callSignLength; i++ {
		code := bits.ExtractUInt(payload, 42-6*i, 6)
		c, ok := identificationChar(code)
		if !ok {
			return Identification{}, false
		}
		sb.WriteByte(c)
	}

	return Identification{
		header:   header{timestampNs: raw.TimestampNs(), icao: raw.ICAO()},
		Category: category,
		CallSign: CallSign(strings.TrimRight(sb.String(), " ")),
	}, true
}

func identificationChar(code uint32) (byte, bool) {
	switch {
	case code >= 1 && code <= 26, code >= 48 && code <= 57, code == 32:
		return ADSBCharset[code], true
	default:
		return 0, false
	}
}
