package adsb

// Parse decodes raw according to its type code. It returns nil for type codes
// that are not handled and for messages that fail to decode.
func Parse(raw *RawMessage) Message {
	switch tc := raw.TypeCode(); {
	case tc >= 1 && tc <= 4:
		if m, ok := DecodeIdentification(raw); ok {
			return m
		}
	case tc >= 9 && tc <= 18, tc >= 20 && tc <= 22:
		if m, ok := DecodeAirbornePosition(raw); ok {
			return m
		}
	case tc == 19:
		if m, ok := DecodeAirborneVelocity(raw); ok {
			return m
		}
	}
	return nil
}
