// Package aircraft holds aircraft identities and the directory of registered
// aircraft metadata.
package aircraft

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidAddress is returned when a string is not a 24-bit ICAO address.
var ErrInvalidAddress = errors.New("aircraft: invalid ICAO address")

var addressPattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// ICAOAddress is the 24-bit address uniquely identifying an aircraft transponder.
type ICAOAddress uint32

// ParseICAOAddress parses six upper-case hexadecimal digits.
func ParseICAOAddress(s string) (ICAOAddress, error) {
	if !addressPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return ICAOAddress(v), nil
}

// MustParseICAOAddress is like ParseICAOAddress but panics on malformed input.
func MustParseICAOAddress(s string) ICAOAddress {
	a, err := ParseICAOAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the address as six upper-case hexadecimal digits.
func (a ICAOAddress) String() string {
	return fmt.Sprintf("%06X", uint32(a)&0xFFFFFF)
}
