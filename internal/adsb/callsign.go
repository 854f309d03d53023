package adsb

import (
	"fmt"
	"regexp"
)

var callSignPattern = regexp.MustCompile(`^[A-Z0-9 ]{0,8}$`)

// CallSign is an aircraft call sign of at most eight upper-case letters,
// digits or spaces. The empty call sign means "unknown".
type CallSign string

// NewCallSign validates s.
func NewCallSign(s string) (CallSign, error) {
	if !callSignPattern.MatchString(s) {
		return "", fmt.Errorf("%w: invalid call sign %q", ErrInvalidArgument, s)
	}
	return CallSign(s), nil
}

func (c CallSign) String() string {
	return string(c)
}
