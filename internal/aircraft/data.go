package aircraft

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidData is returned when a metadata field does not match its format.
var ErrInvalidData = errors.New("aircraft: invalid metadata")

var (
	registrationPattern   = regexp.MustCompile(`^[A-Z0-9 .?/_+-]+$`)
	typeDesignatorPattern = regexp.MustCompile(`^[A-Z0-9]{2,4}$`)
	descriptionPattern    = regexp.MustCompile(`^[ABDGHLPRSTV-][0123468][EJPT-]$`)
)

// WakeTurbulenceCategory is the ICAO wake turbulence category of an aircraft type.
type WakeTurbulenceCategory int

const (
	WakeUnknown WakeTurbulenceCategory = iota
	WakeLight
	WakeMedium
	WakeHeavy
)

// ParseWakeTurbulenceCategory maps L, M and H to their category. Anything
// else is WakeUnknown.
func ParseWakeTurbulenceCategory(s string) WakeTurbulenceCategory {
	switch s {
	case "L":
		return WakeLight
	case "M":
		return WakeMedium
	case "H":
		return WakeHeavy
	default:
		return WakeUnknown
	}
}

func (c WakeTurbulenceCategory) String() string {
	switch c {
	case WakeLight:
		return "LIGHT"
	case WakeMedium:
		return "MEDIUM"
	case WakeHeavy:
		return "HEAVY"
	default:
		return "UNKNOWN"
	}
}

// Data is the registered metadata of an aircraft.
type Data struct {
	Registration   string                 `json:"registration"`
	TypeDesignator string                 `json:"type_designator,omitempty"`
	Model          string                 `json:"model,omitempty"`
	Description    string                 `json:"description,omitempty"`
	WakeCategory   WakeTurbulenceCategory `json:"wake_category"`
}

// Validate checks the format of every field. The type designator and the
// description may be empty.
func (d Data) Validate() error {
	if !registrationPattern.MatchString(d.Registration) {
		return fmt.Errorf("%w: registration %q", ErrInvalidData, d.Registration)
	}
	if d.TypeDesignator != "" && !typeDesignatorPattern.MatchString(d.TypeDesignator) {
		return fmt.Errorf("%w: type designator %q", ErrInvalidData, d.TypeDesignator)
	}
	if d.Description != "" && !descriptionPattern.MatchString(d.Description) {
		return fmt.Errorf("%w: description %q", ErrInvalidData, d.Description)
	}
	return nil
}

// Directory looks up aircraft metadata by address. A missing aircraft is
// reported with false and a nil error.
type Directory interface {
	Lookup(address ICAOAddress) (Data, bool, error)
}
