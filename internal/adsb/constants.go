package adsb

import "errors"

var (
	// ErrFrameLength is wrapped by the panic raised when a frame does not hold
	// exactly RawMessageLength bytes.
	ErrFrameLength = errors.New("adsb: invalid frame length")
	// ErrInvalidArgument is wrapped by errors and panics caused by values
	// outside of their domain.
	ErrInvalidArgument = errors.New("adsb: invalid argument")
)

// ADSBCharset maps the 6-bit identification character codes. Only letters,
// digits and space are valid in a call sign.
const ADSBCharset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"

// Frame layout
const (
	RawMessageLength = 14
	// ExtendedSquitterDF is the downlink format of ADS-B extended squitters.
	ExtendedSquitterDF = 17
	// ExtendedSquitterBits is the number of bits in an extended squitter.
	ExtendedSquitterBits = RawMessageLength * 8
)

// CPR encoding
const (
	CPRBits = 17
	CPRMax  = 1 << CPRBits
)

// PairWindowNs is the maximum age difference, in nanoseconds, between an even
// and an odd position message for them to be decoded together.
const PairWindowNs = int64(10e9)
