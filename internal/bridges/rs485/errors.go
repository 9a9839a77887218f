package rs485

import "errors"

// Frame-level decode errors.
var (
	ErrMalformedFrame    = errors.New("rs485: frame missing '~' start delimiter")
	ErrFrameTooShort     = errors.New("rs485: frame shorter than minimum length")
	ErrChecksumMismatch  = errors.New("rs485: frame checksum mismatch")
	ErrLengthMismatch    = errors.New("rs485: LENID declared length does not match info field")
	ErrLENIDChecksum     = errors.New("rs485: LENID nibble checksum mismatch")
	ErrNonSuccessRTN     = errors.New("rs485: response RTN indicates failure")
	ErrTruncatedResponse = errors.New("rs485: response truncated before a complete field")

	// ErrReadTimeout indicates the serial port's read deadline elapsed
	// with a zero-byte read before a complete response arrived.
	ErrReadTimeout = errors.New("rs485: read timed out waiting for response")
)
