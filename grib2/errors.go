package grib2

import "errors"

// Sentinel errors returned by the parser and query layer. Callers should
// branch on these with errors.Is, not on string matching.
var (
	// ErrInvalidSignature means §0 did not begin with "GRIB" or §8 was not "7777".
	ErrInvalidSignature = errors.New("grib2: invalid section signature")
	// ErrUnsupportedEdition means §0 edition was not 2.
	ErrUnsupportedEdition = errors.New("grib2: unsupported GRIB edition")
	// ErrUnexpectedSection means a section number did not match the walker's expected state.
	ErrUnexpectedSection = errors.New("grib2: unexpected section number")
	// ErrUnsupportedTemplate means §3 was not template 0, or §5 was not 0/2/3.
	// This is recoverable: the section's raw bytes are preserved.
	ErrUnsupportedTemplate = errors.New("grib2: unsupported template")
	// ErrOutOfBounds means a bit/byte read ran past the end of the buffer.
	ErrOutOfBounds = errors.New("grib2: read out of bounds")
	// ErrTruncatedPayload means §7 exhausted before N values were produced.
	// This is recoverable: remaining values are zeroed.
	ErrTruncatedPayload = errors.New("grib2: truncated data payload")
	// ErrNoMatch means a caller-supplied regex matched no inventory line.
	ErrNoMatch = errors.New("grib2: match pattern matched no message")
	// ErrInvalidPattern means a caller-supplied regex failed to compile.
	ErrInvalidPattern = errors.New("grib2: invalid match pattern")
	// ErrOutOfRange means a message index or interpolation target lies outside the valid domain.
	ErrOutOfRange = errors.New("grib2: index or point out of range")
)
