package ephemeris

import "errors"

// Oracle errors. Both are fatal for a run: no partial chart is ever produced.
var (
	// ErrEphemerisUnavailable indicates the oracle could not resolve a body or the house cusps.
	ErrEphemerisUnavailable = errors.New("ephemeris unavailable")

	// ErrDateOutOfRange indicates the Julian day lies outside the data files' coverage.
	ErrDateOutOfRange = errors.New("date outside ephemeris range")
)

// Output errors.
var (
	// ErrDirectoryClear indicates the output directory could not be emptied before a run.
	// Callers log it and continue.
	ErrDirectoryClear = errors.New("clearing output directory")

	// ErrSerialization indicates the snapshot could not be encoded or written.
	ErrSerialization = errors.New("writing snapshot")
)

// Input and invariant errors.
var (
	// ErrInvalidCusps indicates a longitude matched no house interval, which only happens
	// when the cusp sequence is malformed.
	ErrInvalidCusps = errors.New("longitude matched no house interval")

	// ErrInvalidLocation indicates a latitude or longitude outside its valid range.
	ErrInvalidLocation = errors.New("invalid location")
)
