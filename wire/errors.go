package wire

import "errors"

var (
	// ErrMalformed is returned when a wire buffer cannot be parsed against
	// the expected tag-delimited schema.
	ErrMalformed = errors.New("wire: malformed frame")
	// ErrUnsupportedVersion is returned when the version byte's compatible
	// range does not include this implementation's version.
	ErrUnsupportedVersion = errors.New("wire: unsupported protocol version")
	// ErrMissingField is returned when a required field tag never appears.
	ErrMissingField = errors.New("wire: missing required field")
)
