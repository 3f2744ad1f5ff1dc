package curve

import "errors"

var (
	// ErrInvalidKey is returned when a public or private key buffer has the
	// wrong length or an invalid type prefix.
	ErrInvalidKey = errors.New("curve: invalid key")
	// ErrInvalidSignature is returned when a signature buffer has the wrong length.
	ErrInvalidSignature = errors.New("curve: invalid signature length")
)
