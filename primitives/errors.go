package primitives

import "errors"

var (
	// ErrInvalidArgument is returned by HKDF when the salt length or chunk
	// count falls outside the bounds the ratchet relies on.
	ErrInvalidArgument = errors.New("primitives: invalid argument")
	// ErrDecrypt is returned by Decrypt on a PKCS#7 padding or length failure.
	ErrDecrypt = errors.New("primitives: decrypt failed")
)
