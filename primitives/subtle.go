package primitives

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b are equal without leaking
// timing information about where they first differ. Required for every
// MAC comparison in the ratchet.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
