package primitives

import "crypto/sha512"

// SHA512 returns the 64-byte SHA-512 digest of data.
func SHA512(data []byte) [64]byte {
	return sha512.Sum512(data)
}
