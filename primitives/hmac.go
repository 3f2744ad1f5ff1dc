package primitives

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSHA256 returns the 32-byte HMAC-SHA-256 of data under key.
func HMACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
