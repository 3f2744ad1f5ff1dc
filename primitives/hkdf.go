package primitives

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF derives 1..3 32-byte output blocks from input, salted with a
// mandatory 32-byte salt, per RFC 5869 (extract-then-expand with
// HMAC-SHA-256): PRK = HMAC(salt, input); T(1) = HMAC(PRK, info‖0x01);
// T(i) = HMAC(PRK, T(i-1)‖info‖byte(i)).
func HKDF(input, salt, info []byte, chunks int) ([][32]byte, error) {
	if len(salt) != 32 {
		return nil, ErrInvalidArgument
	}
	if chunks < 1 || chunks > 3 {
		return nil, ErrInvalidArgument
	}

	reader := hkdf.New(sha256.New, input, salt, info)
	out := make([][32]byte, chunks)
	for i := 0; i < chunks; i++ {
		if _, err := io.ReadFull(reader, out[i][:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
