// Package identity renders a human-verifiable numeric fingerprint for an
// identity key, the same iterated-hash "safety number" style display
// Signal clients show for out-of-band key verification.
package identity

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strings"

	"signalcore/curve"
)

const iterations = 5200

// Fingerprint derives a 30-digit numeric fingerprint for pub scoped to
// userIdentifier (e.g. the owning address's id), by iterating SHA-512
// over pub||userIdentifier 5200 times and reducing 30 bytes of the final
// digest into six five-digit groups.
func Fingerprint(pub curve.PublicKey, userIdentifier []byte) ([30]int, error) {
	digest := append(append([]byte{}, pub[:]...), userIdentifier...)
	h := sha512.New()
	for i := 0; i < iterations; i++ {
		h.Reset()
		if _, err := h.Write(digest); err != nil {
			return [30]int{}, err
		}
		digest = h.Sum(nil)
	}

	var result [30]byte
	copy(result[:], digest[:30])

	var out [30]int
	for i := 0; i < 6; i++ {
		chunk := result[i*5 : (i+1)*5]
		num := binary.BigEndian.Uint64(append([]byte{0, 0, 0}, chunk...)) % 100000
		for j := 4; j >= 0; j-- {
			out[i*5+j] = int(num % 10)
			num /= 10
		}
	}
	return out, nil
}

// CombinedFingerprint renders the two-party safety number shown to both
// ends of a conversation: each party's identity key fingerprinted under
// that party's own id, concatenated in a fixed order (lower id first) so
// both sides render the same string.
func CombinedFingerprint(localID string, localKey curve.PublicKey, remoteID string, remoteKey curve.PublicKey) (string, error) {
	first, second := localID, remoteID
	firstKey, secondKey := localKey, remoteKey
	if remoteID < localID {
		first, second = remoteID, localID
		firstKey, secondKey = remoteKey, localKey
	}

	a, err := Fingerprint(firstKey, []byte(first))
	if err != nil {
		return "", err
	}
	b, err := Fingerprint(secondKey, []byte(second))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, group := range [][30]int{a, b} {
		for i := 0; i < 6; i++ {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			for j := 0; j < 5; j++ {
				fmt.Fprintf(&sb, "%d", group[i*5+j])
			}
		}
	}
	return sb.String(), nil
}
