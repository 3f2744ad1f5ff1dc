package curve

import (
	"crypto/rand"
	"crypto/sha512"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"
)

// Sign and Verify implement an XEdDSA-shaped signature: the same
// Curve25519 identity/prekey used for X25519 agreement also signs, via the
// standard birational Montgomery<->Edwards conversion, following
// https://signal.org/docs/specifications/xeddsa/.

// Sign produces a 64-byte XEdDSA signature of msg under priv.
func Sign(priv PrivateKey, msg []byte) ([]byte, error) {
	a, err := edwards25519.NewScalar().SetBytesWithClamping(append([]byte{}, priv[:]...))
	if err != nil {
		return nil, err
	}
	A := new(edwards25519.Point).ScalarBaseMult(a)

	// Force the published/hashed public point to have sign bit 0, negating
	// the scalar to compensate, so a verifier working only from the
	// Montgomery public key reconstructs the identical point.
	aEnc := A.Bytes()
	if aEnc[31]&0x80 != 0 {
		a = edwards25519.NewScalar().Negate(a)
		A = new(edwards25519.Point).Negate(A)
		aEnc = A.Bytes()
	}

	var z [64]byte
	if _, err := rand.Read(z[:]); err != nil {
		return nil, err
	}

	nonceInput := make([]byte, 0, 32+len(msg)+len(z))
	nonceInput = append(nonceInput, priv[:]...)
	nonceInput = append(nonceInput, msg...)
	nonceInput = append(nonceInput, z[:]...)
	nonceHash := sha512.Sum512(nonceInput)
	r, err := edwards25519.NewScalar().SetUniformBytes(nonceHash[:])
	if err != nil {
		return nil, err
	}

	R := new(edwards25519.Point).ScalarBaseMult(r)
	rEnc := R.Bytes()

	hInput := make([]byte, 0, 32+32+len(msg))
	hInput = append(hInput, rEnc...)
	hInput = append(hInput, aEnc...)
	hInput = append(hInput, msg...)
	hHash := sha512.Sum512(hInput)
	h, err := edwards25519.NewScalar().SetUniformBytes(hHash[:])
	if err != nil {
		return nil, err
	}

	s := edwards25519.NewScalar().MultiplyAdd(h, a, r)

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, rEnc...)
	sig = append(sig, s.Bytes()...)
	return sig, nil
}

// Verify checks an XEdDSA-style signature over msg made under pub. It fails
// closed: any malformed input is treated as a verification failure.
func Verify(pub PublicKey, msg, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	if pub[0] != djbType {
		return false
	}

	A, err := montgomeryToEdwards(pub[1:])
	if err != nil {
		return false
	}

	R := sig[:32]
	sBytes := append([]byte{}, sig[32:64]...)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(sBytes)
	if err != nil {
		return false
	}

	hInput := make([]byte, 0, 32+32+len(msg))
	hInput = append(hInput, R...)
	hInput = append(hInput, A.Bytes()...)
	hInput = append(hInput, msg...)
	hHash := sha512.Sum512(hInput)
	h, err := edwards25519.NewScalar().SetUniformBytes(hHash[:])
	if err != nil {
		return false
	}
	negH := edwards25519.NewScalar().Negate(h)

	check := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(negH, A, s)
	checkEnc := check.Bytes()

	if len(checkEnc) != len(R) {
		return false
	}
	diff := byte(0)
	for i := range R {
		diff |= checkEnc[i] ^ R[i]
	}
	return diff == 0
}

// montgomeryToEdwards recovers the sign-bit-0 Edwards point corresponding
// to a Curve25519 Montgomery u-coordinate, via y = (u-1)/(u+1).
func montgomeryToEdwards(u []byte) (*edwards25519.Point, error) {
	if len(u) != 32 {
		return nil, ErrInvalidKey
	}
	uMasked := append([]byte{}, u...)
	uMasked[31] &= 0x7F

	fu, err := new(field.Element).SetBytes(uMasked)
	if err != nil {
		return nil, err
	}

	one, err := new(field.Element).SetBytes(oneLE())
	if err != nil {
		return nil, err
	}

	numerator := new(field.Element).Subtract(fu, one)
	denominator := new(field.Element).Add(fu, one)
	denomInv := new(field.Element).Invert(denominator)
	y := new(field.Element).Multiply(numerator, denomInv)

	yBytes := y.Bytes()
	yBytes[31] &= 0x7F // sign bit 0, matching the convention Sign() enforces

	return new(edwards25519.Point).SetBytes(yBytes)
}

func oneLE() []byte {
	b := make([]byte, 32)
	b[0] = 1
	return b
}
