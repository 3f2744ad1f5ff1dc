// Package curve implements the Curve25519 primitive provider named as an
// external collaborator by the protocol specification: X25519 key
// agreement and XEdDSA-shaped signatures over byte-string messages (such
// as 33-byte signed-prekey public keys), using the
// type-prefixed 33-byte public key wire form deployed identity/prekey
// bundles use.
package curve

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"
)

const (
	// djbType is the Curve25519 type-prefix byte prepended to every wire
	// public key, matching deployed identity/prekey bundle framing.
	djbType byte = 0x05

	// PublicKeySize is the wire size of a type-prefixed public key.
	PublicKeySize = 33
	// PrivateKeySize is the size of a private scalar.
	PrivateKeySize = 32
	// SignatureSize is the size of an XEdDSA-style signature.
	SignatureSize = 64
)

// PrivateKey is a 32-byte clamped Curve25519 scalar.
type PrivateKey [32]byte

// PublicKey is a 33-byte type-prefixed Curve25519 public key: 0x05 followed
// by the 32-byte X25519 u-coordinate.
type PublicKey [33]byte

// KeyPair is a Curve25519 identity, signed-prekey, or one-time prekey.
type KeyPair struct {
	Priv PrivateKey
	Pub  PublicKey
}

// GenerateKeyPair produces a fresh clamped Curve25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	var priv PrivateKey
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, err
	}
	clamp(&priv)

	pub, err := publicFromPrivate(priv)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Priv: priv, Pub: pub}, nil
}

func clamp(priv *PrivateKey) {
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
}

func publicFromPrivate(priv PrivateKey) (PublicKey, error) {
	raw, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return PublicKey{}, err
	}
	var pub PublicKey
	pub[0] = djbType
	copy(pub[1:], raw)
	return pub, nil
}

// Agree performs X25519(ourPriv, theirPub), stripping the type prefix from
// theirPub before the scalar multiplication.
func Agree(theirPub PublicKey, ourPriv PrivateKey) ([32]byte, error) {
	if theirPub[0] != djbType {
		return [32]byte{}, ErrInvalidKey
	}
	raw, err := curve25519.X25519(ourPriv[:], theirPub[1:])
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

// DecodePublicKey parses a 33-byte type-prefixed public key.
func DecodePublicKey(b []byte) (PublicKey, error) {
	if len(b) != PublicKeySize || b[0] != djbType {
		return PublicKey{}, ErrInvalidKey
	}
	var pub PublicKey
	copy(pub[:], b)
	return pub, nil
}
