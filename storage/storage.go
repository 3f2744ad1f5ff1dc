// Package storage declares the capability set the session machinery
// depends on but never implements itself: loading and storing serialized
// sessions, querying identity trust, and fetching prekey material. A
// concrete backend (see redisstore) supplies the implementation.
package storage

import (
	"context"

	"signalcore/address"
	"signalcore/curve"
)

// IdentityKeyPair is a long-term curve25519 identity key pair.
type IdentityKeyPair struct {
	Pub  curve.PublicKey
	Priv curve.PrivateKey
}

// PreKeyRecord is a one-time prekey as held by storage before consumption.
type PreKeyRecord struct {
	ID      uint32
	KeyPair curve.KeyPair
}

// SignedPreKeyRecord is a signed prekey as held by storage.
type SignedPreKeyRecord struct {
	ID        uint32
	KeyPair   curve.KeyPair
	Signature []byte
}

// PreKeyBundle is the publishable material a sender fetches to
// unilaterally construct a session against a remote address.
type PreKeyBundle struct {
	RegistrationID uint32
	IdentityKey    curve.PublicKey
	SignedPreKey   SignedPreKeyRecord
	// OneTimePreKey is nil when the bundle carries no spare one-time key.
	OneTimePreKey *PreKeyRecord
}

// Store is the capability set the session machinery depends on.
type Store interface {
	LoadSession(ctx context.Context, addr address.ProtocolAddress) ([]byte, error) // nil, nil on absence
	StoreSession(ctx context.Context, addr address.ProtocolAddress, record []byte) error

	IsTrustedIdentity(ctx context.Context, id string, remoteIdentityKey curve.PublicKey) (bool, error)

	LoadPreKey(ctx context.Context, id uint32) (*PreKeyRecord, error) // nil, nil on absence
	RemovePreKey(ctx context.Context, id uint32) error

	LoadSignedPreKey(ctx context.Context, id uint32) (*SignedPreKeyRecord, error) // nil, nil on absence

	GetOurIdentity(ctx context.Context) (*IdentityKeyPair, error)
	GetOurRegistrationID(ctx context.Context) (uint32, error)
}
