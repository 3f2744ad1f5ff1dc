// Package redisstore implements storage.Store against Redis, the
// persistence backend the session machinery treats as an external
// collaborator.
package redisstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"signalcore/address"
	"signalcore/config"
	"signalcore/curve"
	"signalcore/storage"

	"github.com/redis/go-redis/v9"
)

// Store is a storage.Store backed by a single Redis client, scoped to one
// local identity named OwnerID.
type Store struct {
	Client  *redis.Client
	OwnerID string
}

// New returns a Store for ownerID using client.
func New(client *redis.Client, ownerID string) *Store {
	return &Store{Client: client, OwnerID: ownerID}
}

func (s *Store) LoadSession(ctx context.Context, addr address.ProtocolAddress) ([]byte, error) {
	key := fmt.Sprintf(config.SessionRecordKey, s.OwnerID, addr.String())
	val, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *Store) StoreSession(ctx context.Context, addr address.ProtocolAddress, record []byte) error {
	key := fmt.Sprintf(config.SessionRecordKey, s.OwnerID, addr.String())
	return s.Client.Set(ctx, key, record, 0).Err()
}

// IsTrustedIdentity applies trust-on-first-use: the first identity key
// ever seen for id is pinned and trusted; a mismatching key thereafter is
// untrusted until whatever out-of-band policy the caller layers on top
// re-pins it.
func (s *Store) IsTrustedIdentity(ctx context.Context, id string, remoteIdentityKey curve.PublicKey) (bool, error) {
	key := fmt.Sprintf(config.TrustedIdentityKey, s.OwnerID, id)
	pinned, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		encoded := base64.StdEncoding.EncodeToString(remoteIdentityKey[:])
		if err := s.Client.Set(ctx, key, encoded, 0).Err(); err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return pinned == base64.StdEncoding.EncodeToString(remoteIdentityKey[:]), nil
}

// RevokeTrust forgets the pinned identity key for id, so the next
// IsTrustedIdentity call re-pins whatever key it observes; useful for
// tests and explicit "reset trust" operator flows.
func (s *Store) RevokeTrust(ctx context.Context, id string) error {
	key := fmt.Sprintf(config.TrustedIdentityKey, s.OwnerID, id)
	return s.Client.Del(ctx, key).Err()
}

func (s *Store) LoadPreKey(ctx context.Context, id uint32) (*storage.PreKeyRecord, error) {
	key := fmt.Sprintf(config.OneTimePreKeyKey, s.OwnerID, id)
	raw, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodePreKeyRecord(id, raw)
}

func (s *Store) RemovePreKey(ctx context.Context, id uint32) error {
	key := fmt.Sprintf(config.OneTimePreKeyKey, s.OwnerID, id)
	return s.Client.Del(ctx, key).Err()
}

// StorePreKey publishes a one-time prekey under this owner, for a peer to
// later fetch as part of a bundle.
func (s *Store) StorePreKey(ctx context.Context, rec *storage.PreKeyRecord) error {
	key := fmt.Sprintf(config.OneTimePreKeyKey, s.OwnerID, rec.ID)
	return s.Client.Set(ctx, key, encodePreKeyRecord(rec), 0).Err()
}

func (s *Store) LoadSignedPreKey(ctx context.Context, id uint32) (*storage.SignedPreKeyRecord, error) {
	key := fmt.Sprintf(config.SignedPreKeyKey, s.OwnerID, id)
	raw, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSignedPreKeyRecord(id, raw)
}

// StoreSignedPreKey publishes a signed prekey under this owner.
func (s *Store) StoreSignedPreKey(ctx context.Context, rec *storage.SignedPreKeyRecord) error {
	key := fmt.Sprintf(config.SignedPreKeyKey, s.OwnerID, rec.ID)
	return s.Client.Set(ctx, key, encodeSignedPreKeyRecord(rec), 0).Err()
}

func (s *Store) GetOurIdentity(ctx context.Context) (*storage.IdentityKeyPair, error) {
	key := fmt.Sprintf(config.IdentityKeyPairKey, s.OwnerID)
	raw, err := s.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	return decodeIdentityKeyPair(raw)
}

// StoreOurIdentity persists the process-wide identity key pair for this
// owner; called once at provisioning time.
func (s *Store) StoreOurIdentity(ctx context.Context, kp *storage.IdentityKeyPair) error {
	key := fmt.Sprintf(config.IdentityKeyPairKey, s.OwnerID)
	return s.Client.Set(ctx, key, encodeIdentityKeyPair(kp), 0).Err()
}

func (s *Store) GetOurRegistrationID(ctx context.Context) (uint32, error) {
	key := fmt.Sprintf(config.RegistrationIDKey, s.OwnerID)
	val, err := s.Client.Get(ctx, key).Uint64()
	if err != nil {
		return 0, err
	}
	return uint32(val), nil
}

// StoreOurRegistrationID persists the process-wide registration id for
// this owner; called once at provisioning time.
func (s *Store) StoreOurRegistrationID(ctx context.Context, regID uint32) error {
	key := fmt.Sprintf(config.RegistrationIDKey, s.OwnerID)
	return s.Client.Set(ctx, key, regID, 0).Err()
}
