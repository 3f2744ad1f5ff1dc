// Package memorystore implements storage.Store entirely in process memory,
// the shape a single-session demo client keeps its identity, prekeys, and
// session state in when it has no durable backend of its own (redisstore
// is the Redis-backed implementation of the same interface; the relay's
// published prekey directory is kept separately by package server).
package memorystore

import (
	"context"
	"encoding/base64"
	"sync"

	"signalcore/address"
	"signalcore/curve"
	"signalcore/storage"
)

// Store is a storage.Store backed by maps guarded by a single mutex.
// Trust is pinned on first use, exactly like redisstore.Store.
type Store struct {
	mu sync.Mutex

	identity       *storage.IdentityKeyPair
	registrationID uint32

	preKeys       map[uint32]*storage.PreKeyRecord
	signedPreKeys map[uint32]*storage.SignedPreKeyRecord
	trusted       map[string]string // id -> base64(identity key)
	sessions      map[string][]byte // address string -> serialized record
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		preKeys:       make(map[uint32]*storage.PreKeyRecord),
		signedPreKeys: make(map[uint32]*storage.SignedPreKeyRecord),
		trusted:       make(map[string]string),
		sessions:      make(map[string][]byte),
	}
}

// SetIdentity installs the local identity key pair. Called once at
// provisioning time.
func (s *Store) SetIdentity(kp *storage.IdentityKeyPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = kp
}

// SetRegistrationID installs the local registration id.
func (s *Store) SetRegistrationID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrationID = id
}

// AddPreKey publishes a one-time prekey for later consumption.
func (s *Store) AddPreKey(rec *storage.PreKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preKeys[rec.ID] = rec
}

// SetSignedPreKey installs the current signed prekey.
func (s *Store) SetSignedPreKey(rec *storage.SignedPreKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedPreKeys[rec.ID] = rec
}

func (s *Store) LoadSession(_ context.Context, addr address.ProtocolAddress) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sessions[addr.String()]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, data...), nil
}

func (s *Store) StoreSession(_ context.Context, addr address.ProtocolAddress, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[addr.String()] = append([]byte{}, record...)
	return nil
}

func (s *Store) IsTrustedIdentity(_ context.Context, id string, remoteIdentityKey curve.PublicKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	encoded := base64.StdEncoding.EncodeToString(remoteIdentityKey[:])
	pinned, ok := s.trusted[id]
	if !ok {
		s.trusted[id] = encoded
		return true, nil
	}
	return pinned == encoded, nil
}

// RevokeTrust forgets the pinned identity key for id.
func (s *Store) RevokeTrust(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trusted, id)
}

func (s *Store) LoadPreKey(_ context.Context, id uint32) (*storage.PreKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preKeys[id], nil
}

func (s *Store) RemovePreKey(_ context.Context, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.preKeys, id)
	return nil
}

func (s *Store) LoadSignedPreKey(_ context.Context, id uint32) (*storage.SignedPreKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedPreKeys[id], nil
}

func (s *Store) GetOurIdentity(_ context.Context) (*storage.IdentityKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, nil
}

func (s *Store) GetOurRegistrationID(_ context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrationID, nil
}
