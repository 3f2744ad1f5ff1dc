package sessioncipher

import (
	"context"
	"sync"

	"signalcore/address"
	"signalcore/curve"
	"signalcore/storage"
)

// memStore is an in-memory storage.Store used only by tests in this
// package; the production backend lives in redisstore.
type memStore struct {
	mu sync.Mutex

	identity     *storage.IdentityKeyPair
	registration uint32

	sessions map[string][]byte

	signedPreKeys map[uint32]*storage.SignedPreKeyRecord
	oneTimeKeys   map[uint32]*storage.PreKeyRecord

	untrusted map[string]bool
}

func newMemStore(identity *storage.IdentityKeyPair, registration uint32) *memStore {
	return &memStore{
		identity:      identity,
		registration:  registration,
		sessions:      make(map[string][]byte),
		signedPreKeys: make(map[uint32]*storage.SignedPreKeyRecord),
		oneTimeKeys:   make(map[uint32]*storage.PreKeyRecord),
		untrusted:     make(map[string]bool),
	}
}

func (m *memStore) LoadSession(_ context.Context, addr address.ProtocolAddress) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[addr.String()], nil
}

func (m *memStore) StoreSession(_ context.Context, addr address.ProtocolAddress, record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[addr.String()] = record
	return nil
}

func (m *memStore) IsTrustedIdentity(_ context.Context, id string, _ curve.PublicKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.untrusted[id], nil
}

func (m *memStore) setUntrusted(id string, untrusted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.untrusted[id] = untrusted
}

func (m *memStore) LoadPreKey(_ context.Context, id uint32) (*storage.PreKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oneTimeKeys[id], nil
}

func (m *memStore) RemovePreKey(_ context.Context, id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.oneTimeKeys, id)
	return nil
}

func (m *memStore) LoadSignedPreKey(_ context.Context, id uint32) (*storage.SignedPreKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signedPreKeys[id], nil
}

func (m *memStore) GetOurIdentity(_ context.Context) (*storage.IdentityKeyPair, error) {
	return m.identity, nil
}

func (m *memStore) GetOurRegistrationID(_ context.Context) (uint32, error) {
	return m.registration, nil
}
