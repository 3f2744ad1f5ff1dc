package sessionbuilder

import (
	"context"

	"signalcore/address"
	"signalcore/curve"
	"signalcore/storage"
)

// fakeStore is a minimal storage.Store used only by tests in this package.
type fakeStore struct {
	identity            *storage.IdentityKeyPair
	missingSignedPreKey bool
}

func (f fakeStore) LoadSession(context.Context, address.ProtocolAddress) ([]byte, error) {
	return nil, nil
}
func (f fakeStore) StoreSession(context.Context, address.ProtocolAddress, []byte) error { return nil }
func (f fakeStore) IsTrustedIdentity(context.Context, string, curve.PublicKey) (bool, error) {
	return true, nil
}
func (f fakeStore) LoadPreKey(context.Context, uint32) (*storage.PreKeyRecord, error) {
	return nil, nil
}
func (f fakeStore) RemovePreKey(context.Context, uint32) error { return nil }
func (f fakeStore) LoadSignedPreKey(context.Context, uint32) (*storage.SignedPreKeyRecord, error) {
	if f.missingSignedPreKey {
		return nil, nil
	}
	return &storage.SignedPreKeyRecord{}, nil
}
func (f fakeStore) GetOurIdentity(context.Context) (*storage.IdentityKeyPair, error) {
	return f.identity, nil
}
func (f fakeStore) GetOurRegistrationID(context.Context) (uint32, error) { return 1, nil }
