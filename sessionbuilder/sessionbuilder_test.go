package sessionbuilder

import (
	"context"
	"testing"

	"signalcore/curve"
	"signalcore/sessionrecord"
	"signalcore/storage"
	"signalcore/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genIdentity(t *testing.T) *storage.IdentityKeyPair {
	t.Helper()
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	return &storage.IdentityKeyPair{Pub: kp.Pub, Priv: kp.Priv}
}

func TestInitOutgoingRejectsBadSignature(t *testing.T) {
	bobIdentity := genIdentity(t)
	spk, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	bundle := &storage.PreKeyBundle{
		RegistrationID: 1,
		IdentityKey:    bobIdentity.Pub,
		SignedPreKey: storage.SignedPreKeyRecord{
			ID:        1,
			KeyPair:   *spk,
			Signature: make([]byte, 64), // garbage, not a real signature
		},
	}

	aliceIdentity := genIdentity(t)
	b := &Builder{Store: fakeStore{identity: aliceIdentity}}
	_, err = b.InitOutgoing(context.Background(), bundle)
	assert.Error(t, err)
}

func TestInitOutgoingInstallsPendingPreKeyAndSendingChain(t *testing.T) {
	bobIdentity := genIdentity(t)
	spk, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	sig, err := curve.Sign(bobIdentity.Priv, spk.Pub[:])
	require.NoError(t, err)

	otk, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	bundle := &storage.PreKeyBundle{
		RegistrationID: 42,
		IdentityKey:    bobIdentity.Pub,
		SignedPreKey:   storage.SignedPreKeyRecord{ID: 1, KeyPair: *spk, Signature: sig},
		OneTimePreKey:  &storage.PreKeyRecord{ID: 7, KeyPair: *otk},
	}

	aliceIdentity := genIdentity(t)
	b := &Builder{Store: fakeStore{identity: aliceIdentity}}
	state, err := b.InitOutgoing(context.Background(), bundle)
	require.NoError(t, err)

	require.NotNil(t, state.PendingPreKey)
	assert.Equal(t, uint32(7), *state.PendingPreKey.PreKeyID)
	assert.Equal(t, uint32(1), state.PendingPreKey.SignedKeyID)
	require.NotNil(t, state.SendingChain)
	assert.Equal(t, int32(-1), state.SendingChain.ChainKey.Counter)
}

func TestInitIncomingFailsOnUnknownSignedPreKey(t *testing.T) {
	b := &Builder{Store: fakeStore{identity: genIdentity(t), missingSignedPreKey: true}}
	record := sessionrecord.New()
	msg := &wire.PreKeyWhisperMessage{SignedPreKeyID: 99}
	_, err := b.InitIncoming(context.Background(), record, msg)
	assert.Error(t, err)
}
