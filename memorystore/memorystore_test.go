package memorystore

import (
	"context"
	"testing"

	"signalcore/address"
	"signalcore/curve"
	"signalcore/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	addr := address.New("bob", 1)

	data, err := s.LoadSession(ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.StoreSession(ctx, addr, []byte("record")))
	data, err = s.LoadSession(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), data)
}

func TestTrustOnFirstUseThenPinned(t *testing.T) {
	s := New()
	ctx := context.Background()
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	other, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	trusted, err := s.IsTrustedIdentity(ctx, "bob", kp.Pub)
	require.NoError(t, err)
	assert.True(t, trusted)

	trusted, err = s.IsTrustedIdentity(ctx, "bob", other.Pub)
	require.NoError(t, err)
	assert.False(t, trusted)

	s.RevokeTrust("bob")
	trusted, err = s.IsTrustedIdentity(ctx, "bob", other.Pub)
	require.NoError(t, err)
	assert.True(t, trusted)
}

func TestIdentityAndPreKeyAccessors(t *testing.T) {
	s := New()
	ctx := context.Background()
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	s.SetIdentity(&storage.IdentityKeyPair{Pub: kp.Pub, Priv: kp.Priv})
	s.SetRegistrationID(42)

	prekeyKP, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	s.AddPreKey(&storage.PreKeyRecord{ID: 3, KeyPair: *prekeyKP})

	gotIdentity, err := s.GetOurIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, kp.Pub, gotIdentity.Pub)

	gotRegID, err := s.GetOurRegistrationID(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 42, gotRegID)

	gotPreKey, err := s.LoadPreKey(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, gotPreKey)
	assert.Equal(t, uint32(3), gotPreKey.ID)

	require.NoError(t, s.RemovePreKey(ctx, 3))
	gotPreKey, err = s.LoadPreKey(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, gotPreKey)
}
