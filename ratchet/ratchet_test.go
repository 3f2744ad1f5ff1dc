package ratchet

import (
	"testing"
	"time"

	"signalcore/curve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainKeyStepDeterministic(t *testing.T) {
	ck := ChainKey{Counter: -1, Key: make([]byte, 32)}
	next1, seed1 := chainKeyStep(&ck)
	next2, seed2 := chainKeyStep(&ck)
	assert.Equal(t, next1, next2)
	assert.Equal(t, seed1, seed2)
	assert.NotEqual(t, next1, seed1)
}

func TestFillMessageKeysRejectsTooFarAhead(t *testing.T) {
	chain := newChain(Receiving)
	chain.ChainKey.Key = make([]byte, 32)
	err := fillMessageKeys(chain, 2001)
	assert.Error(t, err)
}

func TestFillMessageKeysRejectsClosedChain(t *testing.T) {
	chain := newChain(Receiving)
	chain.ChainKey.Key = nil
	err := fillMessageKeys(chain, 1)
	assert.Error(t, err)
}

func TestFillMessageKeysPopulatesCache(t *testing.T) {
	chain := newChain(Receiving)
	chain.ChainKey.Key = make([]byte, 32)
	require.NoError(t, fillMessageKeys(chain, 3))
	assert.Len(t, chain.MessageKeys, 4) // counters 0..3
	assert.Equal(t, int32(3), chain.ChainKey.Counter)
}

func TestDeriveMessageKeyExpandsThreeDistinctValues(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	mk, err := deriveMessageKey(seed)
	require.NoError(t, err)
	assert.NotEqual(t, mk.CipherKey, mk.MacKey)
	assert.NotEqual(t, mk.CipherKey[:16], mk.IV[:])
	assert.NotEqual(t, mk.MacKey[:16], mk.IV[:])
}

func setupPair(t *testing.T) (alice, bob *State, aliceEph, bobEph *curve.KeyPair) {
	t.Helper()
	var err error
	aliceEph, err = curve.GenerateKeyPair()
	require.NoError(t, err)
	bobEph, err = curve.GenerateKeyPair()
	require.NoError(t, err)

	alice = NewState(aliceEph, []byte("base"), OURS, curve.PublicKey{}, time.Unix(0, 0))
	bob = NewState(bobEph, []byte("base"), THEIRS, curve.PublicKey{}, time.Unix(0, 0))
	return alice, bob, aliceEph, bobEph
}

func TestDHRatchetTrigger(t *testing.T) {
	alice, bob, aliceEph, bobEph := setupPair(t)

	// Both sides agree on a shared root key out of band for this test.
	root := [32]byte{}
	alice.RootKey = root
	bob.RootKey = root

	require.NoError(t, dhRatchet(alice, bobEph.Pub, true))

	// Bob observes Alice's ephemeral key for the first time.
	require.NoError(t, maybeStepRatchet(bob, aliceEph.Pub, 0))
	assert.True(t, bob.hasReceivingChain(aliceEph.Pub))
	require.NotNil(t, bob.SendingChain)
	assert.Equal(t, int32(-1), bob.SendingChain.ChainKey.Counter)
	assert.True(t, bob.HasRemoteEphemeral)
	assert.Equal(t, aliceEph.Pub, bob.LastRemoteEphemeralKey)
}

func TestMaybeStepRatchetIsNoOpForKnownEphemeral(t *testing.T) {
	_, bob, aliceEph, _ := setupPair(t)
	bob.RootKey = [32]byte{}

	require.NoError(t, maybeStepRatchet(bob, aliceEph.Pub, 0))
	firstChain := bob.ReceivingChains[chainMapKey(aliceEph.Pub)]

	require.NoError(t, maybeStepRatchet(bob, aliceEph.Pub, 0))
	secondChain := bob.ReceivingChains[chainMapKey(aliceEph.Pub)]

	assert.Same(t, firstChain, secondChain)
}
