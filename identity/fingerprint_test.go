package identity

import (
	"testing"

	"signalcore/curve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	f1, err := Fingerprint(kp.Pub, []byte("alice"))
	require.NoError(t, err)
	f2, err := Fingerprint(kp.Pub, []byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestFingerprintDiffersByIdentifier(t *testing.T) {
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	f1, err := Fingerprint(kp.Pub, []byte("alice"))
	require.NoError(t, err)
	f2, err := Fingerprint(kp.Pub, []byte("bob"))
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
}

func TestCombinedFingerprintSymmetric(t *testing.T) {
	aliceKP, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	bobKP, err := curve.GenerateKeyPair()
	require.NoError(t, err)

	fromAlice, err := CombinedFingerprint("alice", aliceKP.Pub, "bob", bobKP.Pub)
	require.NoError(t, err)
	fromBob, err := CombinedFingerprint("bob", bobKP.Pub, "alice", aliceKP.Pub)
	require.NoError(t, err)

	assert.Equal(t, fromAlice, fromBob)
}
