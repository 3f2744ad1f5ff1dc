package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgreeSymmetric(t *testing.T) {
	a, err := GenerateKeyPair()
	require.NoError(t, err)
	b, err := GenerateKeyPair()
	require.NoError(t, err)

	sa, err := Agree(b.Pub, a.Priv)
	require.NoError(t, err)
	sb, err := Agree(a.Pub, b.Priv)
	require.NoError(t, err)

	assert.Equal(t, sa, sb)
}

func TestAgreeRejectsBadTypePrefix(t *testing.T) {
	a, err := GenerateKeyPair()
	require.NoError(t, err)
	bad := a.Pub
	bad[0] = 0x01

	_, err = Agree(bad, a.Priv)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("session established")
	sig, err := Sign(kp.Priv, msg)
	require.NoError(t, err)
	assert.Len(t, sig, SignatureSize)

	assert.True(t, Verify(kp.Pub, msg, sig))
}

func TestVerifyFailsClosed(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	other, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("session established")
	sig, err := Sign(kp.Priv, msg)
	require.NoError(t, err)

	assert.False(t, Verify(other.Pub, msg, sig), "signature must not verify under an unrelated key")
	assert.False(t, Verify(kp.Pub, []byte("tampered"), sig), "signature must not verify over a different message")

	tampered := append([]byte{}, sig...)
	tampered[0] ^= 0xFF
	assert.False(t, Verify(kp.Pub, msg, tampered), "tampered signature must not verify")

	assert.False(t, Verify(kp.Pub, msg, sig[:10]), "short signature buffer must fail closed")
}
