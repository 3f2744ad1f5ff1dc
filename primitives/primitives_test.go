package primitives

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESRoundTrip(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	for i := range key {
		key[i] = byte(i)
	}
	for i := range iv {
		iv[i] = byte(i + 1)
	}

	plaintexts := [][]byte{
		[]byte(""),
		[]byte("hi"),
		bytes.Repeat([]byte("a"), 16),
		bytes.Repeat([]byte("b"), 31),
	}

	for _, pt := range plaintexts {
		ct, err := Encrypt(key, iv, pt)
		require.NoError(t, err)
		got, err := Decrypt(key, iv, ct)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestAESDecryptRejectsBadPadding(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	ct, err := Encrypt(key, iv, []byte("hello"))
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xFF

	_, err = Decrypt(key, iv, ct)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestHMACSHA256Deterministic(t *testing.T) {
	key := []byte("key")
	data := []byte("data")
	assert.Equal(t, HMACSHA256(key, data), HMACSHA256(key, data))
	assert.NotEqual(t, HMACSHA256(key, data), HMACSHA256(key, []byte("other")))
	assert.Len(t, HMACSHA256(key, data), 32)
}

func TestHKDFBounds(t *testing.T) {
	salt := make([]byte, 32)
	_, err := HKDF([]byte("input"), make([]byte, 31), []byte("info"), 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = HKDF([]byte("input"), salt, []byte("info"), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = HKDF([]byte("input"), salt, []byte("info"), 4)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	out, err := HKDF([]byte("input"), salt, []byte("info"), 3)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.NotEqual(t, out[0], out[1])
	assert.NotEqual(t, out[1], out[2])
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual([]byte("abc"), []byte("abc")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("abd")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("ab")))
}
