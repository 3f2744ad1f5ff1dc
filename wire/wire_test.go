package wire

import (
	"testing"

	"signalcore/curve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKeyPair(t *testing.T) curve.PublicKey {
	t.Helper()
	kp, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	return kp.Pub
}

func TestWhisperMessageRoundTrip(t *testing.T) {
	m := &WhisperMessage{
		EphemeralKey:    mustKeyPair(t),
		Counter:         42,
		PreviousCounter: 7,
		Ciphertext:      []byte("ciphertext-bytes"),
	}
	encoded := m.Encode()
	got, err := DecodeWhisperMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestWhisperFramePackSplit(t *testing.T) {
	m := &WhisperMessage{EphemeralKey: mustKeyPair(t), Counter: 1, PreviousCounter: 0, Ciphertext: []byte("ct")}
	mac := make([]byte, 32)
	for i := range mac {
		mac[i] = byte(i)
	}
	frame := PackFrame(m, mac)
	assert.Equal(t, VersionByte(), frame[0])

	encoded, gotMac, err := SplitFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, mac[:8], gotMac)

	decoded, err := DecodeWhisperMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestVersionGate(t *testing.T) {
	assert.NoError(t, CheckVersionByte(VersionByte()))
	assert.NoError(t, CheckVersionByte(byte(4<<4|3))) // high nibble 4 >= 3, low nibble 3 <= 3: still compatible
	assert.ErrorIs(t, CheckVersionByte(byte(3<<4|4)), ErrUnsupportedVersion) // low nibble 4 > 3
	assert.ErrorIs(t, CheckVersionByte(byte(2<<4|2)), ErrUnsupportedVersion) // high nibble 2 < 3
}

func TestPreKeyWhisperMessageRoundTrip(t *testing.T) {
	preKeyID := uint32(7)
	m := &PreKeyWhisperMessage{
		RegistrationID: 0x1234,
		PreKeyID:       &preKeyID,
		SignedPreKeyID: 1,
		BaseKey:        mustKeyPair(t),
		IdentityKey:    mustKeyPair(t),
		Message:        []byte("inner-whisper-frame"),
	}
	encoded := m.Encode()
	got, err := DecodePreKeyWhisperMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestPreKeyWhisperMessageWithoutOneTimePreKey(t *testing.T) {
	m := &PreKeyWhisperMessage{
		RegistrationID: 1,
		SignedPreKeyID: 1,
		BaseKey:        mustKeyPair(t),
		IdentityKey:    mustKeyPair(t),
		Message:        []byte("frame"),
	}
	encoded := m.Encode()
	got, err := DecodePreKeyWhisperMessage(encoded)
	require.NoError(t, err)
	assert.Nil(t, got.PreKeyID)
	assert.Equal(t, m.RegistrationID, got.RegistrationID)
}

func TestKeyExchangeMessageRoundTrip(t *testing.T) {
	m := &KeyExchangeMessage{
		ID:               3,
		BaseKey:          mustKeyPair(t),
		EphemeralKey:     mustKeyPair(t),
		IdentityKey:      mustKeyPair(t),
		BaseKeySignature: make([]byte, 64),
	}
	encoded := m.Encode()
	got, err := DecodeKeyExchangeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	_, err := DecodeWhisperMessage(nil)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = DecodePreKeyWhisperMessage(nil)
	assert.ErrorIs(t, err, ErrMissingField)
}
