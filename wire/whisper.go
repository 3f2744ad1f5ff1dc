package wire

import (
	"signalcore/curve"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	whisperTagEphemeralKey     protowire.Number = 1
	whisperTagCounter          protowire.Number = 2
	whisperTagPreviousCounter  protowire.Number = 3
	whisperTagCiphertext       protowire.Number = 4
	macSize                                     = 8
)

// WhisperMessage is a ratcheted, already-encrypted message: an ephemeral
// ratchet public key, the sending-chain counters that identify the message
// key used, and the ciphertext itself.
type WhisperMessage struct {
	EphemeralKey    curve.PublicKey
	Counter         uint32
	PreviousCounter uint32
	Ciphertext      []byte
}

// Encode serializes the record body (no version byte, no MAC).
func (m *WhisperMessage) Encode() []byte {
	var b []byte
	b = appendBytesField(b, whisperTagEphemeralKey, m.EphemeralKey[:])
	b = appendVarintField(b, whisperTagCounter, uint64(m.Counter))
	b = appendVarintField(b, whisperTagPreviousCounter, uint64(m.PreviousCounter))
	b = appendBytesField(b, whisperTagCiphertext, m.Ciphertext)
	return b
}

// DecodeWhisperMessage parses a record body previously produced by Encode.
func DecodeWhisperMessage(b []byte) (*WhisperMessage, error) {
	var m WhisperMessage
	var haveEph, haveCounter, havePrev bool

	err := walkFields(b, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case whisperTagEphemeralKey:
			pub, err := curve.DecodePublicKey(raw)
			if err != nil {
				return ErrMalformed
			}
			m.EphemeralKey = pub
			haveEph = true
		case whisperTagCounter:
			m.Counter = uint32(varintFromRaw(raw))
			haveCounter = true
		case whisperTagPreviousCounter:
			m.PreviousCounter = uint32(varintFromRaw(raw))
			havePrev = true
		case whisperTagCiphertext:
			m.Ciphertext = append([]byte{}, raw...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveEph || !haveCounter || !havePrev {
		return nil, ErrMissingField
	}
	return &m, nil
}

// PackFrame produces the full outer wire frame: versionByte || encoded ||
// mac[0..8]. mac must already be the full HMAC output; only its first 8
// bytes are placed on the wire.
func PackFrame(m *WhisperMessage, mac []byte) []byte {
	encoded := m.Encode()
	frame := make([]byte, 0, 1+len(encoded)+macSize)
	frame = append(frame, VersionByte())
	frame = append(frame, encoded...)
	frame = append(frame, mac[:macSize]...)
	return frame
}

// SplitFrame validates the version byte and splits a WhisperMessage frame
// into its encoded record body and its 8-byte truncated MAC, without
// decoding the record body or checking the MAC value itself.
func SplitFrame(frame []byte) (encoded, mac []byte, err error) {
	if len(frame) < 1+macSize {
		return nil, nil, ErrMalformed
	}
	if err := CheckVersionByte(frame[0]); err != nil {
		return nil, nil, err
	}
	body := frame[1:]
	encoded = body[:len(body)-macSize]
	mac = body[len(body)-macSize:]
	return encoded, mac, nil
}
