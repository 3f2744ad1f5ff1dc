package wire

import (
	"signalcore/curve"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	keyExchangeTagID               protowire.Number = 1
	keyExchangeTagBaseKey          protowire.Number = 2
	keyExchangeTagEphemeralKey     protowire.Number = 3
	keyExchangeTagIdentityKey      protowire.Number = 4
	keyExchangeTagBaseKeySignature protowire.Number = 5
)

// KeyExchangeMessage is the out-of-band synchronous handshake record; the
// asynchronous PreKey path (WhisperMessage/PreKeyWhisperMessage) is the one
// SessionBuilder drives, but this framing is retained for interoperability
// with the synchronous key-exchange flow.
type KeyExchangeMessage struct {
	ID               uint32
	BaseKey          curve.PublicKey
	EphemeralKey     curve.PublicKey
	IdentityKey      curve.PublicKey
	BaseKeySignature []byte
}

// Encode serializes the record body.
func (m *KeyExchangeMessage) Encode() []byte {
	var b []byte
	b = appendVarintField(b, keyExchangeTagID, uint64(m.ID))
	b = appendBytesField(b, keyExchangeTagBaseKey, m.BaseKey[:])
	b = appendBytesField(b, keyExchangeTagEphemeralKey, m.EphemeralKey[:])
	b = appendBytesField(b, keyExchangeTagIdentityKey, m.IdentityKey[:])
	b = appendBytesField(b, keyExchangeTagBaseKeySignature, m.BaseKeySignature)
	return b
}

// DecodeKeyExchangeMessage parses a record body previously produced by Encode.
func DecodeKeyExchangeMessage(b []byte) (*KeyExchangeMessage, error) {
	var m KeyExchangeMessage
	var haveID, haveBase, haveEph, haveIdentity, haveSig bool

	err := walkFields(b, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case keyExchangeTagID:
			m.ID = uint32(varintFromRaw(raw))
			haveID = true
		case keyExchangeTagBaseKey:
			pub, err := curve.DecodePublicKey(raw)
			if err != nil {
				return ErrMalformed
			}
			m.BaseKey = pub
			haveBase = true
		case keyExchangeTagEphemeralKey:
			pub, err := curve.DecodePublicKey(raw)
			if err != nil {
				return ErrMalformed
			}
			m.EphemeralKey = pub
			haveEph = true
		case keyExchangeTagIdentityKey:
			pub, err := curve.DecodePublicKey(raw)
			if err != nil {
				return ErrMalformed
			}
			m.IdentityKey = pub
			haveIdentity = true
		case keyExchangeTagBaseKeySignature:
			m.BaseKeySignature = append([]byte{}, raw...)
			haveSig = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveID || !haveBase || !haveEph || !haveIdentity || !haveSig {
		return nil, ErrMissingField
	}
	return &m, nil
}
