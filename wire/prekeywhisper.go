package wire

import (
	"signalcore/curve"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	preKeyTagPreKeyID       protowire.Number = 1
	preKeyTagBaseKey        protowire.Number = 2
	preKeyTagIdentityKey    protowire.Number = 3
	preKeyTagMessage        protowire.Number = 4
	preKeyTagRegistrationID protowire.Number = 5
	preKeyTagSignedPreKeyID protowire.Number = 6
)

// PreKeyWhisperMessage is the first message a sender transmits after
// initiating a session from a prekey bundle: it carries everything the
// receiver needs to reconstruct the same session, plus an inner
// WhisperMessage frame.
type PreKeyWhisperMessage struct {
	RegistrationID uint32
	PreKeyID       *uint32
	SignedPreKeyID uint32
	BaseKey        curve.PublicKey
	IdentityKey    curve.PublicKey
	Message        []byte // an encoded WhisperMessage wire frame
}

// Encode serializes the record body (no version byte).
func (m *PreKeyWhisperMessage) Encode() []byte {
	var b []byte
	if m.PreKeyID != nil {
		b = appendVarintField(b, preKeyTagPreKeyID, uint64(*m.PreKeyID))
	}
	b = appendBytesField(b, preKeyTagBaseKey, m.BaseKey[:])
	b = appendBytesField(b, preKeyTagIdentityKey, m.IdentityKey[:])
	b = appendBytesField(b, preKeyTagMessage, m.Message)
	b = appendVarintField(b, preKeyTagRegistrationID, uint64(m.RegistrationID))
	b = appendVarintField(b, preKeyTagSignedPreKeyID, uint64(m.SignedPreKeyID))
	return b
}

// DecodePreKeyWhisperMessage parses a record body previously produced by Encode.
func DecodePreKeyWhisperMessage(b []byte) (*PreKeyWhisperMessage, error) {
	var m PreKeyWhisperMessage
	var haveBaseKey, haveIdentityKey, haveMessage, haveRegID, haveSignedID bool

	err := walkFields(b, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case preKeyTagPreKeyID:
			id := uint32(varintFromRaw(raw))
			m.PreKeyID = &id
		case preKeyTagBaseKey:
			pub, err := curve.DecodePublicKey(raw)
			if err != nil {
				return ErrMalformed
			}
			m.BaseKey = pub
			haveBaseKey = true
		case preKeyTagIdentityKey:
			pub, err := curve.DecodePublicKey(raw)
			if err != nil {
				return ErrMalformed
			}
			m.IdentityKey = pub
			haveIdentityKey = true
		case preKeyTagMessage:
			m.Message = append([]byte{}, raw...)
			haveMessage = true
		case preKeyTagRegistrationID:
			m.RegistrationID = uint32(varintFromRaw(raw))
			haveRegID = true
		case preKeyTagSignedPreKeyID:
			m.SignedPreKeyID = uint32(varintFromRaw(raw))
			haveSignedID = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveBaseKey || !haveIdentityKey || !haveMessage || !haveRegID || !haveSignedID {
		return nil, ErrMissingField
	}
	return &m, nil
}

// PackFrame produces the full outer wire frame: versionByte || encoded.
func (m *PreKeyWhisperMessage) PackFrame() []byte {
	encoded := m.Encode()
	frame := make([]byte, 0, 1+len(encoded))
	frame = append(frame, VersionByte())
	frame = append(frame, encoded...)
	return frame
}

// UnpackPreKeyFrame validates the version byte and returns the record body.
func UnpackPreKeyFrame(frame []byte) ([]byte, error) {
	if len(frame) < 1 {
		return nil, ErrMalformed
	}
	if err := CheckVersionByte(frame[0]); err != nil {
		return nil, err
	}
	return frame[1:], nil
}
