// Package protoerr defines the typed error taxonomy exposed by the session
// machinery to its callers, so a caller can branch on failure kind (retry
// with another session, drop the packet, surface a trust prompt) instead of
// matching error strings.
package protoerr

import "fmt"

// SessionError reports a failure in session lookup or ratchet bookkeeping
// that carries a short diagnostic (missing record, chain closed, skipped
// too far ahead) but does not necessarily imply record corruption.
type SessionError struct {
	Msg string
}

func (e *SessionError) Error() string { return "session: " + e.Msg }

func NewSessionError(msg string) *SessionError { return &SessionError{Msg: msg} }

// UntrustedIdentityKeyError reports that storage no longer trusts the
// remote identity key bound to a session.
type UntrustedIdentityKeyError struct {
	ID  string
	Key []byte
}

func (e *UntrustedIdentityKeyError) Error() string {
	return fmt.Sprintf("untrusted identity key for %s", e.ID)
}

func NewUntrustedIdentityKeyError(id string, key []byte) *UntrustedIdentityKeyError {
	return &UntrustedIdentityKeyError{ID: id, Key: key}
}

// MessageCounterError reports that the message key for a given counter was
// already consumed or was never filled (replay, or a frame far outside the
// skip window).
type MessageCounterError struct {
	Msg string
}

func (e *MessageCounterError) Error() string { return "message counter: " + e.Msg }

func NewMessageCounterError(msg string) *MessageCounterError {
	return &MessageCounterError{Msg: msg}
}

// InvalidSignatureError reports a failed XEdDSA verification of a signed
// prekey against its advertised identity key.
type InvalidSignatureError struct{}

func (e *InvalidSignatureError) Error() string { return "invalid signed prekey signature" }

func NewInvalidSignatureError() *InvalidSignatureError { return &InvalidSignatureError{} }

// InvalidKeyIdError reports a reference to a signed prekey or one-time
// prekey id that storage does not have.
type InvalidKeyIdError struct {
	KeyID uint32
}

func (e *InvalidKeyIdError) Error() string { return fmt.Sprintf("invalid key id %d", e.KeyID) }

func NewInvalidKeyIdError(keyID uint32) *InvalidKeyIdError { return &InvalidKeyIdError{KeyID: keyID} }

// MacError reports a failed constant-time MAC comparison during decrypt.
type MacError struct{}

func (e *MacError) Error() string { return "mac verification failed" }

func NewMacError() *MacError { return &MacError{} }

// DecryptError reports an AES-CBC padding failure or other symmetric
// decrypt failure independent of the MAC check.
type DecryptError struct {
	Msg string
}

func (e *DecryptError) Error() string { return "decrypt: " + e.Msg }

func NewDecryptError(msg string) *DecryptError { return &DecryptError{Msg: msg} }

// PreKeyError reports a failure specific to one-time prekey handling
// during incoming session construction (already consumed, storage
// mismatch) that is fatal to the current message but not to the record.
type PreKeyError struct {
	Msg string
}

func (e *PreKeyError) Error() string { return "prekey: " + e.Msg }

func NewPreKeyError(msg string) *PreKeyError { return &PreKeyError{Msg: msg} }
