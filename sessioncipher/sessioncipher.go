// Package sessioncipher orchestrates encryption and decryption for one
// remote address: chain stepping, DH ratchet triggering, MAC binding, and
// version framing, all serialized through a per-address job queue.
package sessioncipher

import (
	"context"
	"fmt"
	"time"

	"signalcore/address"
	"signalcore/curve"
	"signalcore/jobqueue"
	"signalcore/primitives"
	"signalcore/protoerr"
	"signalcore/ratchet"
	"signalcore/sessionbuilder"
	"signalcore/sessionrecord"
	"signalcore/storage"
	"signalcore/wire"
)

const (
	// WhisperType marks a body as a bare WhisperMessage frame.
	WhisperType = 1
	// PreKeyType marks a body as a PreKeyWhisperMessage frame.
	PreKeyType = 3
)

// EncryptResult is what SessionCipher.Encrypt hands back to its caller.
type EncryptResult struct {
	Type           int
	Body           []byte
	RegistrationID uint32
}

// Cipher encrypts and decrypts messages for one owning identity against
// whichever remote address each call names.
type Cipher struct {
	Store   storage.Store
	Builder *sessionbuilder.Builder
	Queue   *jobqueue.Manager
	Now     func() time.Time
}

// New returns a Cipher wired against store, sharing queue across all
// addresses this process serves.
func New(store storage.Store, queue *jobqueue.Manager) *Cipher {
	return &Cipher{
		Store:   store,
		Builder: sessionbuilder.New(store),
		Queue:   queue,
		Now:     time.Now,
	}
}

func (c *Cipher) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cipher) loadRecord(ctx context.Context, addr address.ProtocolAddress) (*sessionrecord.Record, error) {
	data, err := c.Store.LoadSession(ctx, addr)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return sessionrecord.Deserialize(data)
}

func (c *Cipher) storeRecord(ctx context.Context, addr address.ProtocolAddress, record *sessionrecord.Record) error {
	record.RemoveOldSessions()
	data, err := record.Serialize()
	if err != nil {
		return err
	}
	return c.Store.StoreSession(ctx, addr, data)
}

// Encrypt wraps plaintext for addr's currently open session.
func (c *Cipher) Encrypt(ctx context.Context, addr address.ProtocolAddress, plaintext []byte) (*EncryptResult, error) {
	val, err := c.Queue.Submit(addr.String(), func() (any, error) {
		return c.doEncrypt(ctx, addr, plaintext)
	})
	if err != nil {
		return nil, err
	}
	return val.(*EncryptResult), nil
}

func (c *Cipher) doEncrypt(ctx context.Context, addr address.ProtocolAddress, plaintext []byte) (*EncryptResult, error) {
	record, err := c.loadRecord(ctx, addr)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, protoerr.NewSessionError("No sessions")
	}
	session, ok := record.GetOpenSession()
	if !ok {
		return nil, protoerr.NewSessionError("No sessions")
	}
	chain := session.SendingChain
	if chain == nil || chain.Type != ratchet.Sending {
		return nil, protoerr.NewSessionError("No sending chain")
	}

	trusted, err := c.Store.IsTrustedIdentity(ctx, addr.ID, session.IndexInfo.RemoteIdentityKey)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, protoerr.NewUntrustedIdentityKeyError(addr.ID, session.IndexInfo.RemoteIdentityKey[:])
	}

	target := uint32(0)
	if chain.ChainKey.Counter >= 0 {
		target = uint32(chain.ChainKey.Counter) + 1
	}
	if err := ratchet.FillMessageKeys(chain, target); err != nil {
		return nil, err
	}
	seed := chain.MessageKeys[target]
	delete(chain.MessageKeys, target)

	mk, err := ratchet.DeriveMessageKey(seed)
	if err != nil {
		return nil, err
	}

	ciphertext, err := primitives.Encrypt(mk.CipherKey, mk.IV, plaintext)
	if err != nil {
		return nil, err
	}

	whisperMsg := &wire.WhisperMessage{
		EphemeralKey:    session.EphemeralKeyPair.Pub,
		Counter:         target,
		PreviousCounter: session.PreviousCounter,
		Ciphertext:      ciphertext,
	}
	encoded := whisperMsg.Encode()

	ourIdentity, err := c.Store.GetOurIdentity(ctx)
	if err != nil {
		return nil, err
	}
	macInput := macInput(ourIdentity.Pub, session.IndexInfo.RemoteIdentityKey, encoded)
	mac := primitives.HMACSHA256(mk.MacKey[:], macInput)
	innerFrame := wire.PackFrame(whisperMsg, mac)

	var result EncryptResult
	regID, err := c.Store.GetOurRegistrationID(ctx)
	if err != nil {
		return nil, err
	}
	result.RegistrationID = regID

	if session.PendingPreKey != nil {
		preKeyMsg := &wire.PreKeyWhisperMessage{
			RegistrationID: regID,
			PreKeyID:       session.PendingPreKey.PreKeyID,
			SignedPreKeyID: session.PendingPreKey.SignedKeyID,
			BaseKey:        session.PendingPreKey.BaseKey,
			IdentityKey:    ourIdentity.Pub,
			Message:        innerFrame,
		}
		result.Type = PreKeyType
		result.Body = preKeyMsg.PackFrame()
	} else {
		result.Type = WhisperType
		result.Body = innerFrame
	}

	if err := c.storeRecord(ctx, addr, record); err != nil {
		return nil, err
	}
	return &result, nil
}

func macInput(ourIdentity, theirIdentity curve.PublicKey, encoded []byte) []byte {
	out := make([]byte, 0, 33+33+1+len(encoded))
	out = append(out, ourIdentity[:]...)
	out = append(out, theirIdentity[:]...)
	out = append(out, wire.VersionByte())
	out = append(out, encoded...)
	return out
}

// DecryptWhisperMessage decrypts a bare WhisperMessage frame by trying
// every session on file, most-recently-used first.
func (c *Cipher) DecryptWhisperMessage(ctx context.Context, addr address.ProtocolAddress, frame []byte) ([]byte, error) {
	val, err := c.Queue.Submit(addr.String(), func() (any, error) {
		return c.doDecryptWhisperMessage(ctx, addr, frame)
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

func (c *Cipher) doDecryptWhisperMessage(ctx context.Context, addr address.ProtocolAddress, frame []byte) ([]byte, error) {
	record, err := c.loadRecord(ctx, addr)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, protoerr.NewSessionError("No session record")
	}

	var firstErr error
	var winner *ratchet.State
	var plaintext []byte
	for _, session := range record.GetSessions() {
		pt, err := c.doDecrypt(ctx, frame, session)
		if err == nil {
			winner = session
			plaintext = pt
			break
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if winner == nil {
		sessErr := protoerr.NewSessionError("No matching sessions")
		if firstErr != nil {
			return nil, fmt.Errorf("%w: %w", sessErr, firstErr)
		}
		return nil, sessErr
	}

	winner.IndexInfo.Used = c.now().Unix()

	trusted, err := c.Store.IsTrustedIdentity(ctx, addr.ID, winner.IndexInfo.RemoteIdentityKey)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, protoerr.NewUntrustedIdentityKeyError(addr.ID, winner.IndexInfo.RemoteIdentityKey[:])
	}

	if err := c.storeRecord(ctx, addr, record); err != nil {
		return nil, err
	}
	return plaintext, nil
}

// DecryptPreKeyWhisperMessage decrypts the first message of a new session,
// constructing the receiving side if no record yet exists.
func (c *Cipher) DecryptPreKeyWhisperMessage(ctx context.Context, addr address.ProtocolAddress, frame []byte) ([]byte, error) {
	val, err := c.Queue.Submit(addr.String(), func() (any, error) {
		return c.doDecryptPreKeyWhisperMessage(ctx, addr, frame)
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

func (c *Cipher) doDecryptPreKeyWhisperMessage(ctx context.Context, addr address.ProtocolAddress, frame []byte) ([]byte, error) {
	if len(frame) < 1 {
		return nil, wire.ErrMalformed
	}
	if err := wire.CheckVersionByte(frame[0]); err != nil {
		return nil, err
	}
	preKeyMsg, err := wire.DecodePreKeyWhisperMessage(frame[1:])
	if err != nil {
		return nil, err
	}

	record, err := c.loadRecord(ctx, addr)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = sessionrecord.New()
	}

	preKeyID, err := c.Builder.InitIncoming(ctx, record, preKeyMsg)
	if err != nil {
		return nil, err
	}

	session, ok := record.GetSessionByKey(preKeyMsg.BaseKey[:])
	if !ok {
		return nil, protoerr.NewSessionError("session not installed")
	}

	plaintext, err := c.doDecrypt(ctx, preKeyMsg.Message, session)
	if err != nil {
		return nil, err
	}

	if err := c.storeRecord(ctx, addr, record); err != nil {
		return nil, err
	}
	if preKeyID != nil {
		if err := c.Store.RemovePreKey(ctx, *preKeyID); err != nil {
			return nil, err
		}
	}
	return plaintext, nil
}

func (c *Cipher) doDecrypt(ctx context.Context, innerFrame []byte, session *ratchet.State) ([]byte, error) {
	encoded, mac, err := wire.SplitFrame(innerFrame)
	if err != nil {
		return nil, err
	}
	msg, err := wire.DecodeWhisperMessage(encoded)
	if err != nil {
		return nil, err
	}

	if err := ratchet.MaybeStepRatchet(session, msg.EphemeralKey, msg.PreviousCounter); err != nil {
		return nil, err
	}

	chain, ok := session.ChainFor(msg.EphemeralKey)
	if !ok || chain.Type != ratchet.Receiving {
		return nil, protoerr.NewSessionError("no receiving chain for ephemeral key")
	}

	if err := ratchet.FillMessageKeys(chain, msg.Counter); err != nil {
		return nil, err
	}
	seed, ok := chain.MessageKeys[msg.Counter]
	if !ok {
		return nil, protoerr.NewMessageCounterError("Key used already or never filled")
	}
	delete(chain.MessageKeys, msg.Counter)

	mk, err := ratchet.DeriveMessageKey(seed)
	if err != nil {
		return nil, err
	}

	ourIdentity, err := c.Store.GetOurIdentity(ctx)
	if err != nil {
		return nil, err
	}
	input := macInput(session.IndexInfo.RemoteIdentityKey, ourIdentity.Pub, encoded)
	expected := primitives.HMACSHA256(mk.MacKey[:], input)
	if !primitives.ConstantTimeEqual(expected[:8], mac) {
		return nil, protoerr.NewMacError()
	}

	plaintext, err := primitives.Decrypt(mk.CipherKey, mk.IV, msg.Ciphertext)
	if err != nil {
		return nil, protoerr.NewDecryptError(err.Error())
	}

	session.PendingPreKey = nil
	return plaintext, nil
}
