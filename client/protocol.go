package client

import (
	"context"
	"fmt"

	"signalcore/common"
	"signalcore/sessioncipher"
	"signalcore/sessionrecord"
	"signalcore/storage"
)

// ensureOutgoingSession fetches the recipient's published bundle and runs
// the sender side of the handshake if no open session against them exists
// yet. Every subsequent send reuses the ratchet state this installs.
func (app *ChatApp) ensureOutgoingSession(ctx context.Context) error {
	data, err := app.store.LoadSession(ctx, app.peerAddr())
	if err != nil {
		return fmt.Errorf("failed to load session record: %w", err)
	}
	if data != nil {
		record, err := sessionrecord.Deserialize(data)
		if err != nil {
			return fmt.Errorf("failed to deserialize session record: %w", err)
		}
		if _, ok := record.GetOpenSession(); ok {
			return nil
		}
	}

	bundle, err := app.GetKeys(app.recipientID)
	if err != nil {
		return fmt.Errorf("failed to fetch recipient bundle: %w", err)
	}
	preKeyBundle, err := decodePublicBundle(bundle)
	if err != nil {
		return fmt.Errorf("failed to decode recipient bundle: %w", err)
	}

	state, err := app.builder.InitOutgoing(ctx, preKeyBundle)
	if err != nil {
		return fmt.Errorf("failed to perform key agreement: %w", err)
	}

	record := sessionrecord.New()
	if data != nil {
		if existing, err := sessionrecord.Deserialize(data); err == nil {
			record = existing
		}
	}
	record.PutSession(state)
	return app.storeSessionRecord(ctx, record)
}

// encryptMessage runs the outgoing handshake on first use, then hands
// plaintext to the session cipher.
func (app *ChatApp) encryptMessage(ctx context.Context, msg string) (*common.MessageBundle, error) {
	if err := app.ensureOutgoingSession(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	result, err := app.cipher.Encrypt(ctx, app.peerAddr(), []byte(msg))
	if err != nil {
		return nil, fmt.Errorf("error encrypting message: %w", err)
	}

	return &common.MessageBundle{
		From: app.userID,
		To:   app.recipientID,
		Type: result.Type,
		Body: result.Body,
	}, nil
}

// decryptMessage dispatches on the wire type: a PreKeyType frame builds
// the receiver side of a brand new session if this is the first message
// from that peer, a plain WhisperType frame reuses whatever session is
// already on file.
func (app *ChatApp) decryptMessage(ctx context.Context, msg *common.MessageBundle) ([]byte, error) {
	switch msg.Type {
	case sessioncipher.PreKeyType:
		return app.cipher.DecryptPreKeyWhisperMessage(ctx, app.peerAddrFor(msg.From), msg.Body)
	default:
		return app.cipher.DecryptWhisperMessage(ctx, app.peerAddrFor(msg.From), msg.Body)
	}
}

func decodePublicBundle(b *common.PublicBundle) (*storage.PreKeyBundle, error) {
	identityKey, err := decodePublicKey(b.IdentityKey)
	if err != nil {
		return nil, fmt.Errorf("bad identity key: %w", err)
	}
	signedPub, err := decodePublicKey(b.SignedPreKey.Pub)
	if err != nil {
		return nil, fmt.Errorf("bad signed prekey: %w", err)
	}

	bundle := &storage.PreKeyBundle{
		RegistrationID: b.RegistrationID,
		IdentityKey:    identityKey,
		SignedPreKey: storage.SignedPreKeyRecord{
			ID:        b.SignedPreKey.ID,
			KeyPair:   keyPairFromPub(signedPub),
			Signature: b.SignedPreKey.Signature,
		},
	}
	if b.OneTimePreKey != nil {
		otPub, err := decodePublicKey(b.OneTimePreKey.Pub)
		if err != nil {
			return nil, fmt.Errorf("bad one-time prekey: %w", err)
		}
		bundle.OneTimePreKey = &storage.PreKeyRecord{
			ID:      b.OneTimePreKey.ID,
			KeyPair: keyPairFromPub(otPub),
		}
	}
	return bundle, nil
}
