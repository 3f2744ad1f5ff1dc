package client

import (
	"context"
	"fmt"

	"signalcore/address"
	"signalcore/curve"
	"signalcore/sessionrecord"
)

func decodePublicKey(raw []byte) (curve.PublicKey, error) {
	return curve.DecodePublicKey(raw)
}

func keyPairFromPub(pub curve.PublicKey) curve.KeyPair {
	// The peer's private half is never known to us; callers only ever
	// read KeyPair.Pub off a bundle built this way.
	return curve.KeyPair{Pub: pub}
}

func (app *ChatApp) peerAddr() address.ProtocolAddress {
	return address.New(app.recipientID, 1)
}

func (app *ChatApp) peerAddrFor(id string) address.ProtocolAddress {
	return address.New(id, 1)
}

func (app *ChatApp) storeSessionRecord(ctx context.Context, record *sessionrecord.Record) error {
	data, err := record.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize session record: %w", err)
	}
	return app.store.StoreSession(ctx, app.peerAddr(), data)
}
