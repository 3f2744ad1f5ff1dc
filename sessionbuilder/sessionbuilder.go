// Package sessionbuilder constructs the first ratchet state for a
// session, either from a fetched prekey bundle (sender side) or from an
// incoming PreKey message (receiver side), unifying what upstream keeps
// as two mirrored implementations.
package sessionbuilder

import (
	"context"
	"time"

	"signalcore/config"
	"signalcore/curve"
	"signalcore/primitives"
	"signalcore/protoerr"
	"signalcore/ratchet"
	"signalcore/sessionrecord"
	"signalcore/storage"
	"signalcore/wire"
)

// Builder constructs sessions against a storage backend.
type Builder struct {
	Store storage.Store
	Now   func() time.Time
}

// New returns a Builder using storage.Store store and the real clock.
func New(store storage.Store) *Builder {
	return &Builder{Store: store, Now: time.Now}
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

var masterKeyPrefix = func() []byte {
	p := make([]byte, 32)
	for i := range p {
		p[i] = 0xFF
	}
	return p
}()

// InitOutgoing builds the sending side of a session from a fetched prekey
// bundle. It returns a session state carrying a pendingPreKey memo; the
// caller is responsible for filing it into a session record and storing
// that record.
func (b *Builder) InitOutgoing(ctx context.Context, bundle *storage.PreKeyBundle) (*ratchet.State, error) {
	if !curve.Verify(bundle.IdentityKey, bundle.SignedPreKey.KeyPair.Pub[:], bundle.SignedPreKey.Signature) {
		return nil, protoerr.NewInvalidSignatureError()
	}

	ourIdentity, err := b.Store.GetOurIdentity(ctx)
	if err != nil {
		return nil, err
	}
	ourBase, err := curve.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	dhA, err := curve.Agree(bundle.SignedPreKey.KeyPair.Pub, ourIdentity.Priv)
	if err != nil {
		return nil, err
	}
	dhB, err := curve.Agree(bundle.IdentityKey, ourBase.Priv)
	if err != nil {
		return nil, err
	}
	dhC, err := curve.Agree(bundle.SignedPreKey.KeyPair.Pub, ourBase.Priv)
	if err != nil {
		return nil, err
	}

	masterKey := append([]byte{}, masterKeyPrefix...)
	masterKey = append(masterKey, dhA[:]...)
	masterKey = append(masterKey, dhB[:]...)
	masterKey = append(masterKey, dhC[:]...)

	var preKeyID *uint32
	if bundle.OneTimePreKey != nil {
		dhD, err := curve.Agree(bundle.OneTimePreKey.KeyPair.Pub, ourBase.Priv)
		if err != nil {
			return nil, err
		}
		masterKey = append(masterKey, dhD[:]...)
		id := bundle.OneTimePreKey.ID
		preKeyID = &id
	}

	blocks, err := primitives.HKDF(masterKey, zeros32(), config.HKDFInfoX3DH, 2)
	if err != nil {
		return nil, err
	}
	rootKey, chainSeed := blocks[0], blocks[1]

	// The base key doubles as the first ratchet sending ephemeral: there
	// is no separate key generated for the initial chain.
	state := ratchet.NewState(ourBase, ourBase.Pub[:], ratchet.OURS, bundle.IdentityKey, b.now())
	state.RootKey = rootKey
	state.SendingChain = &ratchet.Chain{
		ChainKey:    ratchet.ChainKey{Counter: -1, Key: chainSeed[:]},
		MessageKeys: make(map[uint32][]byte),
		Type:        ratchet.Sending,
	}
	state.SendingChainKey = ratchet.KeyFor(ourBase.Pub)
	state.RegistrationID = bundle.RegistrationID
	state.PendingPreKey = &ratchet.PendingPreKey{
		BaseKey:     ourBase.Pub,
		SignedKeyID: bundle.SignedPreKey.ID,
		PreKeyID:    preKeyID,
	}
	return state, nil
}

// InitIncoming reconstructs the receiver-side session from an inbound
// PreKey message and files it into record under the sender's base key.
// It returns the one-time prekey id the caller must remove from storage,
// or nil if the bundle carried none. If the message names a one-time
// prekey that storage no longer has but record already holds a session
// under the sender's base key, that session is left as it is and nil is
// returned.
func (b *Builder) InitIncoming(ctx context.Context, record *sessionrecord.Record, msg *wire.PreKeyWhisperMessage) (*uint32, error) {
	signedPreKey, err := b.Store.LoadSignedPreKey(ctx, msg.SignedPreKeyID)
	if err != nil {
		return nil, err
	}
	if signedPreKey == nil {
		return nil, protoerr.NewInvalidKeyIdError(msg.SignedPreKeyID)
	}

	var oneTimePreKey *storage.PreKeyRecord
	if msg.PreKeyID != nil {
		oneTimePreKey, err = b.Store.LoadPreKey(ctx, *msg.PreKeyID)
		if err != nil {
			return nil, err
		}
		if oneTimePreKey == nil {
			if _, exists := record.GetSessionByKey(msg.BaseKey[:]); !exists {
				return nil, protoerr.NewPreKeyError("one-time prekey missing and no existing session to reuse")
			}
			// The prekey was consumed by an earlier delivery of this same
			// handshake: reuse the session already filed under the base key.
			return nil, nil
		}
	}

	ourIdentity, err := b.Store.GetOurIdentity(ctx)
	if err != nil {
		return nil, err
	}

	dhA, err := curve.Agree(msg.IdentityKey, signedPreKey.KeyPair.Priv)
	if err != nil {
		return nil, err
	}
	dhB, err := curve.Agree(msg.BaseKey, ourIdentity.Priv)
	if err != nil {
		return nil, err
	}
	dhC, err := curve.Agree(msg.BaseKey, signedPreKey.KeyPair.Priv)
	if err != nil {
		return nil, err
	}

	masterKey := append([]byte{}, masterKeyPrefix...)
	masterKey = append(masterKey, dhA[:]...)
	masterKey = append(masterKey, dhB[:]...)
	masterKey = append(masterKey, dhC[:]...)

	var preKeyIDToRemove *uint32
	if oneTimePreKey != nil {
		dhD, err := curve.Agree(msg.BaseKey, oneTimePreKey.KeyPair.Priv)
		if err != nil {
			return nil, err
		}
		masterKey = append(masterKey, dhD[:]...)
		id := oneTimePreKey.ID
		preKeyIDToRemove = &id
	}

	blocks, err := primitives.HKDF(masterKey, zeros32(), config.HKDFInfoX3DH, 2)
	if err != nil {
		return nil, err
	}
	rootKey, chainSeed := blocks[0], blocks[1]

	// A transient receiving chain under theirBaseKey, then an immediate
	// DH ratchet with a freshly generated ephemeral establishes the
	// mirrored sending chain.
	transientEphemeral, err := curve.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	state := ratchet.NewState(transientEphemeral, msg.BaseKey[:], ratchet.THEIRS, msg.IdentityKey, b.now())
	state.RootKey = rootKey
	state.ReceivingChains[ratchet.KeyFor(msg.BaseKey)] = &ratchet.Chain{
		ChainKey:    ratchet.ChainKey{Counter: -1, Key: chainSeed[:]},
		MessageKeys: make(map[uint32][]byte),
		Type:        ratchet.Receiving,
	}
	state.LastRemoteEphemeralKey = msg.BaseKey
	state.HasRemoteEphemeral = true
	state.RegistrationID = msg.RegistrationID

	if err := ratchet.InstallReplySendingChain(state, msg.BaseKey); err != nil {
		return nil, err
	}

	if _, exists := record.GetOpenSession(); exists {
		record.CloseOpenSession(b.now().Unix())
	}
	record.PutSession(state)

	return preKeyIDToRemove, nil
}

func zeros32() []byte { return make([]byte, 32) }
