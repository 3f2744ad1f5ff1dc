// Package ratchet implements the Double Ratchet state machine: one
// session's root key, its sending and receiving symmetric chains, their
// per-message key caches, and the pending-prekey memo a sender echoes
// until the peer's first reply.
package ratchet

import (
	"encoding/hex"
	"time"

	"signalcore/curve"
)

// BaseKeyType distinguishes a session we initiated from one a peer
// initiated against us; only a THEIRS-typed session is ever returned by
// a lookup keyed on the peer's base key.
type BaseKeyType int

const (
	OURS BaseKeyType = iota
	THEIRS
)

// ChainType marks whether a Chain is a sending or a receiving chain.
type ChainType int

const (
	Sending ChainType = iota
	Receiving
)

// ChainKey is the current symmetric state of one chain: a counter and a
// 32-byte key, or a nil Key once the chain has been closed and its key
// erased.
type ChainKey struct {
	Counter int32
	Key     []byte // 32 bytes, nil when closed
}

func (ck *ChainKey) Closed() bool { return ck.Key == nil }

// Chain is one symmetric ratchet chain: its current chain key plus the
// message keys derived-but-not-yet-consumed, addressed by counter.
type Chain struct {
	ChainKey    ChainKey
	MessageKeys map[uint32][]byte
	Type        ChainType
}

func newChain(typ ChainType) *Chain {
	return &Chain{
		ChainKey:    ChainKey{Counter: -1, Key: nil},
		MessageKeys: make(map[uint32][]byte),
		Type:        typ,
	}
}

// PendingPreKey is the sender's memo of which prekey bundle it used to
// establish a session, echoed on every outbound frame until the peer's
// first successfully processed reply clears it.
type PendingPreKey struct {
	BaseKey     curve.PublicKey
	SignedKeyID uint32
	PreKeyID    *uint32
}

// IndexInfo carries a session's identity within its owning record and its
// lifecycle timestamps.
type IndexInfo struct {
	BaseKey           []byte
	BaseKeyType       BaseKeyType
	Closed            int64 // -1 = open, else a close timestamp
	Used              int64
	Created           int64
	RemoteIdentityKey curve.PublicKey
}

// State is one Double Ratchet session.
type State struct {
	RootKey [32]byte

	SendingChain     *Chain
	SendingChainKey  string // hex of the ephemeral pubkey that produced SendingChain
	ReceivingChains  map[string]*Chain

	EphemeralKeyPair       *curve.KeyPair
	LastRemoteEphemeralKey curve.PublicKey
	HasRemoteEphemeral     bool
	PreviousCounter        uint32

	PendingPreKey *PendingPreKey

	IndexInfo IndexInfo

	RegistrationID uint32
}

// NewState builds an empty session shell around a freshly generated
// sending ephemeral keypair; callers install chains via dhRatchet before
// the session is usable.
func NewState(ephemeral *curve.KeyPair, baseKey []byte, baseKeyType BaseKeyType, remoteIdentityKey curve.PublicKey, now time.Time) *State {
	return &State{
		EphemeralKeyPair: ephemeral,
		ReceivingChains:  make(map[string]*Chain),
		IndexInfo: IndexInfo{
			BaseKey:           baseKey,
			BaseKeyType:       baseKeyType,
			Closed:            -1,
			Created:           now.Unix(),
			Used:              now.Unix(),
			RemoteIdentityKey: remoteIdentityKey,
		},
	}
}

func chainMapKey(pub curve.PublicKey) string {
	return hex.EncodeToString(pub[:])
}

// KeyFor returns the map key a chain is filed under for the given
// ephemeral public key; exposed so callers outside this package (session
// construction) can install chains directly using the same addressing.
func KeyFor(pub curve.PublicKey) string { return chainMapKey(pub) }

// ChainFor returns the chain keyed by the given ephemeral public key,
// whether it is the current sending chain or one of the receiving chains.
func (s *State) ChainFor(pub curve.PublicKey) (*Chain, bool) {
	if s.SendingChain != nil && s.SendingChainKey == chainMapKey(pub) {
		return s.SendingChain, true
	}
	c, ok := s.ReceivingChains[chainMapKey(pub)]
	return c, ok
}

func (s *State) hasReceivingChain(pub curve.PublicKey) bool {
	_, ok := s.ReceivingChains[chainMapKey(pub)]
	return ok
}

// IsOpen reports whether the session is the record's active session.
func (s *State) IsOpen() bool { return s.IndexInfo.Closed == -1 }
