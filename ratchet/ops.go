package ratchet

import (
	"signalcore/config"
	"signalcore/curve"
	"signalcore/primitives"
	"signalcore/protoerr"
)

var zeros32 = make([]byte, 32)

// chainKeyStep advances a chain key by one message: the next chain key is
// HMAC(chainKey, 0x02), the seed for the message key at the current
// counter is HMAC(chainKey, 0x01).
func chainKeyStep(ck *ChainKey) (nextKey, messageKeySeed []byte) {
	nextKey = primitives.HMACSHA256(ck.Key, []byte{0x02})
	messageKeySeed = primitives.HMACSHA256(ck.Key, []byte{0x01})
	return nextKey, messageKeySeed
}

// fillMessageKeys steps chain forward until its counter reaches target,
// caching every derived message-key seed along the way.
func fillMessageKeys(chain *Chain, target uint32) error {
	if chain.ChainKey.Counter >= 0 && uint32(chain.ChainKey.Counter) >= target {
		return nil
	}
	if chain.ChainKey.Closed() {
		return protoerr.NewSessionError("Chain closed")
	}

	from := int64(chain.ChainKey.Counter)
	if int64(target)-from > config.MaxSkip {
		return protoerr.NewSessionError("Over 2000 into the future")
	}

	for uint32(chain.ChainKey.Counter+1) <= target {
		nextKey, seed := chainKeyStep(&chain.ChainKey)
		chain.ChainKey.Counter++
		chain.MessageKeys[uint32(chain.ChainKey.Counter)] = seed
		chain.ChainKey.Key = nextKey
	}
	return nil
}

// FillMessageKeys exports fillMessageKeys for use by session orchestration
// outside this package.
func FillMessageKeys(chain *Chain, target uint32) error { return fillMessageKeys(chain, target) }

// MaybeStepRatchet exports maybeStepRatchet for use by session
// orchestration outside this package.
func MaybeStepRatchet(s *State, remoteEphemeral curve.PublicKey, theirPreviousCounter uint32) error {
	return maybeStepRatchet(s, remoteEphemeral, theirPreviousCounter)
}

// DeriveMessageKey exports deriveMessageKey for use by session
// orchestration outside this package.
func DeriveMessageKey(seed []byte) (*MessageKey, error) { return deriveMessageKey(seed) }

// MessageKey is the expanded per-message secret material.
type MessageKey struct {
	CipherKey [32]byte
	MacKey    [32]byte
	IV        [16]byte
}

// deriveMessageKey expands a chain's per-counter seed into a cipher key,
// a MAC key, and an IV.
func deriveMessageKey(seed []byte) (*MessageKey, error) {
	blocks, err := primitives.HKDF(seed, zeros32, config.HKDFInfoMessageKeys, 3)
	if err != nil {
		return nil, err
	}
	mk := &MessageKey{CipherKey: blocks[0], MacKey: blocks[1]}
	copy(mk.IV[:], blocks[2][:16])
	return mk, nil
}

// dhRatchet performs one DH ratchet step: it agrees with remoteEphemeral
// using the session's current ephemeral private key, derives a new root
// key and chain seed, and installs a fresh chain of the requested
// direction under the appropriate ephemeral public key.
func dhRatchet(s *State, remoteEphemeral curve.PublicKey, sending bool) error {
	shared, err := curve.Agree(remoteEphemeral, s.EphemeralKeyPair.Priv)
	if err != nil {
		return err
	}
	blocks, err := primitives.HKDF(shared[:], s.RootKey[:], config.HKDFInfoRatchet, 2)
	if err != nil {
		return err
	}
	newRoot, newChainSeed := blocks[0], blocks[1]

	if sending {
		chain := newChain(Sending)
		chain.ChainKey.Key = newChainSeed[:]
		s.SendingChain = chain
		s.SendingChainKey = chainMapKey(s.EphemeralKeyPair.Pub)
	} else {
		chain := newChain(Receiving)
		chain.ChainKey.Key = newChainSeed[:]
		s.ReceivingChains[chainMapKey(remoteEphemeral)] = chain
	}
	s.RootKey = newRoot
	return nil
}

// maybeStepRatchet installs a new receiving chain (and its mirrored new
// sending chain) the first time a remote ephemeral key is observed;
// repeat deliveries under an already-known ephemeral key are a no-op.
func maybeStepRatchet(s *State, remoteEphemeral curve.PublicKey, theirPreviousCounter uint32) error {
	if s.hasReceivingChain(remoteEphemeral) {
		return nil
	}

	if s.HasRemoteEphemeral {
		if prior, ok := s.ReceivingChains[chainMapKey(s.LastRemoteEphemeralKey)]; ok {
			if err := fillMessageKeys(prior, theirPreviousCounter); err != nil {
				return err
			}
			prior.ChainKey.Key = nil
		}
	}

	if err := dhRatchet(s, remoteEphemeral, false); err != nil {
		return err
	}

	if s.SendingChain != nil {
		if s.SendingChain.ChainKey.Counter >= 0 {
			s.PreviousCounter = uint32(s.SendingChain.ChainKey.Counter)
		} else {
			s.PreviousCounter = 0
		}
		s.SendingChain = nil
		s.SendingChainKey = ""
	}

	newEphemeral, err := curve.GenerateKeyPair()
	if err != nil {
		return err
	}
	s.EphemeralKeyPair = newEphemeral

	if err := dhRatchet(s, remoteEphemeral, true); err != nil {
		return err
	}

	s.LastRemoteEphemeralKey = remoteEphemeral
	s.HasRemoteEphemeral = true
	return nil
}

// InstallReplySendingChain generates a fresh ephemeral keypair and DH
// ratchets against remote to install the sending chain that mirrors a
// transient receiving chain set up directly from an X3DH derivation. Used
// only by session construction on the receiver side.
func InstallReplySendingChain(s *State, remote curve.PublicKey) error {
	fresh, err := curve.GenerateKeyPair()
	if err != nil {
		return err
	}
	s.EphemeralKeyPair = fresh
	return dhRatchet(s, remote, true)
}
