package sessionrecord

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"signalcore/curve"
	"signalcore/ratchet"
)

const currentVersion = "v1"

type documentV1 struct {
	Version  string             `json:"version"`
	Sessions map[string]entryV1 `json:"_sessions"`
}

type chainKeyV1 struct {
	Counter int32  `json:"counter"`
	Key     string `json:"key,omitempty"` // base64, absent when closed
}

type chainV1 struct {
	ChainKey    chainKeyV1        `json:"chainKey"`
	MessageKeys map[string]string `json:"messageKeys"` // counter (decimal string) -> base64 seed
	Type        int               `json:"type"`
}

type pendingPreKeyV1 struct {
	BaseKey     string  `json:"baseKey"`
	SignedKeyID uint32  `json:"signedKeyId"`
	PreKeyID    *uint32 `json:"preKeyId,omitempty"`
}

type indexInfoV1 struct {
	BaseKey           string `json:"baseKey"`
	BaseKeyType       int    `json:"baseKeyType"`
	Closed            int64  `json:"closed"`
	Used              int64  `json:"used"`
	Created           int64  `json:"created"`
	RemoteIdentityKey string `json:"remoteIdentityKey"`
}

type entryV1 struct {
	RootKey                string             `json:"rootKey"`
	SendingChain           *chainV1           `json:"sendingChain,omitempty"`
	SendingChainKey        string             `json:"sendingChainKey,omitempty"`
	ReceivingChains        map[string]chainV1 `json:"receivingChains"`
	EphemeralPub           string             `json:"ephemeralPub"`
	EphemeralPriv          string             `json:"ephemeralPriv"`
	LastRemoteEphemeralKey string             `json:"lastRemoteEphemeralKey,omitempty"`
	HasRemoteEphemeral     bool               `json:"hasRemoteEphemeral"`
	PreviousCounter        uint32             `json:"previousCounter"`
	PendingPreKey          *pendingPreKeyV1   `json:"pendingPreKey,omitempty"`
	IndexInfo              indexInfoV1        `json:"indexInfo"`
	RegistrationID         uint32             `json:"registrationId"`
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func unb64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

func encodeChainKey(ck ratchet.ChainKey) chainKeyV1 {
	out := chainKeyV1{Counter: ck.Counter}
	if !ck.Closed() {
		out.Key = b64(ck.Key)
	}
	return out
}

func decodeChainKey(v chainKeyV1) (ratchet.ChainKey, error) {
	ck := ratchet.ChainKey{Counter: v.Counter}
	if v.Key != "" {
		key, err := unb64(v.Key)
		if err != nil {
			return ck, err
		}
		ck.Key = key
	}
	return ck, nil
}

func encodeChain(c *ratchet.Chain) chainV1 {
	mk := make(map[string]string, len(c.MessageKeys))
	for counter, seed := range c.MessageKeys {
		mk[fmt.Sprintf("%d", counter)] = b64(seed)
	}
	return chainV1{
		ChainKey:    encodeChainKey(c.ChainKey),
		MessageKeys: mk,
		Type:        int(c.Type),
	}
}

func decodeChain(v chainV1) (*ratchet.Chain, error) {
	ck, err := decodeChainKey(v.ChainKey)
	if err != nil {
		return nil, err
	}
	mk := make(map[uint32][]byte, len(v.MessageKeys))
	for counterStr, seedB64 := range v.MessageKeys {
		var counter uint32
		if _, err := fmt.Sscanf(counterStr, "%d", &counter); err != nil {
			return nil, err
		}
		seed, err := unb64(seedB64)
		if err != nil {
			return nil, err
		}
		mk[counter] = seed
	}
	return &ratchet.Chain{ChainKey: ck, MessageKeys: mk, Type: ratchet.ChainType(v.Type)}, nil
}

func encodePublicKey(pub curve.PublicKey) string {
	if pub == (curve.PublicKey{}) {
		return ""
	}
	return b64(pub[:])
}

func decodePublicKey(s string) (curve.PublicKey, error) {
	var pub curve.PublicKey
	if s == "" {
		return pub, nil
	}
	raw, err := unb64(s)
	if err != nil {
		return pub, err
	}
	return curve.DecodePublicKey(raw)
}

func encodeState(s *ratchet.State) entryV1 {
	e := entryV1{
		RootKey:            b64(s.RootKey[:]),
		ReceivingChains:    make(map[string]chainV1, len(s.ReceivingChains)),
		EphemeralPub:       encodePublicKey(s.EphemeralKeyPair.Pub),
		EphemeralPriv:      b64(s.EphemeralKeyPair.Priv[:]),
		HasRemoteEphemeral: s.HasRemoteEphemeral,
		PreviousCounter:    s.PreviousCounter,
		RegistrationID:     s.RegistrationID,
		IndexInfo: indexInfoV1{
			BaseKey:           b64(s.IndexInfo.BaseKey),
			BaseKeyType:       int(s.IndexInfo.BaseKeyType),
			Closed:            s.IndexInfo.Closed,
			Used:              s.IndexInfo.Used,
			Created:           s.IndexInfo.Created,
			RemoteIdentityKey: encodePublicKey(s.IndexInfo.RemoteIdentityKey),
		},
	}
	if s.SendingChain != nil {
		c := encodeChain(s.SendingChain)
		e.SendingChain = &c
		e.SendingChainKey = s.SendingChainKey
	}
	for key, chain := range s.ReceivingChains {
		e.ReceivingChains[key] = encodeChain(chain)
	}
	if s.HasRemoteEphemeral {
		e.LastRemoteEphemeralKey = encodePublicKey(s.LastRemoteEphemeralKey)
	}
	if s.PendingPreKey != nil {
		e.PendingPreKey = &pendingPreKeyV1{
			BaseKey:     encodePublicKey(s.PendingPreKey.BaseKey),
			SignedKeyID: s.PendingPreKey.SignedKeyID,
			PreKeyID:    s.PendingPreKey.PreKeyID,
		}
	}
	return e
}

func decodeState(e entryV1) (*ratchet.State, error) {
	rootKey, err := unb64(e.RootKey)
	if err != nil {
		return nil, err
	}
	ephPubRaw, err := unb64(e.EphemeralPub)
	if err != nil {
		return nil, err
	}
	ephPub, err := curve.DecodePublicKey(ephPubRaw)
	if err != nil {
		return nil, err
	}
	ephPrivRaw, err := unb64(e.EphemeralPriv)
	if err != nil {
		return nil, err
	}
	var ephPriv curve.PrivateKey
	copy(ephPriv[:], ephPrivRaw)

	baseKey, err := unb64(e.IndexInfo.BaseKey)
	if err != nil {
		return nil, err
	}
	remoteIdentity, err := decodePublicKey(e.IndexInfo.RemoteIdentityKey)
	if err != nil {
		return nil, err
	}

	s := &ratchet.State{
		ReceivingChains:    make(map[string]*ratchet.Chain, len(e.ReceivingChains)),
		EphemeralKeyPair:   &curve.KeyPair{Pub: ephPub, Priv: ephPriv},
		HasRemoteEphemeral: e.HasRemoteEphemeral,
		PreviousCounter:    e.PreviousCounter,
		RegistrationID:     e.RegistrationID,
		IndexInfo: ratchet.IndexInfo{
			BaseKey:           baseKey,
			BaseKeyType:       ratchet.BaseKeyType(e.IndexInfo.BaseKeyType),
			Closed:            e.IndexInfo.Closed,
			Used:              e.IndexInfo.Used,
			Created:           e.IndexInfo.Created,
			RemoteIdentityKey: remoteIdentity,
		},
	}
	copy(s.RootKey[:], rootKey)

	if e.SendingChain != nil {
		chain, err := decodeChain(*e.SendingChain)
		if err != nil {
			return nil, err
		}
		s.SendingChain = chain
		s.SendingChainKey = e.SendingChainKey
	}
	for key, cv := range e.ReceivingChains {
		chain, err := decodeChain(cv)
		if err != nil {
			return nil, err
		}
		s.ReceivingChains[key] = chain
	}
	if e.HasRemoteEphemeral {
		remoteEph, err := decodePublicKey(e.LastRemoteEphemeralKey)
		if err != nil {
			return nil, err
		}
		s.LastRemoteEphemeralKey = remoteEph
	}
	if e.PendingPreKey != nil {
		pub, err := decodePublicKey(e.PendingPreKey.BaseKey)
		if err != nil {
			return nil, err
		}
		s.PendingPreKey = &ratchet.PendingPreKey{
			BaseKey:     pub,
			SignedKeyID: e.PendingPreKey.SignedKeyID,
			PreKeyID:    e.PendingPreKey.PreKeyID,
		}
	}
	return s, nil
}

// Serialize renders the record as the stable v1 document.
func (r *Record) Serialize() ([]byte, error) {
	doc := documentV1{Version: currentVersion, Sessions: make(map[string]entryV1, len(r.order))}
	for _, k := range r.order {
		doc.Sessions[k] = encodeState(r.sessions[k])
	}
	return json.Marshal(doc)
}

// Deserialize parses a document previously produced by Serialize. Every
// document is run through the migration chain before use; there are
// currently no prior versions to migrate from, so a version-less or v1
// document is accepted as-is and any other version is rejected.
func Deserialize(data []byte) (*Record, error) {
	if len(data) == 0 {
		return New(), nil
	}
	doc, err := migrate(data)
	if err != nil {
		return nil, err
	}

	r := New()
	// Preserve a deterministic order: base-key hex sorted, since JSON maps
	// don't carry insertion order.
	keys := make([]string, 0, len(doc.Sessions))
	for k := range doc.Sessions {
		keys = append(keys, k)
	}
	sortStrings(keys)
	for _, k := range keys {
		state, err := decodeState(doc.Sessions[k])
		if err != nil {
			return nil, err
		}
		r.sessions[k] = state
		r.order = append(r.order, k)
	}
	return r, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// migrate brings an arbitrary-version document up to v1. A version-less
// document is read as v1; any other version string is rejected as
// unrecognized, since v1 is the only version this implementation has ever
// produced.
func migrate(data []byte) (*documentV1, error) {
	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Version {
	case "", currentVersion:
		var doc documentV1
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		doc.Version = currentVersion
		return &doc, nil
	default:
		return nil, fmt.Errorf("sessionrecord: unrecognized document version %q", probe.Version)
	}
}
