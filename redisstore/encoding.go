package redisstore

import (
	"encoding/base64"
	"encoding/json"

	"signalcore/curve"
	"signalcore/storage"
)

var base64Encoding = base64.StdEncoding

type preKeyRecordV1 struct {
	Priv string `json:"priv"`
	Pub  string `json:"pub"`
}

func encodePreKeyRecord(rec *storage.PreKeyRecord) []byte {
	data, _ := json.Marshal(preKeyRecordV1{
		Priv: b64(rec.KeyPair.Priv[:]),
		Pub:  b64(rec.KeyPair.Pub[:]),
	})
	return data
}

func decodePreKeyRecord(id uint32, raw []byte) (*storage.PreKeyRecord, error) {
	var v preKeyRecordV1
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	kp, err := decodeKeyPair(v.Pub, v.Priv)
	if err != nil {
		return nil, err
	}
	return &storage.PreKeyRecord{ID: id, KeyPair: kp}, nil
}

type signedPreKeyRecordV1 struct {
	Priv      string `json:"priv"`
	Pub       string `json:"pub"`
	Signature string `json:"signature"`
}

func encodeSignedPreKeyRecord(rec *storage.SignedPreKeyRecord) []byte {
	data, _ := json.Marshal(signedPreKeyRecordV1{
		Priv:      b64(rec.KeyPair.Priv[:]),
		Pub:       b64(rec.KeyPair.Pub[:]),
		Signature: b64(rec.Signature),
	})
	return data
}

func decodeSignedPreKeyRecord(id uint32, raw []byte) (*storage.SignedPreKeyRecord, error) {
	var v signedPreKeyRecordV1
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	kp, err := decodeKeyPair(v.Pub, v.Priv)
	if err != nil {
		return nil, err
	}
	sig, err := unb64(v.Signature)
	if err != nil {
		return nil, err
	}
	return &storage.SignedPreKeyRecord{ID: id, KeyPair: kp, Signature: sig}, nil
}

type identityKeyPairV1 struct {
	Priv string `json:"priv"`
	Pub  string `json:"pub"`
}

func encodeIdentityKeyPair(kp *storage.IdentityKeyPair) []byte {
	data, _ := json.Marshal(identityKeyPairV1{Priv: b64(kp.Priv[:]), Pub: b64(kp.Pub[:])})
	return data
}

func decodeIdentityKeyPair(raw []byte) (*storage.IdentityKeyPair, error) {
	var v identityKeyPairV1
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	pubRaw, err := unb64(v.Pub)
	if err != nil {
		return nil, err
	}
	pub, err := curve.DecodePublicKey(pubRaw)
	if err != nil {
		return nil, err
	}
	privRaw, err := unb64(v.Priv)
	if err != nil {
		return nil, err
	}
	var priv curve.PrivateKey
	copy(priv[:], privRaw)
	return &storage.IdentityKeyPair{Pub: pub, Priv: priv}, nil
}

func decodeKeyPair(pubB64, privB64 string) (curve.KeyPair, error) {
	pubRaw, err := unb64(pubB64)
	if err != nil {
		return curve.KeyPair{}, err
	}
	pub, err := curve.DecodePublicKey(pubRaw)
	if err != nil {
		return curve.KeyPair{}, err
	}
	privRaw, err := unb64(privB64)
	if err != nil {
		return curve.KeyPair{}, err
	}
	var priv curve.PrivateKey
	copy(priv[:], privRaw)
	return curve.KeyPair{Pub: pub, Priv: priv}, nil
}

func b64(b []byte) string { return base64Encoding.EncodeToString(b) }

func unb64(s string) ([]byte, error) { return base64Encoding.DecodeString(s) }
