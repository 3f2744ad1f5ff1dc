// gen_keys prints a fresh identity, one signed prekey, and one one-time
// prekey as hex-encoded KEY=VALUE lines suitable for pasting into a
// per-identity .env file consumed by cmd/client.
package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"

	"signalcore/curve"
)

func main() {
	identity, err := curve.GenerateKeyPair()
	if err != nil {
		log.Fatalf("failed to generate identity key pair: %v", err)
	}

	var regIDBuf [2]byte
	if _, err := rand.Read(regIDBuf[:]); err != nil {
		log.Fatalf("failed to generate registration id: %v", err)
	}
	registrationID := binary.BigEndian.Uint16(regIDBuf[:]) & 0x3FFF // 14 bits

	signedPreKey, err := curve.GenerateKeyPair()
	if err != nil {
		log.Fatalf("failed to generate signed prekey: %v", err)
	}
	signature, err := curve.Sign(identity.Priv, signedPreKey.Pub[:])
	if err != nil {
		log.Fatalf("failed to sign prekey: %v", err)
	}

	oneTimePreKey, err := curve.GenerateKeyPair()
	if err != nil {
		log.Fatalf("failed to generate one-time prekey: %v", err)
	}

	fmt.Printf("IDENTITY_PRIV=%s\n", hex.EncodeToString(identity.Priv[:]))
	fmt.Printf("IDENTITY_PUB=%s\n", hex.EncodeToString(identity.Pub[:]))
	fmt.Printf("REGISTRATION_ID=%d\n", registrationID)
	fmt.Printf("SIGNED_PREKEY_ID=1\n")
	fmt.Printf("SIGNED_PREKEY_PRIV=%s\n", hex.EncodeToString(signedPreKey.Priv[:]))
	fmt.Printf("SIGNED_PREKEY_PUB=%s\n", hex.EncodeToString(signedPreKey.Pub[:]))
	fmt.Printf("SIGNED_PREKEY_SIG=%s\n", hex.EncodeToString(signature))
	fmt.Printf("ONE_TIME_PREKEY_ID=1\n")
	fmt.Printf("ONE_TIME_PREKEY_PRIV=%s\n", hex.EncodeToString(oneTimePreKey.Priv[:]))
	fmt.Printf("ONE_TIME_PREKEY_PUB=%s\n", hex.EncodeToString(oneTimePreKey.Pub[:]))
}
