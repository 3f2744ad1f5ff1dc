package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"signalcore/client"
	"signalcore/curve"
	"signalcore/memorystore"
	"signalcore/storage"

	"github.com/jroimartin/gocui"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <userID>")
		return
	}
	userID := os.Args[1]

	switch userID {
	case "alice":
		godotenv.Load(".env.alice")
	case "bob":
		godotenv.Load(".env.bob")
	default:
		godotenv.Load(".env")
	}

	store, signedPreKeyID, oneTimePreKeyID, err := provisionFromEnv()
	if err != nil {
		fmt.Printf("Failed to provision local identity: %v\n", err)
		return
	}

	chatApp := client.NewChatApp(userID, store, signedPreKeyID, oneTimePreKeyID)

	if err := chatApp.InitGui(); err != nil {
		logger.Fatalf("Error initializing gocui interface: %v", err)
	}

	if err := chatApp.PostKeys(); err != nil {
		logger.Fatalf("Error publishing keys: %v", err)
	}

	if err := chatApp.PromptRecipientID(); err != nil {
		logger.Fatalf("Error prompting recipient ID: %v", err)
	}

	if err := chatApp.Gui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		logger.Fatalf("Error in gocui main loop: %v", err)
	}

	logger.Info("Application exited.")
}

// provisionFromEnv builds an in-memory storage.Store from the hex-encoded
// key material a .env file (as produced by cmd/gen_keys) supplies.
func provisionFromEnv() (storage.Store, uint32, *uint32, error) {
	identityPriv, err := decodeHex32(os.Getenv("IDENTITY_PRIV"))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("IDENTITY_PRIV: %w", err)
	}
	identityPub, err := decodeHexPublicKey(os.Getenv("IDENTITY_PUB"))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("IDENTITY_PUB: %w", err)
	}

	var registrationID uint32
	if _, err := fmt.Sscanf(os.Getenv("REGISTRATION_ID"), "%d", &registrationID); err != nil {
		return nil, 0, nil, fmt.Errorf("REGISTRATION_ID: %w", err)
	}

	var signedPreKeyID uint32
	if _, err := fmt.Sscanf(os.Getenv("SIGNED_PREKEY_ID"), "%d", &signedPreKeyID); err != nil {
		return nil, 0, nil, fmt.Errorf("SIGNED_PREKEY_ID: %w", err)
	}
	signedPreKeyPriv, err := decodeHex32(os.Getenv("SIGNED_PREKEY_PRIV"))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("SIGNED_PREKEY_PRIV: %w", err)
	}
	signedPreKeyPub, err := decodeHexPublicKey(os.Getenv("SIGNED_PREKEY_PUB"))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("SIGNED_PREKEY_PUB: %w", err)
	}
	signature, err := hex.DecodeString(os.Getenv("SIGNED_PREKEY_SIG"))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("SIGNED_PREKEY_SIG: %w", err)
	}

	store := memorystore.New()
	store.SetIdentity(&storage.IdentityKeyPair{Pub: identityPub, Priv: identityPriv})
	store.SetRegistrationID(registrationID)
	store.SetSignedPreKey(&storage.SignedPreKeyRecord{
		ID:        signedPreKeyID,
		KeyPair:   curve.KeyPair{Priv: signedPreKeyPriv, Pub: signedPreKeyPub},
		Signature: signature,
	})

	var oneTimePreKeyID *uint32
	if raw := os.Getenv("ONE_TIME_PREKEY_ID"); raw != "" {
		var id uint32
		if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
			return nil, 0, nil, fmt.Errorf("ONE_TIME_PREKEY_ID: %w", err)
		}
		priv, err := decodeHex32(os.Getenv("ONE_TIME_PREKEY_PRIV"))
		if err != nil {
			return nil, 0, nil, fmt.Errorf("ONE_TIME_PREKEY_PRIV: %w", err)
		}
		pub, err := decodeHexPublicKey(os.Getenv("ONE_TIME_PREKEY_PUB"))
		if err != nil {
			return nil, 0, nil, fmt.Errorf("ONE_TIME_PREKEY_PUB: %w", err)
		}
		store.AddPreKey(&storage.PreKeyRecord{ID: id, KeyPair: curve.KeyPair{Priv: priv, Pub: pub}})
		oneTimePreKeyID = &id
	}

	return store, signedPreKeyID, oneTimePreKeyID, nil
}

func decodeHex32(hexStr string) (curve.PrivateKey, error) {
	var out curve.PrivateKey
	if len(hexStr) == 0 {
		return out, fmt.Errorf("hex string is empty")
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, err
	}
	if len(decoded) != curve.PrivateKeySize {
		return out, fmt.Errorf("decoded private key is not %d bytes long", curve.PrivateKeySize)
	}
	copy(out[:], decoded)
	return out, nil
}

func decodeHexPublicKey(hexStr string) (curve.PublicKey, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return curve.PublicKey{}, err
	}
	return curve.DecodePublicKey(decoded)
}
