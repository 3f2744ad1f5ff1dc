// Package config centralizes the numeric constants, HKDF info strings, and
// Redis key templates shared across the session machinery, in place of
// scattered magic values.
package config

// Protocol constants.
const (
	// ProtocolVersion is packed into both nibbles of the wire version
	// byte for frames produced by this implementation.
	ProtocolVersion = 3

	// MaxSkip bounds how far a chain may be filled ahead of its current
	// counter in a single fillMessageKeys call.
	MaxSkip = 2000

	// MaxRetiredSessions bounds how many closed sessions a SessionRecord
	// retains before the oldest are evicted.
	MaxRetiredSessions = 40

	// RegistrationIDBits is the width of the persisted registration id.
	RegistrationIDBits = 14
)

// HKDF info strings, one per derivation context. Distinct strings ensure
// outputs from different derivations never collide even given the same
// input keying material.
var (
	HKDFInfoX3DH           = []byte("WhisperText")
	HKDFInfoRatchet        = []byte("WhisperRatchet")
	HKDFInfoMessageKeys    = []byte("WhisperMessageKeys")
)

// Server/transport defaults, generalized from the single hardcoded pair
// the demo previously carried.
var (
	ServerAddress   = "localhost:8080"
	RedisAddress    = "localhost:6379"
	PublishKeysPath = "/keys"
	WebSocketPath   = "/ws"
)

// Redis key templates. Each is formatted with fmt.Sprintf against the
// arguments named in the comment.
var (
	// SessionRecordKey(ownerID, remoteAddr string)
	SessionRecordKey = "session:record:%s:%s"
	// IdentityKeyPairKey(ownerID string)
	IdentityKeyPairKey = "identity:keypair:%s"
	// RegistrationIDKey(ownerID string)
	RegistrationIDKey = "identity:regid:%s"
	// SignedPreKeyKey(ownerID string, keyID uint32)
	SignedPreKeyKey = "prekey:signed:%s:%d"
	// OneTimePreKeyKey(ownerID string, keyID uint32)
	OneTimePreKeyKey = "prekey:onetime:%s:%d"
	// TrustedIdentityKey(ownerID, remoteID string)
	TrustedIdentityKey = "identity:trusted:%s:%s"
	// MessageQueueKey(recipientID string)
	MessageQueueKey = "server:messages:%s"
	// PublishedBundleKey(ownerID string)
	PublishedBundleKey = "server:bundle:%s"
)
