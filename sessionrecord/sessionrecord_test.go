package sessionrecord

import (
	"fmt"
	"testing"
	"time"

	"signalcore/curve"
	"signalcore/ratchet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, baseKey string, used int64) *ratchet.State {
	t.Helper()
	eph, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	s := ratchet.NewState(eph, []byte(baseKey), ratchet.THEIRS, curve.PublicKey{}, time.Unix(used, 0))
	s.IndexInfo.Used = used
	s.RootKey = [32]byte{1, 2, 3}
	require.NoError(t, seedSendingChain(s))
	return s
}

// seedSendingChain gives a session a minimal installed sending chain so
// serialization round-trips exercise a non-empty chain.
func seedSendingChain(s *ratchet.State) error {
	s.SendingChain = &ratchet.Chain{
		ChainKey:    ratchet.ChainKey{Counter: 0, Key: make([]byte, 32)},
		MessageKeys: map[uint32][]byte{0: make([]byte, 32)},
		Type:        ratchet.Sending,
	}
	s.SendingChainKey = "deadbeef"
	return nil
}

func TestGetSessionsOrderedByUsedDescending(t *testing.T) {
	r := New()
	r.PutSession(newTestState(t, "a", 10))
	r.PutSession(newTestState(t, "b", 30))
	r.PutSession(newTestState(t, "c", 20))

	sessions := r.GetSessions()
	require.Len(t, sessions, 3)
	assert.Equal(t, int64(30), sessions[0].IndexInfo.Used)
	assert.Equal(t, int64(20), sessions[1].IndexInfo.Used)
	assert.Equal(t, int64(10), sessions[2].IndexInfo.Used)
}

func TestSessionRetirementEvictsOldestClosed(t *testing.T) {
	r := New()
	for i := 0; i < 42; i++ {
		s := newTestState(t, fmt.Sprintf("base-%d", i), int64(i))
		s.IndexInfo.Closed = int64(i) // all closed, ascending
		r.PutSession(s)
	}
	require.Equal(t, 42, r.Len())

	r.RemoveOldSessions()
	assert.Equal(t, 40, r.Len())

	// the two lowest `closed` timestamps (0 and 1) must be gone
	for _, s := range r.GetSessions() {
		assert.GreaterOrEqual(t, s.IndexInfo.Closed, int64(2))
	}
}

func TestGetSessionExcludesOursTyped(t *testing.T) {
	r := New()
	eph, err := curve.GenerateKeyPair()
	require.NoError(t, err)
	ours := ratchet.NewState(eph, []byte("ours"), ratchet.OURS, curve.PublicKey{}, time.Unix(0, 0))
	r.PutSession(ours)

	_, ok := r.GetSession([]byte("ours"))
	assert.False(t, ok)

	_, ok = r.GetSessionByKey([]byte("ours"))
	assert.True(t, ok)
}

func TestSerializationFixpoint(t *testing.T) {
	r := New()
	r.PutSession(newTestState(t, "base1", 5))
	s2 := newTestState(t, "base2", 9)
	s2.PendingPreKey = &ratchet.PendingPreKey{BaseKey: s2.EphemeralKeyPair.Pub, SignedKeyID: 1}
	r.PutSession(s2)

	data, err := r.Serialize()
	require.NoError(t, err)

	r2, err := Deserialize(data)
	require.NoError(t, err)

	data2, err := r2.Serialize()
	require.NoError(t, err)

	assert.JSONEq(t, string(data), string(data2))
}

func TestDeserializeEmptyIsEmptyRecord(t *testing.T) {
	r, err := Deserialize(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}
