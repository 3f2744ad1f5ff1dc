// Package sessionrecord holds the collection of Double Ratchet sessions
// kept against one remote address: at most one open session plus up to
// forty retired ones, addressed by the base key that identifies each
// X3DH-initiated session.
package sessionrecord

import (
	"encoding/hex"
	"sort"

	"signalcore/config"
	"signalcore/ratchet"
)

// Record is an ordered mapping from base-key bytes to ratchet state.
type Record struct {
	sessions map[string]*ratchet.State
	// order preserves insertion order so GetSessions has a stable
	// tie-break when Used timestamps collide.
	order []string
}

// New returns an empty record.
func New() *Record {
	return &Record{sessions: make(map[string]*ratchet.State)}
}

func keyFor(baseKey []byte) string { return hex.EncodeToString(baseKey) }

// PutSession files state under its own IndexInfo.BaseKey.
func (r *Record) PutSession(state *ratchet.State) {
	k := keyFor(state.IndexInfo.BaseKey)
	if _, exists := r.sessions[k]; !exists {
		r.order = append(r.order, k)
	}
	r.sessions[k] = state
}

// GetSession returns the session filed under baseKey, provided it was
// filed as a THEIRS-typed session; sessions we originated ourselves are
// never returned by this lookup.
func (r *Record) GetSession(baseKey []byte) (*ratchet.State, bool) {
	s, ok := r.sessions[keyFor(baseKey)]
	if !ok || s.IndexInfo.BaseKeyType != ratchet.THEIRS {
		return nil, false
	}
	return s, true
}

// GetSessionByKey looks up a session regardless of BaseKeyType; used by
// SessionBuilder to check whether a session already exists under a
// sender's base key, and by SessionCipher to select the session an
// incoming PreKey message was filed under.
func (r *Record) GetSessionByKey(baseKey []byte) (*ratchet.State, bool) {
	s, ok := r.sessions[keyFor(baseKey)]
	return s, ok
}

// GetOpenSession returns the record's single open session, if any.
func (r *Record) GetOpenSession() (*ratchet.State, bool) {
	for _, k := range r.order {
		if s := r.sessions[k]; s.IsOpen() {
			return s, true
		}
	}
	return nil, false
}

// CloseOpenSession closes whichever session is currently open, recording
// closedAt as its close timestamp. It is a no-op if none is open.
func (r *Record) CloseOpenSession(closedAt int64) {
	if s, ok := r.GetOpenSession(); ok {
		s.IndexInfo.Closed = closedAt
	}
}

// GetSessions returns every session, sorted by IndexInfo.Used descending
// (most recently used first).
func (r *Record) GetSessions() []*ratchet.State {
	out := make([]*ratchet.State, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.sessions[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IndexInfo.Used > out[j].IndexInfo.Used
	})
	return out
}

// RemoveOldSessions deletes closed sessions in ascending closed-timestamp
// order until at most MaxRetiredSessions remain among the closed ones.
func (r *Record) RemoveOldSessions() {
	type entry struct {
		key    string
		closed int64
	}
	var closed []entry
	for _, k := range r.order {
		s := r.sessions[k]
		if s.IndexInfo.Closed != -1 {
			closed = append(closed, entry{key: k, closed: s.IndexInfo.Closed})
		}
	}
	if len(closed) <= config.MaxRetiredSessions {
		return
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].closed < closed[j].closed })
	toRemove := len(closed) - config.MaxRetiredSessions
	remove := make(map[string]bool, toRemove)
	for i := 0; i < toRemove; i++ {
		remove[closed[i].key] = true
	}
	r.deleteKeys(remove)
}

func (r *Record) deleteKeys(remove map[string]bool) {
	newOrder := r.order[:0:0]
	for _, k := range r.order {
		if remove[k] {
			delete(r.sessions, k)
			continue
		}
		newOrder = append(newOrder, k)
	}
	r.order = newOrder
}

// Len reports the total number of sessions (open plus closed).
func (r *Record) Len() int { return len(r.order) }
