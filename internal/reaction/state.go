package reaction

import (
	"time"

	"github.com/lexiqai/voice-mechanics/internal/world"
)

// SessionKind is the long-running behavior an entity is engaged in
type SessionKind uint8

const (
	SessionNone SessionKind = iota
	SessionFlee
	SessionFollow
)

func (k SessionKind) String() string {
	switch k {
	case SessionFlee:
		return "flee"
	case SessionFollow:
		return "follow"
	default:
		return "none"
	}
}

// handle addresses a record slot; it goes stale when the slot is reused
type handle struct {
	slot int32
	gen  uint32
}

// entityState is the transient memory the engine keeps about one entity
type entityState struct {
	entity world.EntityID
	gen    uint32
	live   bool

	lastReaction time.Time
	lastActivity time.Time

	eyeContactAt     time.Time
	eyeContactPlayer world.PlayerID

	session       SessionKind
	sessionPlayer world.PlayerID
	sessionUntil  time.Time
	// bumped on every session change so queued timers for an older session no-op
	sessionGen uint32
}

func (s *entityState) onCooldown(now time.Time, cooldown time.Duration) bool {
	return !s.lastReaction.IsZero() && now.Sub(s.lastReaction) < cooldown
}

func (s *entityState) hasRecentEyeContact(player world.PlayerID, now time.Time, memory time.Duration) bool {
	if s.eyeContactAt.IsZero() || s.eyeContactPlayer != player {
		return false
	}
	return now.Sub(s.eyeContactAt) < memory
}

func (s *entityState) setSession(kind SessionKind, player world.PlayerID, until time.Time) {
	s.session = kind
	s.sessionPlayer = player
	s.sessionUntil = until
	s.sessionGen++
}

func (s *entityState) clearSession() {
	s.setSession(SessionNone, world.PlayerID{}, time.Time{})
}

// stateArena stores entity records in a slice with a free list. Records are
// addressed by entity id through index and by handle from timers.
type stateArena struct {
	records []entityState
	index   map[world.EntityID]int32
	free    []int32
}

func newStateArena() *stateArena {
	return &stateArena{
		index: make(map[world.EntityID]int32),
	}
}

// get returns the record of an entity, or nil
func (a *stateArena) get(id world.EntityID) *entityState {
	slot, ok := a.index[id]
	if !ok {
		return nil
	}
	return &a.records[slot]
}

// getOrCreate returns the record of an entity, allocating one if needed
func (a *stateArena) getOrCreate(id world.EntityID, now time.Time) (*entityState, handle) {
	if slot, ok := a.index[id]; ok {
		rec := &a.records[slot]
		return rec, handle{slot: slot, gen: rec.gen}
	}

	var slot int32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.records = append(a.records, entityState{})
		slot = int32(len(a.records) - 1)
	}

	rec := &a.records[slot]
	gen := rec.gen + 1
	*rec = entityState{entity: id, gen: gen, live: true, lastActivity: now}
	a.index[id] = slot
	return rec, handle{slot: slot, gen: gen}
}

// resolve returns the record behind a handle, or nil if it was evicted
func (a *stateArena) resolve(h handle) *entityState {
	if h.slot < 0 || int(h.slot) >= len(a.records) {
		return nil
	}
	rec := &a.records[h.slot]
	if !rec.live || rec.gen != h.gen {
		return nil
	}
	return rec
}

// evict frees the record of an entity
func (a *stateArena) evict(id world.EntityID) bool {
	slot, ok := a.index[id]
	if !ok {
		return false
	}
	delete(a.index, id)
	rec := &a.records[slot]
	gen := rec.gen
	*rec = entityState{gen: gen}
	a.free = append(a.free, slot)
	return true
}

// each calls fn for every live record. fn may evict the record it is given.
func (a *stateArena) each(fn func(rec *entityState)) {
	for i := range a.records {
		if a.records[i].live {
			fn(&a.records[i])
		}
	}
}

func (a *stateArena) len() int {
	return len(a.index)
}

// counts returns the number of active flee and follow sessions
func (a *stateArena) counts() (fleeing, following int) {
	a.each(func(rec *entityState) {
		switch rec.session {
		case SessionFlee:
			fleeing++
		case SessionFollow:
			following++
		}
	})
	return fleeing, following
}
