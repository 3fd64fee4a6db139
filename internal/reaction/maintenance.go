package reaction

import (
	"time"

	"github.com/lexiqai/voice-mechanics/internal/world"
)

// sensor cooldowns are forgotten once they are this many cooldowns old
const sensorCooldownRetention = 10

// maintain ends follow sessions that can no longer continue, steers the
// ones that can, and evicts records that carry nothing worth remembering
func (e *Engine) maintain() {
	now := e.clock()
	s := e.settings.Load()

	e.states.each(func(rec *entityState) {
		ent, ok := e.world.Entity(rec.entity)
		if !ok {
			e.states.evict(rec.entity)
			return
		}
		profile, _ := s.Profile(CategoryOf(ent.Species))

		switch rec.session {
		case SessionFollow:
			e.maintainFollow(rec, ent, profile, now)
		case SessionFlee:
			// the flee timer normally ends the session first
			if !now.Before(rec.sessionUntil) {
				rec.clearSession()
				e.world.StopMoving(ent.ID)
			}
		}

		if e.stale(rec, profile, s.StateTTL, now) {
			e.states.evict(rec.entity)
		}
	})

	if sensor, ok := s.Profile(CategorySensor); ok {
		retention := sensor.Cooldown * sensorCooldownRetention
		if retention < time.Second {
			retention = time.Second
		}
		for pos, last := range e.sensorCooldowns {
			if now.Sub(last) > retention {
				delete(e.sensorCooldowns, pos)
			}
		}
	}

	stats := e.Stats()
	e.metrics.SetEngineState(stats.Tracked, stats.Fleeing, stats.Following)
}

func (e *Engine) maintainFollow(rec *entityState, ent world.Entity, profile *Profile, now time.Time) {
	reason := ""
	player, ok := e.world.Player(rec.sessionPlayer)
	switch {
	case !now.Before(rec.sessionUntil):
		reason = "expired"
	case !ok || !player.Online:
		reason = "player_gone"
	case !e.caps.CanFollow(ent):
		reason = "unable"
	case profile == nil || ent.Position.Distance(player.Position) > profile.MaxFollowDistance:
		reason = "too_far"
	}

	if reason == "" {
		e.world.MoveTo(ent.ID, player.Position)
		return
	}

	rec.clearSession()
	e.world.StopMoving(ent.ID)
	e.logger.Debug().
		Int64("entity", int64(ent.ID)).
		Str("reason", reason).
		Msg("Follow ended")
}

// stale reports whether a record can be dropped: no session, no active
// cooldown, no remembered eye contact and idle for ttl
func (e *Engine) stale(rec *entityState, profile *Profile, ttl time.Duration, now time.Time) bool {
	if rec.session != SessionNone {
		return false
	}
	if profile != nil {
		if rec.onCooldown(now, profile.Cooldown) {
			return false
		}
		if !rec.eyeContactAt.IsZero() && now.Sub(rec.eyeContactAt) < profile.EyeContactMemory {
			return false
		}
	}
	return now.Sub(rec.lastActivity) >= ttl
}
