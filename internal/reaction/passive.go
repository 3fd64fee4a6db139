package reaction

import (
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// reactPassive resolves neutral and peaceful entities: a loud enough voice
// scares them off, otherwise they look at the speaker and may follow a
// sneaking player who made eye contact.
func (e *Engine) reactPassive(p *pass, ent world.Entity, category Category, profile *Profile) {
	if !profile.Enabled || profile.Blacklisted(ent.Species) {
		return
	}

	// eye contact is remembered whether or not the voice is heard
	e.recordEyeContact(p, ent, profile)

	if _, heard := e.detect(p, category, profile, ent.Position.Distance(p.dc.Position)); !heard {
		return
	}

	chance := profile.ReactionChance * e.caps.ReactionMultiplier(ent)
	if e.rand.Float64() >= chance {
		e.metrics.RecordDetection(string(category), "unwilling")
		return
	}

	rec, h := e.states.getOrCreate(ent.ID, p.now)

	if profile.FleeEnabled && p.dc.LoudnessDB > profile.FleeThresholdDB &&
		rec.session != SessionFlee && e.caps.CanFlee(ent) {
		e.startFlee(p, ent, rec, h, profile)
		return
	}

	if rec.session == SessionFlee {
		return
	}

	if rec.onCooldown(p.now, profile.Cooldown) {
		e.metrics.RecordDetection(string(category), "cooldown")
		return
	}
	rec.lastReaction = p.now
	rec.lastActivity = p.now

	if e.caps.CanLook(ent) && e.world.LookAt(ent.ID, p.player.Eye) {
		e.timers.schedule(timer{
			due:        e.tick + e.ticksFor(profile.LookDuration),
			target:     h,
			action:     actionLookEnd,
			sessionGen: rec.sessionGen,
		})
		p.summary.Reacted++
		e.metrics.RecordReaction("look")
	}

	if p.player.Sneaking && profile.FollowEnabled && e.caps.CanFollow(ent) &&
		(!profile.RequireEyeContact || rec.hasRecentEyeContact(p.player.ID, p.now, profile.EyeContactMemory)) {
		e.startFollow(p, ent, rec, profile)
	}
}

func (e *Engine) startFlee(p *pass, ent world.Entity, rec *entityState, h handle, profile *Profile) {
	rec.lastReaction = p.now
	rec.lastActivity = p.now
	rec.setSession(SessionFlee, p.player.ID, p.now.Add(profile.FleeDuration))

	away := ent.Position.Sub(p.dc.Position)
	away.Y = 0
	dir := away.Normalize()
	if dir == (world.Vec3{}) {
		dir = world.Vec3{X: 1}
	}
	dest := ent.Position.Add(dir.Scale(profile.FleeDistance))
	e.world.MoveTo(ent.ID, dest)

	e.timers.schedule(timer{
		due:        e.tick + e.ticksFor(profile.FleeDuration),
		target:     h,
		action:     actionFleeEnd,
		sessionGen: rec.sessionGen,
	})

	p.summary.Reacted++
	e.metrics.RecordReaction("flee")
	e.logger.Debug().
		Int64("entity", int64(ent.ID)).
		Str("species", ent.Species).
		Str("player", p.player.Name).
		Float64("db", p.dc.LoudnessDB).
		Msg("Entity fleeing")
}

func (e *Engine) startFollow(p *pass, ent world.Entity, rec *entityState, profile *Profile) {
	rec.setSession(SessionFollow, p.player.ID, p.now.Add(profile.FollowDuration))
	e.world.MoveTo(ent.ID, p.player.Position)

	p.summary.Reacted++
	e.metrics.RecordReaction("follow")
	e.logger.Debug().
		Int64("entity", int64(ent.ID)).
		Str("species", ent.Species).
		Str("player", p.player.Name).
		Msg("Entity following")
}

// fire applies a due timer. Timers whose record was evicted, or whose
// session has since changed, do nothing.
func (e *Engine) fire(t timer) {
	rec := e.states.resolve(t.target)
	if rec == nil {
		return
	}

	switch t.action {
	case actionLookEnd:
		if rec.session == SessionNone {
			e.world.StopMoving(rec.entity)
		}
	case actionFleeEnd:
		if rec.session == SessionFlee && rec.sessionGen == t.sessionGen {
			rec.clearSession()
			e.world.StopMoving(rec.entity)
		}
	}
}
