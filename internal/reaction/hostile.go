package reaction

import (
	"github.com/lexiqai/voice-mechanics/internal/detection"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// reactHostile makes a hostile entity target the speaking player. An
// existing target is never overridden.
func (e *Engine) reactHostile(p *pass, ent world.Entity, profile *Profile) {
	if !profile.Enabled || profile.Blacklisted(ent.Species) || !e.caps.CanAttack(ent) {
		return
	}

	a, heard := e.detect(p, CategoryHostile, profile, ent.Position.Distance(p.dc.Position))
	if !heard {
		return
	}

	if !ent.HasTarget() && e.world.SetTarget(ent.ID, p.player.ID) {
		ent.Target = p.player.ID
		p.summary.Reacted++
		e.metrics.RecordReaction("target")
		e.logger.Debug().
			Int64("entity", int64(ent.ID)).
			Str("species", ent.Species).
			Str("player", p.player.Name).
			Str("assessment", a.String()).
			Msg("Hostile targeted speaker")
	}

	if ent.Target == p.player.ID {
		e.alertGroup(p, ent, profile, a)
	}
}

// alertGroup makes same-species allies of origin target the player. The
// burst size shrinks with the distance of the original detection. Alerted
// allies are not evaluated again in this pass.
func (e *Engine) alertGroup(p *pass, origin world.Entity, profile *Profile, a detection.Assessment) {
	s := p.settings
	if !s.GroupAlertEnabled || s.MaxGroupAlerts <= 0 {
		return
	}
	radius, social := s.Social.Radius(origin.Species)
	if !social {
		return
	}

	limit := detection.AlertCount(a.Distance, a.EffectiveMinRange, a.EffectiveMaxRange)
	if limit > s.MaxGroupAlerts {
		limit = s.MaxGroupAlerts
	}

	alerted := 0
	for _, ally := range e.world.EntitiesNear(origin.Position, radius) {
		if alerted >= limit {
			break
		}
		if ally.ID == origin.ID || ally.Species != origin.Species {
			continue
		}
		if ally.Position.Distance(origin.Position) > radius {
			continue
		}
		if ally.Target == p.player.ID {
			continue
		}
		if profile.Blacklisted(ally.Species) || !e.caps.CanAttack(ally) {
			continue
		}
		if e.world.SetTarget(ally.ID, p.player.ID) {
			alerted++
			p.seen[ally.ID] = struct{}{}
		}
	}

	if alerted > 0 {
		p.summary.Alerted += alerted
		e.metrics.RecordGroupAlerts(alerted)
		e.logger.Debug().
			Int64("origin", int64(origin.ID)).
			Str("species", origin.Species).
			Int("alerted", alerted).
			Int("limit", limit).
			Msg("Group alerted")
	}
}
