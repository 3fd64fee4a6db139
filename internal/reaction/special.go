package reaction

import (
	"github.com/lexiqai/voice-mechanics/internal/detection"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// reactSpecial accumulates anger toward the player instead of targeting.
// Closer and louder voices add more.
func (e *Engine) reactSpecial(p *pass, ent world.Entity, profile *Profile) {
	if !profile.Enabled || profile.Blacklisted(ent.Species) {
		return
	}

	a, heard := e.detect(p, CategorySpecial, profile, ent.Position.Distance(p.dc.Position))
	if !heard {
		return
	}

	threshold := profile.ThresholdDB + p.env.ThresholdDB
	amount := detection.Intensity(a.Distance, a.EffectiveMinRange, a.EffectiveMaxRange,
		profile.MinAnger, profile.MaxAnger, p.dc.LoudnessDB, threshold)

	if e.world.IncreaseAnger(ent.ID, p.player.ID, amount) {
		p.summary.Reacted++
		e.metrics.RecordReaction("anger")
		e.logger.Debug().
			Int64("entity", int64(ent.ID)).
			Str("player", p.player.Name).
			Int("anger", amount).
			Msg("Anger increased")
	}
}
