package reaction

import (
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// eye contact requires the entity to be within ~45 degrees of the player's view
const eyeContactDot = 0.7

// lookingAt reports whether the player is looking at the entity from
// within maxRange
func lookingAt(player world.Player, ent world.Entity, maxRange float64) bool {
	toEntity := ent.EyePosition().Sub(player.Eye)
	distance := toEntity.Length()
	if distance == 0 || distance > maxRange {
		return false
	}
	look := player.Look.Normalize()
	return look.Dot(toEntity.Scale(1/distance)) > eyeContactDot
}

func (e *Engine) recordEyeContact(p *pass, ent world.Entity, profile *Profile) {
	if profile.EyeContactRange <= 0 || !lookingAt(p.player, ent, profile.EyeContactRange) {
		return
	}
	rec, _ := e.states.getOrCreate(ent.ID, p.now)
	rec.eyeContactAt = p.now
	rec.eyeContactPlayer = p.player.ID
	rec.lastActivity = p.now
}
