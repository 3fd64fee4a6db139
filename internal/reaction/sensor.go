package reaction

import (
	"github.com/lexiqai/voice-mechanics/internal/detection"
)

// activateSensors emits a step event at every sensor that hears the
// sample. Each sensor block has its own cooldown.
func (e *Engine) activateSensors(p *pass) {
	profile, ok := p.settings.Profile(CategorySensor)
	if !ok || !profile.Enabled {
		return
	}
	if p.dc.LoudnessDB < profile.ThresholdDB+p.env.ThresholdDB {
		return
	}

	radius := profile.Params.MaxRange * p.env.RangeMultiplier * detection.MaxLoudnessMultiplier
	for _, s := range e.world.SensorsNear(p.dc.Position, radius) {
		if profile.Blacklisted(s.Kind) {
			continue
		}
		if _, heard := e.detect(p, CategorySensor, profile, s.Position.Center().Distance(p.dc.Position)); !heard {
			continue
		}
		if last, ok := e.sensorCooldowns[s.Position]; ok && p.now.Sub(last) < profile.Cooldown {
			e.metrics.RecordDetection(string(CategorySensor), "cooldown")
			continue
		}

		e.sensorCooldowns[s.Position] = p.now
		e.world.EmitStepEvent(s.Position, p.player.ID)
		p.summary.Sensors++
		e.metrics.RecordSensorActivation()
	}
}
