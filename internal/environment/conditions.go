// Package environment turns the acoustic conditions at a position (biome,
// time of day, weather) into a loudness threshold adjustment and a range
// multiplier.
package environment

import "math"

// TicksPerDay is the length of one host day cycle
const TicksPerDay = 24000

// underground below this elevation even with sky access
const undergroundElevation = 50.0

// Weather is the precipitation state at a position
type Weather string

const (
	WeatherClear   Weather = "clear"
	WeatherRain    Weather = "rain"
	WeatherThunder Weather = "thunder"
)

// Conditions describes a world position as far as acoustics are concerned
type Conditions struct {
	Biome     string   `json:"biome"`
	TimeOfDay float64  `json:"time_of_day"` // normalized, 0 = start of day, wraps at 1
	Weather   Weather  `json:"weather,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"` // nil when unknown
	SkyLight  *int     `json:"sky_light,omitempty"` // nil when unknown
	InLiquid  bool     `json:"in_liquid,omitempty"`
}

// Underground reports whether the position is low or has no sky exposure.
// Unknown elevation and sky light count as above ground.
func (c *Conditions) Underground() bool {
	if c == nil {
		return false
	}
	if c.Elevation != nil && *c.Elevation < undergroundElevation {
		return true
	}
	return c.SkyLight != nil && *c.SkyLight == 0
}

// Underwater reports whether the position is inside a liquid block
func (c *Conditions) Underwater() bool {
	return c != nil && c.InLiquid
}

// TimeFromTicks normalizes a host day-time tick count to [0, 1)
func TimeFromTicks(ticks int64) float64 {
	t := ticks % TicksPerDay
	if t < 0 {
		t += TicksPerDay
	}
	return float64(t) / TicksPerDay
}

// Phase is a coarse part of the day cycle
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseDusk  Phase = "dusk"
	PhaseNight Phase = "night"
	PhaseDawn  Phase = "dawn"
)

// PhaseOf classifies a normalized time of day.
// Day 0-12000, dusk 12000-13000, night 13000-23000, dawn 23000-24000 ticks.
func PhaseOf(timeOfDay float64) Phase {
	t := timeOfDay - math.Floor(timeOfDay)
	ticks := t * TicksPerDay
	switch {
	case ticks < 12000:
		return PhaseDay
	case ticks < 13000:
		return PhaseDusk
	case ticks < 23000:
		return PhaseNight
	default:
		return PhaseDawn
	}
}
