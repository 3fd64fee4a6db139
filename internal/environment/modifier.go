package environment

import "fmt"

// Bounds of a combined adjustment
const (
	MinRangeMultiplier = 0.1
	MaxRangeMultiplier = 2.0
	MaxThresholdShift  = 20.0
)

// Adjustment is the acoustic effect of a position.
// ThresholdDB is added to a category's loudness threshold: negative values
// make the player easier to hear. RangeMultiplier scales detection ranges.
type Adjustment struct {
	ThresholdDB     float64
	RangeMultiplier float64
}

// Neutral is the adjustment used when conditions are unknown or disabled
var Neutral = Adjustment{ThresholdDB: 0, RangeMultiplier: 1}

func (a Adjustment) String() string {
	return fmt.Sprintf("threshold %+.1f dB, range x%.2f", a.ThresholdDB, a.RangeMultiplier)
}

// Modifier evaluates conditions with the two dimensions toggled independently
type Modifier struct {
	BiomeEnabled bool
	TimeEnabled  bool // also covers weather
}

// Evaluate combines every enabled dimension. Multipliers compose by product,
// threshold shifts by sum; the result is clamped. Nil conditions and a
// fully disabled modifier yield Neutral.
func (m Modifier) Evaluate(c *Conditions) Adjustment {
	if c == nil || (!m.BiomeEnabled && !m.TimeEnabled) {
		return Neutral
	}

	adj := Neutral

	if m.BiomeEnabled {
		effect := biomeEffects[Classify(c)]
		adj.RangeMultiplier *= effect.rangeMultiplier
		adj.ThresholdDB += effect.thresholdDB
	}

	if m.TimeEnabled {
		switch PhaseOf(c.TimeOfDay) {
		case PhaseNight:
			adj.RangeMultiplier *= 1.3
			adj.ThresholdDB -= 8
		case PhaseDusk, PhaseDawn:
			adj.RangeMultiplier *= 1.15
			adj.ThresholdDB -= 4
		}

		w := WeatherMultiplier(c.Weather)
		adj.RangeMultiplier *= w
		adj.ThresholdDB += (1 - w) * 10
	}

	return adj.clamped()
}

func (a Adjustment) clamped() Adjustment {
	if a.RangeMultiplier < MinRangeMultiplier {
		a.RangeMultiplier = MinRangeMultiplier
	} else if a.RangeMultiplier > MaxRangeMultiplier {
		a.RangeMultiplier = MaxRangeMultiplier
	}
	if a.ThresholdDB < -MaxThresholdShift {
		a.ThresholdDB = -MaxThresholdShift
	} else if a.ThresholdDB > MaxThresholdShift {
		a.ThresholdDB = MaxThresholdShift
	}
	return a
}

// WeatherMultiplier returns the range multiplier for a weather state
func WeatherMultiplier(w Weather) float64 {
	switch w {
	case WeatherRain:
		return 0.8
	case WeatherThunder:
		return 0.6
	default:
		return 1.0
	}
}

// Describe renders conditions for debug logs
func Describe(c *Conditions) string {
	if c == nil {
		return "unknown conditions"
	}
	weather := c.Weather
	if weather == "" {
		weather = WeatherClear
	}
	return fmt.Sprintf("biome=%s (%s) phase=%s weather=%s",
		c.Biome, Classify(c), PhaseOf(c.TimeOfDay), weather)
}
