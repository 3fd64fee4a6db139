// Package detection computes how likely an entity is to hear a player from
// distance, configured ranges, a falloff curve and how loud the player is
// relative to the entity's threshold. Every function is pure and total.
package detection

import (
	"fmt"
	"math"
)

const (
	// dB above threshold that doubles the baseline range
	loudnessScale = 25.0

	MinLoudnessMultiplier = 0.5
	MaxLoudnessMultiplier = 2.5

	// intensity distance curve exponent
	intensityExponent = 1.5
	// dB above threshold at which intensity reaches its full loudness factor
	intensityLoudnessSpan = 40.0

	MinAlerts = 1
	MaxAlerts = 5
)

// Params are the spatial tuning values of one category after nullable
// fields have been resolved
type Params struct {
	MinRange float64
	MaxRange float64
	Falloff  float64
}

// Assessment is the result of evaluating one listener against one sample
type Assessment struct {
	Distance           float64
	LoudnessMultiplier float64
	EffectiveMinRange  float64
	EffectiveMaxRange  float64
	Probability        float64
}

// Audible reports whether the listener can possibly detect the sample
func (a Assessment) Audible() bool {
	return a.Probability > 0
}

func (a Assessment) String() string {
	return fmt.Sprintf("distance %.1f, range %.1f-%.1f (x%.2f loudness), chance %.1f%%",
		a.Distance, a.EffectiveMinRange, a.EffectiveMaxRange, a.LoudnessMultiplier, a.Probability*100)
}

// LoudnessMultiplier scales range by how far loudness exceeds threshold:
// clamp(1 + (loudness-threshold)/25, 0.5, 2.5)
func LoudnessMultiplier(loudnessDB, thresholdDB float64) float64 {
	m := 1 + (loudnessDB-thresholdDB)/loudnessScale
	if math.IsNaN(m) {
		return 1
	}
	return clamp(m, MinLoudnessMultiplier, MaxLoudnessMultiplier)
}

// EffectiveRange scales a configured range by the environment and
// loudness multipliers
func EffectiveRange(configured, envMultiplier, loudnessMultiplier float64) float64 {
	r := configured * envMultiplier * loudnessMultiplier
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	return r
}

// Probability returns the chance of detection at distance.
// Distances at or inside minRange are certain, distances at or beyond
// maxRange are impossible, and in between the chance decays as
// (1 - normalized)^falloff. Degenerate ranges (max <= min) are treated as
// a hard edge at max.
func Probability(distance, minRange, maxRange, falloff float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	if maxRange <= minRange {
		if distance >= maxRange {
			return 0
		}
		return 1
	}
	if distance <= minRange {
		return 1
	}
	if distance >= maxRange {
		return 0
	}

	normalized := (distance - minRange) / (maxRange - minRange)
	return clamp(math.Pow(1-normalized, falloff), 0, 1)
}

// Assess runs the whole range computation for one listener
func Assess(distance float64, p Params, envMultiplier, loudnessDB, thresholdDB float64) Assessment {
	lm := LoudnessMultiplier(loudnessDB, thresholdDB)
	minR := EffectiveRange(p.MinRange, envMultiplier, lm)
	maxR := EffectiveRange(p.MaxRange, envMultiplier, lm)

	return Assessment{
		Distance:           distance,
		LoudnessMultiplier: lm,
		EffectiveMinRange:  minR,
		EffectiveMaxRange:  maxR,
		Probability:        Probability(distance, minR, maxR, p.Falloff),
	}
}

// Intensity maps distance and loudness onto [minValue, maxValue]. Closer is
// disproportionately stronger ((1-normalized)^1.5) and the result is scaled
// by a 0.7-1.0 factor for how far loudness exceeds threshold.
func Intensity(distance, minRange, maxRange float64, minValue, maxValue int, loudnessDB, thresholdDB float64) int {
	if maxValue < minValue {
		maxValue = minValue
	}
	if distance <= minRange {
		return maxValue
	}
	if distance >= maxRange || maxRange <= minRange {
		return minValue
	}

	normalized := (distance - minRange) / (maxRange - minRange)
	distanceFactor := math.Pow(1-normalized, intensityExponent)
	excess := clamp((loudnessDB-thresholdDB)/intensityLoudnessSpan, 0, 1)
	factor := distanceFactor * (0.7 + 0.3*excess)

	v := float64(minValue) + float64(maxValue-minValue)*factor
	return int(math.Round(clamp(v, float64(minValue), float64(maxValue))))
}

// AlertCount scales the size of a social alert burst with how close the
// original detection was: 5 at or inside minRange, 1 at or beyond maxRange,
// linear in between
func AlertCount(distance, minRange, maxRange float64) int {
	if distance <= minRange {
		return MaxAlerts
	}
	if distance >= maxRange || maxRange <= minRange {
		return MinAlerts
	}
	normalized := (distance - minRange) / (maxRange - minRange)
	n := int(MaxAlerts * (1 - normalized))
	if n < MinAlerts {
		return MinAlerts
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
