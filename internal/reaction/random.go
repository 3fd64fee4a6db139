package reaction

import "math/rand/v2"

// Random is the source of every roll the engine makes
type Random interface {
	// Float64 returns a number in [0, 1)
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return rand.Float64() }

// NewRandom returns the process-wide random source
func NewRandom() Random {
	return defaultRandom{}
}
