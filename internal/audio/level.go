package audio

import (
	"fmt"
	"math"
)

const (
	// FloorDB is the level reported for silence and degenerate frames.
	FloorDB = -127.0
	// CeilingDB is the loudest representable level (full scale).
	CeilingDB = 0.0

	fullScale = 32767.0

	// raw proxy bytes are unsigned and centered on 128
	rawCenter    = 128
	rawFullScale = 128.0
)

// LevelCategory is a coarse, human-readable bucket for a loudness value
type LevelCategory string

const (
	LevelSilence  LevelCategory = "SILENCE"
	LevelQuiet    LevelCategory = "QUIET"
	LevelNormal   LevelCategory = "NORMAL"
	LevelLoud     LevelCategory = "LOUD"
	LevelVeryLoud LevelCategory = "VERY_LOUD"
)

// CalculateAudioLevel converts a frame of signed 16-bit PCM samples into a
// loudness value in decibels.
// The RMS amplitude is normalized to full scale and converted with 20*log10;
// silence and empty frames yield FloorDB. The result is always in
// [FloorDB, CeilingDB].
func CalculateAudioLevel(samples []int16) float64 {
	if len(samples) == 0 {
		return FloorDB
	}
	return rmsToDB(CalculateRMS(samples) / fullScale)
}

// CalculateRawLevel is the pre-decode variant of CalculateAudioLevel.
// Encoded bytes are treated as unsigned sample proxies centered on 128, which
// gives a rough loudness estimate without running a codec.
func CalculateRawLevel(data []byte) float64 {
	if len(data) == 0 {
		return FloorDB
	}

	var sumOfSquares int64
	for _, b := range data {
		centered := int64(b) - rawCenter
		sumOfSquares += centered * centered
	}

	rms := math.Sqrt(float64(sumOfSquares)/float64(len(data))) / rawFullScale
	return rmsToDB(rms)
}

func rmsToDB(rms float64) float64 {
	if rms <= 0 || math.IsNaN(rms) {
		return FloorDB
	}
	return ClampDB(20 * math.Log10(rms))
}

// ClampDB clamps a decibel value to [FloorDB, CeilingDB]. NaN maps to FloorDB.
func ClampDB(db float64) float64 {
	if math.IsNaN(db) || db < FloorDB {
		return FloorDB
	}
	if db > CeilingDB {
		return CeilingDB
	}
	return db
}

// NormalizedVolume maps a decibel value linearly onto 0.0 (silence) .. 1.0 (full scale)
func NormalizedVolume(db float64) float64 {
	db = ClampDB(db)
	return (db - FloorDB) / (CeilingDB - FloorDB)
}

// Category buckets a decibel value
func Category(db float64) LevelCategory {
	switch {
	case db < -100:
		return LevelSilence
	case db < -60:
		return LevelQuiet
	case db < -30:
		return LevelNormal
	case db < -10:
		return LevelLoud
	default:
		return LevelVeryLoud
	}
}

// DescribeLevel returns a one-line debug summary of a decibel value
func DescribeLevel(db float64) string {
	return fmt.Sprintf("dB: %.2f | Normalized: %.2f | Category: %s", db, NormalizedVolume(db), Category(db))
}
