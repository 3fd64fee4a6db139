package audio

// VADConfig holds configuration for the per-player voice activity gate
type VADConfig struct {
	ThresholdDB   float64 // Level at or above which a frame counts as speech
	SilenceFrames int     // Number of consecutive quiet frames to mark end of speech
}

// DefaultVADConfig returns a default VAD configuration
func DefaultVADConfig() *VADConfig {
	return &VADConfig{
		ThresholdDB:   -70.0, // below this is background hiss
		SilenceFrames: 10,    // 200ms of silence (10 frames * 20ms)
	}
}

// VADDetector tracks whether one player is currently speaking
type VADDetector struct {
	config         *VADConfig
	silenceCounter int
	isSpeaking     bool
}

// NewVADDetector creates a new VAD detector
func NewVADDetector(config *VADConfig) *VADDetector {
	if config == nil {
		config = DefaultVADConfig()
	}
	return &VADDetector{
		config: config,
	}
}

// ProcessLevel feeds the level of one frame.
// Returns: (isSpeaking, speechStarted, speechEnded)
func (v *VADDetector) ProcessLevel(db float64) (bool, bool, bool) {
	frameHasSpeech := db >= v.config.ThresholdDB

	var speechStarted, speechEnded bool

	if frameHasSpeech {
		v.silenceCounter = 0
		if !v.isSpeaking {
			speechStarted = true
			v.isSpeaking = true
		}
	} else {
		v.silenceCounter++
		if v.isSpeaking && v.silenceCounter >= v.config.SilenceFrames {
			speechEnded = true
			v.isSpeaking = false
			v.silenceCounter = 0
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// ProcessFrame measures a PCM frame and feeds its level
func (v *VADDetector) ProcessFrame(samples []int16) (bool, bool, bool) {
	return v.ProcessLevel(CalculateAudioLevel(samples))
}

// Reset resets the VAD detector state
func (v *VADDetector) Reset() {
	v.silenceCounter = 0
	v.isSpeaking = false
}

// IsSpeaking returns whether speech is currently detected
func (v *VADDetector) IsSpeaking() bool {
	return v.isSpeaking
}
