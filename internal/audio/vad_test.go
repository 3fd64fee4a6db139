package audio

import (
	"testing"
)

func constantFrame(value int16) []int16 {
	samples := make([]int16, 960) // 20ms at 48kHz
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func TestVADDetector_ProcessFrame_Speech(t *testing.T) {
	vad := NewVADDetector(&VADConfig{ThresholdDB: -40, SilenceFrames: 10})

	samples := constantFrame(5000) // about -16 dB

	for i := 0; i < 5; i++ {
		isSpeaking, speechStarted, _ := vad.ProcessFrame(samples)
		if !isSpeaking {
			t.Errorf("Expected speech detection on frame %d", i)
		}
		if i == 0 && !speechStarted {
			t.Error("Expected speech to start on first frame")
		}
		if i > 0 && speechStarted {
			t.Errorf("Expected speech start only once, got it on frame %d", i)
		}
	}
}

func TestVADDetector_ProcessFrame_Silence(t *testing.T) {
	vad := NewVADDetector(&VADConfig{ThresholdDB: -40, SilenceFrames: 10})

	samples := constantFrame(10) // about -70 dB

	for i := 0; i < 15; i++ {
		isSpeaking, _, _ := vad.ProcessFrame(samples)
		if isSpeaking {
			t.Errorf("Expected silence on frame %d", i)
		}
	}
}

func TestVADDetector_ProcessLevel_Hangover(t *testing.T) {
	vad := NewVADDetector(&VADConfig{ThresholdDB: -40, SilenceFrames: 3})

	vad.ProcessLevel(-20)

	for i := 0; i < 2; i++ {
		isSpeaking, _, ended := vad.ProcessLevel(-90)
		if !isSpeaking || ended {
			t.Fatalf("Expected speech to continue through quiet frame %d", i)
		}
	}

	isSpeaking, _, ended := vad.ProcessLevel(-90)
	if isSpeaking || !ended {
		t.Error("Expected speech to end after 3 quiet frames")
	}
}

func TestVADDetector_QuietFrameResetsHangover(t *testing.T) {
	vad := NewVADDetector(&VADConfig{ThresholdDB: -40, SilenceFrames: 2})

	vad.ProcessLevel(-20)
	vad.ProcessLevel(-90)
	vad.ProcessLevel(-20)
	_, _, ended := vad.ProcessLevel(-90)
	if ended {
		t.Error("Expected loud frame to reset the silence counter")
	}
}

func TestVADDetector_ThresholdIsInclusive(t *testing.T) {
	vad := NewVADDetector(&VADConfig{ThresholdDB: -40, SilenceFrames: 1})
	if isSpeaking, _, _ := vad.ProcessLevel(-40); !isSpeaking {
		t.Error("Expected frame exactly at threshold to count as speech")
	}
}

func TestVADDetector_Reset(t *testing.T) {
	vad := NewVADDetector(nil)

	vad.ProcessFrame(constantFrame(5000))
	if !vad.IsSpeaking() {
		t.Fatal("Expected speech to be detected")
	}

	vad.Reset()
	if vad.IsSpeaking() {
		t.Error("Expected speech state to be false after reset")
	}
}

func TestDefaultVADConfig(t *testing.T) {
	config := DefaultVADConfig()
	if config.ThresholdDB != -70.0 {
		t.Errorf("Expected default ThresholdDB -70.0, got %f", config.ThresholdDB)
	}
	if config.SilenceFrames != 10 {
		t.Errorf("Expected default SilenceFrames 10, got %d", config.SilenceFrames)
	}
}
