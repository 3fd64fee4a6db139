package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBytesToPCM(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	pcmData := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(pcmData[i*2:], uint16(sample))
	}

	got, err := BytesToPCM(pcmData)
	if err != nil {
		t.Fatalf("BytesToPCM failed: %v", err)
	}
	if len(got) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestBytesToPCM_OddLength(t *testing.T) {
	if _, err := BytesToPCM([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for odd-length PCM data")
	}
}

func TestPCMToBytes(t *testing.T) {
	data := PCMToBytes([]int16{-2, 258})
	want := []byte{0xFE, 0xFF, 0x02, 0x01}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("Byte %d: expected %#x, got %#x", i, want[i], data[i])
		}
	}
}

func TestConvertPCMUToPCM(t *testing.T) {
	samples := ConvertPCMUToPCM([]byte{0xFF, 0x7F, 0x80, 0x00})
	if len(samples) != 4 {
		t.Fatalf("Expected 4 samples, got %d", len(samples))
	}

	// 0xFF and 0x7F both encode zero magnitude
	if samples[0] != 0 || samples[1] != 0 {
		t.Errorf("Expected zero samples, got %d and %d", samples[0], samples[1])
	}
	if samples[2] != 8031 {
		t.Errorf("Expected positive peak 8031, got %d", samples[2])
	}
	if samples[3] != -8031 {
		t.Errorf("Expected negative peak -8031, got %d", samples[3])
	}
}

func TestCalculateRMS(t *testing.T) {
	samples := []int16{1000, -1000, 2000, -2000}
	rms := CalculateRMS(samples)

	// sqrt((1000^2 + 1000^2 + 2000^2 + 2000^2) / 4)
	expected := math.Sqrt(2500000)
	if math.Abs(rms-expected) > 0.01 {
		t.Errorf("Expected RMS around %.2f, got %.2f", expected, rms)
	}

	if CalculateRMS(nil) != 0 {
		t.Error("Expected RMS of empty frame to be 0")
	}
}
