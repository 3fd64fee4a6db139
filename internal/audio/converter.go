package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytesToPCM converts little-endian 16-bit PCM bytes into samples
func BytesToPCM(pcmData []byte) ([]int16, error) {
	if len(pcmData)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples), got %d", len(pcmData))
	}

	samples := make([]int16, len(pcmData)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcmData[i*2:]))
	}
	return samples, nil
}

// PCMToBytes converts samples into little-endian 16-bit PCM bytes
func PCMToBytes(samples []int16) []byte {
	pcmData := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(pcmData[i*2:], uint16(sample))
	}
	return pcmData
}

// ConvertPCMUToPCM converts G.711 PCMU (μ-law) bytes to linear PCM samples
func ConvertPCMUToPCM(pcmuData []byte) []int16 {
	samples := make([]int16, len(pcmuData))
	for i, mulawByte := range pcmuData {
		samples[i] = mulawToLinear(mulawByte)
	}
	return samples
}

// mulawToLinear converts an 8-bit μ-law sample to 16-bit linear PCM
func mulawToLinear(mulawByte byte) int16 {
	// μ-law uses inverted representation
	mulawByte = ^mulawByte

	sign := mulawByte & 0x80
	segment := int32((mulawByte >> 4) & 0x07)
	mantissa := int32(mulawByte & 0x0F)

	// step = (mantissa << (segment + 1)) + (33 << segment); magnitude = step - 33
	step := mantissa << (segment + 1)
	step += int32(33) << segment
	magnitude := step - 33

	if sign != 0 {
		return int16(-magnitude)
	}
	return int16(magnitude)
}

// CalculateRMS calculates the root mean square (RMS) of audio samples
// in raw sample units (0..32768)
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
