package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/audio"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// syncDispatch runs tasks immediately, standing in for the tick goroutine
func syncDispatch(fn func()) bool {
	fn()
	return true
}

func pcmFrame(samples int, value int16) []byte {
	frame := make([]int16, samples)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = value
		} else {
			frame[i] = -value
		}
	}
	return audio.PCMToBytes(frame)
}

func newTestIngestor(cfg IngestorConfig, dispatch Dispatch) (*Ingestor, *[]Sample) {
	var samples []Sample
	if cfg.FrameSamples == 0 {
		cfg.FrameSamples = 960
	}
	if cfg.BufferedFrames == 0 {
		cfg.BufferedFrames = 4
	}
	if cfg.VAD.SilenceFrames == 0 {
		cfg.VAD = audio.VADConfig{ThresholdDB: -70, SilenceFrames: 2}
	}
	in := NewIngestor(cfg, dispatch, func(s Sample) { samples = append(samples, s) }, nil, zerolog.Nop())
	return in, &samples
}

func TestIngestor_DispatchesVoicedFrames(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{}, syncDispatch)
	player := uuid.New()
	pos := world.Vec3{X: 1, Y: 64, Z: 2}

	sent, err := in.Ingest(player, audio.CodecPCM16, pcmFrame(960, 3277), &pos)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if sent != 1 || len(*samples) != 1 {
		t.Fatalf("Expected 1 sample, got sent=%d samples=%d", sent, len(*samples))
	}

	s := (*samples)[0]
	if s.Player != player {
		t.Errorf("Expected player %s, got %s", player, s.Player)
	}
	// full-swing square wave at 0.1 of full scale is -20dB
	if s.LoudnessDB < -20.1 || s.LoudnessDB > -19.9 {
		t.Errorf("Expected about -20dB, got %.2f", s.LoudnessDB)
	}
	if s.Position == nil || *s.Position != pos {
		t.Errorf("Expected position %+v, got %v", pos, s.Position)
	}
	if s.At.IsZero() {
		t.Error("Expected a timestamp")
	}
}

func TestIngestor_SilenceGated(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{}, syncDispatch)

	sent, err := in.Ingest(uuid.New(), audio.CodecPCM16, make([]byte, 1920), nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if sent != 0 || len(*samples) != 0 {
		t.Errorf("Expected silence to be gated, got %d samples", len(*samples))
	}
}

func TestIngestor_AssemblesPartialPayloads(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{}, syncDispatch)
	player := uuid.New()
	frame := pcmFrame(960, 3277)

	if sent, _ := in.Ingest(player, audio.CodecPCM16, frame[:1000], nil); sent != 0 {
		t.Errorf("Expected no sample from a partial frame, got %d", sent)
	}
	if sent, _ := in.Ingest(player, audio.CodecPCM16, frame[1000:], nil); sent != 1 {
		t.Errorf("Expected the completed frame to dispatch, got %d", sent)
	}
	if len(*samples) != 1 {
		t.Errorf("Expected 1 sample, got %d", len(*samples))
	}
}

func TestIngestor_DetectEvery(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{DetectEvery: 3}, syncDispatch)
	player := uuid.New()

	for i := 0; i < 7; i++ {
		if _, err := in.Ingest(player, audio.CodecPCM16, pcmFrame(960, 3277), nil); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	// voiced frames 1, 4 and 7
	if len(*samples) != 3 {
		t.Errorf("Expected 3 samples, got %d", len(*samples))
	}
}

func TestIngestor_RawCodec(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{}, syncDispatch)

	payload := make([]byte, 320)
	for i := range payload {
		if i%2 == 0 {
			payload[i] = 255
		}
	}
	sent, err := in.Ingest(uuid.New(), audio.CodecRaw, payload, nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if sent != 1 || len(*samples) != 1 {
		t.Fatalf("Expected raw payload to be measured, got %d samples", len(*samples))
	}
	if (*samples)[0].Position != nil {
		t.Error("Expected nil position when none was given")
	}
}

func TestIngestor_MulawCodec(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{FrameSamples: 160}, syncDispatch)

	// 0x00 decodes to the largest negative magnitude
	sent, err := in.Ingest(uuid.New(), audio.CodecMulaw, make([]byte, 160), nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if sent != 1 || len(*samples) != 1 {
		t.Errorf("Expected 1 sample, got %d", len(*samples))
	}
}

func TestIngestor_DecodeErrorDropsFrame(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{}, syncDispatch)

	if _, err := in.Ingest(uuid.New(), audio.CodecPCM16, []byte{1, 2, 3}, nil); err == nil {
		t.Error("Expected an odd-length PCM payload to fail")
	}
	if len(*samples) != 0 {
		t.Errorf("Expected no samples, got %d", len(*samples))
	}
}

func TestIngestor_RejectedDispatch(t *testing.T) {
	in, samples := newTestIngestor(IngestorConfig{}, func(fn func()) bool { return false })

	sent, err := in.Ingest(uuid.New(), audio.CodecPCM16, pcmFrame(960, 3277), nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if sent != 0 || len(*samples) != 0 {
		t.Errorf("Expected rejected dispatch to send nothing, got %d", sent)
	}
}

func TestIngestor_Forget(t *testing.T) {
	in, _ := newTestIngestor(IngestorConfig{}, syncDispatch)
	player := uuid.New()

	in.Ingest(player, audio.CodecPCM16, pcmFrame(960, 3277), nil)
	if in.Players() != 1 {
		t.Fatalf("Expected 1 tracked player, got %d", in.Players())
	}
	in.Forget(player)
	if in.Players() != 0 {
		t.Errorf("Expected player to be forgotten, got %d", in.Players())
	}
}
