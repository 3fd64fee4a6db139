package audio

import (
	"errors"
	"testing"
)

func TestParseCodec(t *testing.T) {
	tests := []struct {
		in      string
		want    Codec
		wantErr bool
	}{
		{"", CodecPCM16, false},
		{"PCM16", CodecPCM16, false},
		{" mulaw ", CodecMulaw, false},
		{"opus", CodecOpus, false},
		{"raw", CodecRaw, false},
		{"aac", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCodec(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedCodec) {
				t.Errorf("ParseCodec(%q) expected ErrUnsupportedCodec, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCodec(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCodec(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewDecoder_PCM16(t *testing.T) {
	dec, err := NewDecoder(CodecPCM16)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	samples, err := dec.Decode(PCMToBytes([]int16{10, -10}))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(samples) != 2 || samples[0] != 10 || samples[1] != -10 {
		t.Errorf("Unexpected samples %v", samples)
	}
}

func TestNewDecoder_Mulaw(t *testing.T) {
	dec, err := NewDecoder(CodecMulaw)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	samples, err := dec.Decode([]byte{0xFF, 0x80})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(samples) != 2 || samples[1] != 8031 {
		t.Errorf("Unexpected samples %v", samples)
	}
}

func TestNewDecoder_Raw(t *testing.T) {
	if _, err := NewDecoder(CodecRaw); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Expected raw codec to have no decoder, got %v", err)
	}
}
