package audio

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/hraban/opus.v2"
)

// Codec names the wire encoding of a voice frame
type Codec string

const (
	CodecPCM16 Codec = "pcm16" // signed 16-bit little-endian
	CodecMulaw Codec = "mulaw" // G.711 PCMU
	CodecOpus  Codec = "opus"
	CodecRaw   Codec = "raw" // encoded bytes, measured with the raw proxy
)

const (
	// OpusSampleRate is the decode rate used for Opus frames
	OpusSampleRate = 48000
	// max 120ms at 48kHz mono
	opusMaxFrameSamples = 5760
)

// ErrUnsupportedCodec is returned by NewDecoder for unknown codec names
var ErrUnsupportedCodec = errors.New("unsupported codec")

// Decoder turns one encoded voice frame into PCM samples.
// Decoders may be stateful (Opus) and are not safe for concurrent use;
// keep one per speaking player.
type Decoder interface {
	Decode(frame []byte) ([]int16, error)
}

// ParseCodec normalizes a codec name. Empty defaults to pcm16.
func ParseCodec(name string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(name))); c {
	case "":
		return CodecPCM16, nil
	case CodecPCM16, CodecMulaw, CodecOpus, CodecRaw:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
	}
}

// NewDecoder creates a decoder for codec. CodecRaw has no decoder; callers
// measure raw frames with CalculateRawLevel instead.
func NewDecoder(codec Codec) (Decoder, error) {
	switch codec {
	case CodecPCM16:
		return PCM16Decoder{}, nil
	case CodecMulaw:
		return MulawDecoder{}, nil
	case CodecOpus:
		return NewOpusDecoder(OpusSampleRate, 1)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, codec)
	}
}

// PCM16Decoder passes little-endian PCM through
type PCM16Decoder struct{}

func (PCM16Decoder) Decode(frame []byte) ([]int16, error) {
	return BytesToPCM(frame)
}

// MulawDecoder expands G.711 μ-law bytes
type MulawDecoder struct{}

func (MulawDecoder) Decode(frame []byte) ([]int16, error) {
	return ConvertPCMUToPCM(frame), nil
}

// OpusDecoder wraps libopus through hraban/opus
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
	buf      []int16
}

// NewOpusDecoder creates an Opus decoder for the given rate and channel count
func NewOpusDecoder(sampleRate, channels int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &OpusDecoder{
		decoder:  dec,
		channels: channels,
		buf:      make([]int16, opusMaxFrameSamples*channels),
	}, nil
}

// Decode decodes one Opus packet. The returned slice is a fresh copy.
func (d *OpusDecoder) Decode(frame []byte) ([]int16, error) {
	if len(frame) == 0 {
		return nil, nil
	}
	n, err := d.decoder.Decode(frame, d.buf)
	if err != nil {
		return nil, fmt.Errorf("opus decode: %w", err)
	}
	out := make([]int16, n*d.channels)
	copy(out, d.buf[:n*d.channels])
	return out, nil
}
