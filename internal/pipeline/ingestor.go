package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/audio"
	"github.com/lexiqai/voice-mechanics/internal/observability"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// Sample is one voiced analysis frame ready for a detection pass
type Sample struct {
	Player     world.PlayerID
	Position   *world.Vec3 // nil: use the player's position in the world view
	LoudnessDB float64
	At         time.Time
}

// Sink consumes samples on the tick goroutine
type Sink func(Sample)

// Dispatch queues work for the tick goroutine without blocking
type Dispatch func(fn func()) bool

// IngestorConfig configures voice analysis
type IngestorConfig struct {
	FrameSamples int
	// BufferedFrames caps the frames analyzed per payload; older audio is skipped
	BufferedFrames int
	VAD            audio.VADConfig
	// DetectEvery dispatches a pass for every Nth voiced frame
	DetectEvery int
}

// voiceChannel is the analysis state of one speaking player
type voiceChannel struct {
	codec     audio.Codec
	decoder   audio.Decoder
	assembler *audio.FrameAssembler
	vad       *audio.VADDetector
	voiced    int
}

// Ingestor runs on the audio side: it decodes frames, measures loudness,
// gates silence and dispatches voiced samples to the tick goroutine. It
// never touches world state and is not safe for concurrent use.
type Ingestor struct {
	cfg      IngestorConfig
	dispatch Dispatch
	sink     Sink
	clock    func() time.Time

	channels map[world.PlayerID]*voiceChannel

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewIngestor creates an ingestor delivering samples to sink through dispatch
func NewIngestor(cfg IngestorConfig, dispatch Dispatch, sink Sink, metrics *observability.Metrics, logger zerolog.Logger) *Ingestor {
	if cfg.DetectEvery < 1 {
		cfg.DetectEvery = 1
	}
	if cfg.VAD.SilenceFrames <= 0 {
		cfg.VAD = *audio.DefaultVADConfig()
	}
	return &Ingestor{
		cfg:      cfg,
		dispatch: dispatch,
		sink:     sink,
		clock:    time.Now,
		channels: make(map[world.PlayerID]*voiceChannel),
		metrics:  metrics,
		logger:   logger.With().Str("component", "ingestor").Logger(),
	}
}

func (in *Ingestor) channel(player world.PlayerID, codec audio.Codec) (*voiceChannel, error) {
	ch, ok := in.channels[player]
	if ok && ch.codec == codec {
		return ch, nil
	}

	var dec audio.Decoder
	if codec != audio.CodecRaw {
		var err error
		if dec, err = audio.NewDecoder(codec); err != nil {
			return nil, err
		}
	}

	vadCfg := in.cfg.VAD
	ch = &voiceChannel{
		codec:     codec,
		decoder:   dec,
		assembler: audio.NewFrameAssembler(in.cfg.FrameSamples, in.cfg.BufferedFrames),
		vad:       audio.NewVADDetector(&vadCfg),
	}
	in.channels[player] = ch
	return ch, nil
}

// Ingest analyzes one voice payload from a player. It returns the number of
// samples dispatched.
func (in *Ingestor) Ingest(player world.PlayerID, codec audio.Codec, payload []byte, position *world.Vec3) (int, error) {
	ch, err := in.channel(player, codec)
	if err != nil {
		in.metrics.RecordError("codec", "ingestor")
		return 0, fmt.Errorf("player %s: %w", player, err)
	}
	in.metrics.RecordAudioBytes("inbound", int64(len(payload)))

	if codec == audio.CodecRaw {
		return in.analyze(ch, player, codec, audio.CalculateRawLevel(payload), position), nil
	}

	samples, err := ch.decoder.Decode(payload)
	if err != nil {
		in.metrics.RecordDroppedFrame("decode")
		in.metrics.RecordError("decode", "ingestor")
		return 0, fmt.Errorf("decode %s frame: %w", codec, err)
	}

	frames, dropped := ch.assembler.Push(audio.PCMToBytes(samples))
	if dropped > 0 {
		in.metrics.RecordDroppedFrame("backlog")
		in.logger.Debug().Str("player", player.String()).Int("bytes", dropped).Msg("Oversized voice payload trimmed")
	}

	sent := 0
	for _, frame := range frames {
		sent += in.analyze(ch, player, codec, audio.CalculateAudioLevel(frame), position)
	}
	return sent, nil
}

func (in *Ingestor) analyze(ch *voiceChannel, player world.PlayerID, codec audio.Codec, db float64, position *world.Vec3) int {
	in.metrics.RecordFrame(string(codec), db)

	speaking, started, ended := ch.vad.ProcessLevel(db)
	if started {
		in.logger.Debug().Str("player", player.String()).Str("level", audio.DescribeLevel(db)).Msg("Speech started")
	}
	if ended {
		ch.voiced = 0
		in.logger.Debug().Str("player", player.String()).Msg("Speech ended")
	}
	if !speaking {
		return 0
	}

	ch.voiced++
	if (ch.voiced-1)%in.cfg.DetectEvery != 0 {
		return 0
	}

	sample := Sample{Player: player, LoudnessDB: db, At: in.clock()}
	if position != nil {
		pos := *position
		sample.Position = &pos
	}
	sink := in.sink
	if !in.dispatch(func() { sink(sample) }) {
		return 0
	}
	return 1
}

// Forget drops the analysis state of a player
func (in *Ingestor) Forget(player world.PlayerID) {
	delete(in.channels, player)
}

// Players returns the number of players with analysis state
func (in *Ingestor) Players() int {
	return len(in.channels)
}
