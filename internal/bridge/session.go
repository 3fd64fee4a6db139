package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/audio"
	"github.com/lexiqai/voice-mechanics/internal/config"
	"github.com/lexiqai/voice-mechanics/internal/observability"
	"github.com/lexiqai/voice-mechanics/internal/pipeline"
	"github.com/lexiqai/voice-mechanics/internal/reaction"
	"github.com/lexiqai/voice-mechanics/internal/resilience"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// voiceJob is one unit of work for the audio goroutine
type voiceJob struct {
	player   world.PlayerID
	codec    audio.Codec
	payload  []byte
	position *world.Vec3
	forget   bool
}

// Session is one connected game host. It runs three goroutines: the reader
// (this connection), the audio goroutine (decode and measure) and the tick
// goroutine (world view and reaction engine). World state is only touched
// on the tick goroutine.
type Session struct {
	id   string
	conn *websocket.Conn
	cfg  *config.Config

	world      *world.Memory
	engine     *reaction.Engine
	dispatcher *pipeline.Dispatcher
	ingestor   *pipeline.Ingestor
	writer     *writer
	audio      chan voiceJob

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewSession wires a session over an established connection
func NewSession(conn *websocket.Conn, cfg *config.Config, settings *reaction.SettingsStore) *Session {
	id := observability.NewCorrelationID()
	logger := observability.WithCorrelationID(id).
		With().
		Str("session_id", id).
		Logger()
	metrics := observability.NewSessionMetrics(id)

	audioQueue := cfg.AudioQueueSize
	if audioQueue <= 0 {
		audioQueue = 64
	}
	outQueue := cfg.DispatchQueueSize
	if outQueue <= 0 {
		outQueue = 256
	}

	s := &Session{
		id:      id,
		conn:    conn,
		cfg:     cfg,
		world:   world.NewMemory(),
		audio:   make(chan voiceJob, audioQueue),
		metrics: metrics,
		logger:  logger,
	}

	breaker := resilience.NewCircuitBreaker("host_directives",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second)
	s.writer = newWriter(conn, outQueue, breaker, metrics, logger)

	s.engine = reaction.NewEngine(reaction.Options{
		World:    s.world,
		Settings: settings,
		TickRate: cfg.TickRate,
		Metrics:  metrics,
		Logger:   logger,
	})
	s.world.OnAction(func(a world.Action) {
		s.writer.send(directiveMessage(a))
	})
	s.engine.Subscribe(func(ev reaction.VoiceDetected) {
		s.writer.send(voiceDetectedMessage(ev.Player, ev.Position, ev.Decibels))
	})

	s.dispatcher = pipeline.NewDispatcher(pipeline.DispatcherConfig{
		TickRate:  cfg.TickRate,
		QueueSize: cfg.DispatchQueueSize,
	}, s.engine.Tick, metrics, logger)

	s.ingestor = pipeline.NewIngestor(pipeline.IngestorConfig{
		FrameSamples:   cfg.FrameSamples,
		BufferedFrames: cfg.AudioBufferFrames,
		VAD: audio.VADConfig{
			ThresholdDB:   cfg.VADThresholdDB,
			SilenceFrames: cfg.VADSilenceFrames,
		},
		DetectEvery: cfg.DetectEveryFrames,
	}, s.dispatcher.Dispatch, s.onSample, metrics, logger)

	return s
}

// ID returns the session correlation id
func (s *Session) ID() string {
	return s.id
}

// Run serves the session until the host stops, the connection fails or ctx
// is done
func (s *Session) Run(ctx context.Context) error {
	s.metrics.RecordSessionStart()
	defer s.metrics.RecordSessionEnd()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.dispatcher.Start(ctx)
	go s.writer.run()

	audioDone := make(chan struct{})
	go func() {
		defer close(audioDone)
		s.processAudio()
	}()

	// unblock the reader when ctx ends
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	err := s.readMessages()

	close(s.audio)
	<-audioDone
	s.dispatcher.Stop()
	s.writer.close()
	s.conn.Close()

	stats := s.engine.Stats()
	s.logger.Info().
		Int("tracked", stats.Tracked).
		Int("voice_channels", s.ingestor.Players()).
		Msg("Host session ended")

	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readMessages handles host messages until stop or a read error
func (s *Session) readMessages() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var msg HostMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.metrics.RecordError("parse", "bridge")
			s.logger.Warn().Err(err).Msg("Failed to parse host message")
			continue
		}

		if stop := s.handleMessage(&msg); stop {
			return nil
		}
	}
}

func (s *Session) handleMessage(msg *HostMessage) bool {
	switch msg.Event {
	case EventConnected:
		s.logger.Info().Str("server", msg.Server).Msg("Host connected")

	case EventSnapshot:
		if msg.Snapshot == nil {
			return false
		}
		snap := decodeSnapshot(msg.Snapshot)
		if snap.skipped > 0 {
			s.metrics.RecordError("parse", "bridge")
			s.logger.Warn().Int("skipped", snap.skipped).Int64("tick", msg.Snapshot.Tick).Msg("Malformed snapshot records skipped")
		}
		s.onTickThread("snapshot", func() { s.applySnapshot(snap) })

	case EventVoice:
		if msg.Voice == nil {
			return false
		}
		s.handleVoice(msg.Voice)

	case EventEntityRemoved:
		id := world.EntityID(msg.Entity)
		s.onTickThread("entity_removed", func() {
			s.world.RemoveEntity(id)
			s.engine.RemoveEntity(id)
		})

	case EventPlayerLeft:
		player, err := parsePlayerID(msg.Player)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Invalid player_left message")
			return false
		}
		s.queueAudio(voiceJob{player: player, forget: true})
		s.onTickThread("player_left", func() { s.world.RemovePlayer(player) })

	case EventStop:
		s.logger.Info().Msg("Host requested stop")
		return true

	default:
		s.logger.Debug().Str("event", msg.Event).Msg("Unknown host event")
	}
	return false
}

func (s *Session) handleVoice(v *VoicePayload) {
	player, data, pos, err := decodeVoice(v)
	if err != nil {
		s.metrics.RecordDroppedFrame("decode")
		s.logger.Debug().Err(err).Msg("Invalid voice message")
		return
	}
	codec, err := audio.ParseCodec(v.Codec)
	if err != nil {
		s.metrics.RecordDroppedFrame("codec")
		s.logger.Debug().Err(err).Msg("Invalid voice codec")
		return
	}
	s.queueAudio(voiceJob{player: player, codec: codec, payload: data, position: pos})
}

func (s *Session) queueAudio(job voiceJob) {
	select {
	case s.audio <- job:
	default:
		s.metrics.RecordDroppedFrame("audio_queue_full")
	}
}

func (s *Session) onTickThread(what string, fn func()) {
	if !s.dispatcher.Dispatch(fn) {
		s.logger.Warn().Str("task", what).Msg("Tick queue full, host update dropped")
	}
}

// processAudio runs on the audio goroutine
func (s *Session) processAudio() {
	for job := range s.audio {
		if job.forget {
			s.ingestor.Forget(job.player)
			continue
		}
		if _, err := s.ingestor.Ingest(job.player, job.codec, job.payload, job.position); err != nil {
			s.logger.Debug().Err(err).Msg("Voice frame dropped")
		}
	}
}

// applySnapshot runs on the tick goroutine
func (s *Session) applySnapshot(snap decodedSnapshot) {
	removed := s.world.Replace(snap.entities, snap.players, snap.sensors)
	for _, id := range removed {
		s.engine.RemoveEntity(id)
	}
}

// onSample runs on the tick goroutine
func (s *Session) onSample(sample pipeline.Sample) {
	var pos world.Vec3
	if sample.Position != nil {
		pos = *sample.Position
	} else {
		p, ok := s.world.Player(sample.Player)
		if !ok {
			return
		}
		pos = p.Position
	}

	s.engine.Process(reaction.DetectionContext{
		Player:     sample.Player,
		Position:   pos,
		LoudnessDB: sample.LoudnessDB,
		At:         sample.At,
	})
}
