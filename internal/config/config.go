package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice mechanics service
type Config struct {
	// Server configuration
	Port     string `envconfig:"PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"9090"` // grpc.health.v1 only

	// Public base URL for this service (e.g. https://xxx.ngrok-free.dev when behind ngrok).
	// Used for logging the WebSocket endpoint; hosts connect to wss://<this-host>/streams/host.
	// Optional; if unset, logs ws://localhost:PORT/streams/host.
	PublicURL string `envconfig:"VOICE_MECHANICS_URL" default:""`

	// Outbound mode: when set, the service dials the game host instead of waiting for it.
	HostURL   string `envconfig:"HOST_URL" default:""`
	HostToken string `envconfig:"HOST_TOKEN" default:""` // sent as a Bearer token when dialing

	// Tick loop configuration
	TickRate          int `envconfig:"TICK_RATE" default:"20"`            // ticks per second
	DispatchQueueSize int `envconfig:"DISPATCH_QUEUE_SIZE" default:"256"` // pending tick-thread tasks

	// Audio processing configuration
	AudioQueueSize    int     `envconfig:"AUDIO_QUEUE_SIZE" default:"64"`    // voice frames waiting for analysis
	FrameSamples      int     `envconfig:"FRAME_SAMPLES" default:"960"`      // PCM analysis window (20ms at 48kHz)
	AudioBufferFrames int     `envconfig:"AUDIO_BUFFER_FRAMES" default:"8"`  // most frames analyzed per voice payload
	VADThresholdDB    float64 `envconfig:"VAD_THRESHOLD_DB" default:"-70.0"` // below this a frame is not voice
	VADSilenceFrames  int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`  // Frames of silence to mark speech end
	DetectEveryFrames int     `envconfig:"DETECT_EVERY_FRAMES" default:"1"`  // run a pass every Nth voiced frame

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`         // Maximum reconnection attempts
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"`           // Reconnection backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics

	// Optional YAML file with mechanics overrides, applied before env overrides
	MechanicsFile string `envconfig:"MECHANICS_FILE" default:""`

	Mechanics Mechanics `ignored:"true"`
	// Warnings lists every value that was clamped while loading Mechanics
	Warnings []string `ignored:"true"`
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate)
	}

	mechanics, warnings, err := LoadMechanics(cfg.MechanicsFile)
	if err != nil {
		return nil, err
	}
	cfg.Mechanics = *mechanics
	cfg.Warnings = warnings

	return &cfg, nil
}
