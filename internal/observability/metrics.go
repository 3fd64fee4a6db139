package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Host session metrics
	activeHostSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_mechanics_active_host_sessions",
		Help: "Number of connected game hosts",
	})

	totalHostSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_mechanics_host_sessions_total",
		Help: "Total number of host sessions served",
	})

	hostSessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_mechanics_host_session_duration_seconds",
		Help:    "Duration of host sessions in seconds",
		Buckets: []float64{10, 60, 300, 900, 3600, 14400},
	})

	// Audio metrics
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_voice_frames_total",
		Help: "Total voice frames analyzed",
	}, []string{"codec"})

	droppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_dropped_frames_total",
		Help: "Voice frames dropped before analysis",
	}, []string{"reason"}) // reason: "queue_full", "decode", "overflow", "dispatch"

	loudness = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_mechanics_loudness_db",
		Help:    "Measured loudness of voiced frames in dB",
		Buckets: []float64{-100, -80, -60, -50, -40, -30, -20, -10, 0},
	})

	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"})

	// Reaction metrics
	detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_detections_total",
		Help: "Detection rolls by entity category and outcome",
	}, []string{"category", "outcome"}) // outcome: "detected", "missed", "quiet", "out_of_range"

	reactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_reactions_total",
		Help: "Reactions applied to entities",
	}, []string{"kind"}) // kind: "target", "look", "flee", "follow", "anger"

	groupAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_mechanics_group_alerts_total",
		Help: "Entities targeted through social alerts",
	})

	sensorActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_mechanics_sensor_activations_total",
		Help: "Sensor step events emitted",
	})

	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_mechanics_pass_duration_seconds",
		Help:    "Time spent resolving one detection pass on the tick thread",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	trackedEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_mechanics_tracked_entities",
		Help: "Entities holding reaction state",
	})

	activeSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_mechanics_active_sessions",
		Help: "Entities currently fleeing or following",
	}, []string{"kind"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_mechanics_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_mechanics_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// Metrics tracks metrics for a single host session. All methods are safe
// to call on a nil *Metrics, which records nothing.
type Metrics struct {
	sessionID string
	startTime time.Time

	// last engine state reported by this session, so the shared gauges
	// hold the sum over all sessions
	mu        sync.Mutex
	tracked   float64
	fleeing   float64
	following float64
}

// NewSessionMetrics creates a new metrics tracker for a host session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a host session
func (m *Metrics) RecordSessionStart() {
	if m == nil {
		return
	}
	activeHostSessions.Inc()
	totalHostSessions.Inc()
}

// RecordSessionEnd records the end of a host session
func (m *Metrics) RecordSessionEnd() {
	if m == nil {
		return
	}
	activeHostSessions.Dec()
	hostSessionDuration.Observe(time.Since(m.startTime).Seconds())
	m.SetEngineState(0, 0, 0)
}

// RecordFrame records one analyzed voice frame and its level
func (m *Metrics) RecordFrame(codec string, db float64) {
	if m == nil {
		return
	}
	framesTotal.WithLabelValues(codec).Inc()
	loudness.Observe(db)
}

// RecordDroppedFrame records a voice frame that never reached analysis
func (m *Metrics) RecordDroppedFrame(reason string) {
	if m == nil {
		return
	}
	droppedFrames.WithLabelValues(reason).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	if m == nil {
		return
	}
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// RecordDetection records the outcome of one spatial detection check
func (m *Metrics) RecordDetection(category, outcome string) {
	if m == nil {
		return
	}
	detections.WithLabelValues(category, outcome).Inc()
}

// RecordReaction records a reaction directive issued to an entity
func (m *Metrics) RecordReaction(kind string) {
	if m == nil {
		return
	}
	reactions.WithLabelValues(kind).Inc()
}

// RecordGroupAlerts records entities recruited by a social alert
func (m *Metrics) RecordGroupAlerts(n int) {
	if m == nil || n <= 0 {
		return
	}
	groupAlerts.Add(float64(n))
}

// RecordSensorActivation records one sensor step event
func (m *Metrics) RecordSensorActivation() {
	if m == nil {
		return
	}
	sensorActivations.Inc()
}

// ObservePass records how long a detection pass took
func (m *Metrics) ObservePass(d time.Duration) {
	if m == nil {
		return
	}
	passDuration.Observe(d.Seconds())
}

// SetEngineState publishes the size of this session's state arena. The
// gauges are shared, so only the change since the last report is applied.
func (m *Metrics) SetEngineState(tracked, fleeing, following int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	trackedEntities.Add(float64(tracked) - m.tracked)
	activeSessions.WithLabelValues("flee").Add(float64(fleeing) - m.fleeing)
	activeSessions.WithLabelValues("follow").Add(float64(following) - m.following)
	m.tracked, m.fleeing, m.following = float64(tracked), float64(fleeing), float64(following)
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	if m == nil {
		return
	}
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
