// Package reaction decides how entities respond to a player's voice. It
// owns all per-entity transient state (cooldowns, eye-contact memory, flee
// and follow sessions) and must only be driven from the tick goroutine.
package reaction

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/detection"
	"github.com/lexiqai/voice-mechanics/internal/environment"
	"github.com/lexiqai/voice-mechanics/internal/observability"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// DefaultTickRate is the host simulation rate in ticks per second
const DefaultTickRate = 20

// DetectionContext is one loudness sample attributed to a player
type DetectionContext struct {
	Player     world.PlayerID
	Position   world.Vec3
	LoudnessDB float64
	At         time.Time
}

// VoiceDetected is published to subscribers for every resolved sample
type VoiceDetected struct {
	Player   world.PlayerID
	Position world.Vec3
	Decibels float64
	At       time.Time
}

// PassSummary counts what one detection pass did
type PassSummary struct {
	Evaluated int
	Detected  int
	Reacted   int
	Alerted   int
	Sensors   int
}

// Options configures an Engine
type Options struct {
	World        world.World
	Capabilities world.Capabilities // defaults to world.FlagCapabilities{}
	Settings     *SettingsStore
	Random       Random           // defaults to NewRandom()
	Clock        func() time.Time // defaults to time.Now
	TickRate     int              // defaults to DefaultTickRate
	Metrics      *observability.Metrics
	Logger       zerolog.Logger
}

// Engine is the reaction state machine for one world
type Engine struct {
	world    world.World
	caps     world.Capabilities
	settings *SettingsStore
	rand     Random
	clock    func() time.Time
	tickRate int
	metrics  *observability.Metrics
	logger   zerolog.Logger

	states *stateArena
	timers scheduler
	tick   uint64

	sensorCooldowns map[world.BlockPos]time.Time

	subscribers []*subscriber
}

type subscriber struct {
	fn func(VoiceDetected)
}

// NewEngine creates an engine over a world
func NewEngine(opts Options) *Engine {
	if opts.Capabilities == nil {
		opts.Capabilities = world.FlagCapabilities{}
	}
	if opts.Settings == nil {
		opts.Settings = NewSettingsStore(DefaultSettings())
	}
	if opts.Random == nil {
		opts.Random = NewRandom()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}

	return &Engine{
		world:           opts.World,
		caps:            opts.Capabilities,
		settings:        opts.Settings,
		rand:            opts.Random,
		clock:           opts.Clock,
		tickRate:        opts.TickRate,
		metrics:         opts.Metrics,
		logger:          opts.Logger.With().Str("component", "reaction").Logger(),
		states:          newStateArena(),
		sensorCooldowns: make(map[world.BlockPos]time.Time),
	}
}

// Subscribe registers fn for every VoiceDetected notification. fn runs on
// the tick goroutine and must not block. The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(VoiceDetected)) func() {
	sub := &subscriber{fn: fn}
	e.subscribers = append(e.subscribers, sub)
	return func() {
		for i, s := range e.subscribers {
			if s == sub {
				e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

// pass is the per-sample evaluation context
type pass struct {
	dc       DetectionContext
	player   world.Player
	settings *Settings
	env      environment.Adjustment
	now      time.Time
	seen     map[world.EntityID]struct{}
	summary  PassSummary
}

// Process resolves one sample against every candidate entity and sensor.
// Each entity is evaluated at most once per call.
func (e *Engine) Process(dc DetectionContext) PassSummary {
	start := time.Now()
	defer func() { e.metrics.ObservePass(time.Since(start)) }()

	player, ok := e.world.Player(dc.Player)
	if !ok {
		e.logger.Debug().Str("player", dc.Player.String()).Msg("Voice from unknown player ignored")
		return PassSummary{}
	}

	now := dc.At
	if now.IsZero() {
		now = e.clock()
	}
	dc.LoudnessDB = clampLoudness(dc.LoudnessDB)

	e.publish(VoiceDetected{Player: dc.Player, Position: dc.Position, Decibels: dc.LoudnessDB, At: now})

	if !player.Detectable() {
		return PassSummary{}
	}

	s := e.settings.Load()
	p := &pass{
		dc:       dc,
		player:   player,
		settings: s,
		env:      s.Environment.Evaluate(player.Conditions),
		now:      now,
		seen:     make(map[world.EntityID]struct{}),
	}

	halfExtent := math.Max(s.maxRange*p.env.RangeMultiplier*detection.MaxLoudnessMultiplier, s.maxEyeContactRange)
	for _, ent := range e.world.EntitiesNear(dc.Position, halfExtent) {
		if _, done := p.seen[ent.ID]; done {
			continue
		}
		p.seen[ent.ID] = struct{}{}
		e.guard(ent, func() { e.evaluate(p, ent) })
	}

	e.activateSensors(p)

	if p.summary.Reacted > 0 || p.summary.Sensors > 0 {
		e.logger.Debug().
			Str("player", dc.Player.String()).
			Float64("db", dc.LoudnessDB).
			Str("conditions", environment.Describe(player.Conditions)).
			Str("environment", p.env.String()).
			Int("evaluated", p.summary.Evaluated).
			Int("reacted", p.summary.Reacted).
			Int("alerted", p.summary.Alerted).
			Int("sensors", p.summary.Sensors).
			Msg("Detection pass resolved")
	}
	return p.summary
}

func (e *Engine) publish(ev VoiceDetected) {
	for _, sub := range e.subscribers {
		sub.fn(ev)
	}
}

// guard isolates one entity's evaluation so a failing host call cannot
// abort the rest of the pass
func (e *Engine) guard(ent world.Entity, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Interface("panic", r).
				Int64("entity", int64(ent.ID)).
				Str("species", ent.Species).
				Msg("Entity evaluation failed")
			e.metrics.RecordError("panic", "reaction")
		}
	}()
	fn()
}

func (e *Engine) evaluate(p *pass, ent world.Entity) {
	category := CategoryOf(ent.Species)
	if category == CategoryNone {
		return
	}
	profile, ok := p.settings.Profile(category)
	if !ok {
		e.logger.Debug().Str("category", string(category)).Msg("No profile for category")
		return
	}
	p.summary.Evaluated++

	switch category {
	case CategoryHostile:
		e.reactHostile(p, ent, profile)
	case CategoryNeutral, CategoryPeaceful:
		e.reactPassive(p, ent, category, profile)
	case CategorySpecial:
		e.reactSpecial(p, ent, profile)
	}
}

// detect runs the threshold, range and spatial roll shared by every
// category. It returns the assessment and whether the entity heard the player.
func (e *Engine) detect(p *pass, category Category, profile *Profile, distance float64) (detection.Assessment, bool) {
	threshold := profile.ThresholdDB + p.env.ThresholdDB
	if p.dc.LoudnessDB < threshold {
		e.metrics.RecordDetection(string(category), "quiet")
		return detection.Assessment{}, false
	}

	a := detection.Assess(distance, profile.Params, p.env.RangeMultiplier, p.dc.LoudnessDB, threshold)
	if !a.Audible() {
		e.metrics.RecordDetection(string(category), "out_of_range")
		return a, false
	}
	if e.rand.Float64() >= a.Probability {
		e.metrics.RecordDetection(string(category), "missed")
		return a, false
	}

	e.metrics.RecordDetection(string(category), "detected")
	p.summary.Detected++
	return a, true
}

// Tick advances the engine by one host tick: due timers fire and, once
// per second, the maintenance sweep runs
func (e *Engine) Tick() {
	e.tick++
	for _, t := range e.timers.due(e.tick) {
		e.fire(t)
	}
	if e.tick%uint64(e.tickRate) == 0 {
		e.maintain()
	}
}

// RemoveEntity forgets everything about an entity that left the world
func (e *Engine) RemoveEntity(id world.EntityID) {
	e.states.evict(id)
}

// Stats reports the size of the engine's state
type Stats struct {
	Tracked   int
	Fleeing   int
	Following int
	Timers    int
}

// Stats returns the current state sizes
func (e *Engine) Stats() Stats {
	fleeing, following := e.states.counts()
	return Stats{
		Tracked:   e.states.len(),
		Fleeing:   fleeing,
		Following: following,
		Timers:    e.timers.len(),
	}
}

// Session returns the active session of an entity
func (e *Engine) Session(id world.EntityID) (SessionKind, world.PlayerID) {
	rec := e.states.get(id)
	if rec == nil {
		return SessionNone, world.PlayerID{}
	}
	return rec.session, rec.sessionPlayer
}

func (e *Engine) ticksFor(d time.Duration) uint64 {
	n := uint64(math.Ceil(d.Seconds() * float64(e.tickRate)))
	if n == 0 {
		n = 1
	}
	return n
}

func clampLoudness(db float64) float64 {
	if math.IsNaN(db) || db < -127 {
		return -127
	}
	if db > 0 {
		return 0
	}
	return db
}
