package reaction

import (
	"sync/atomic"
	"time"

	"github.com/lexiqai/voice-mechanics/internal/config"
	"github.com/lexiqai/voice-mechanics/internal/detection"
	"github.com/lexiqai/voice-mechanics/internal/environment"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// Profile is a resolved category configuration: nullable ranges have been
// replaced by the global defaults and the blacklist is a set.
type Profile struct {
	Enabled     bool
	ThresholdDB float64
	Params      detection.Params

	ReactionChance float64
	Cooldown       time.Duration
	LookDuration   time.Duration

	FleeEnabled     bool
	FleeThresholdDB float64
	FleeDuration    time.Duration
	FleeDistance    float64

	FollowEnabled     bool
	FollowDuration    time.Duration
	MaxFollowDistance float64

	RequireEyeContact bool
	EyeContactRange   float64
	EyeContactMemory  time.Duration

	MinAnger int
	MaxAnger int

	blacklist map[string]struct{}
}

// Blacklisted reports whether a species is excluded from this category
func (p *Profile) Blacklisted(species string) bool {
	_, ok := p.blacklist[world.NormalizeSpecies(species)]
	return ok
}

func newProfile(c config.CategoryConfig, m *config.Mechanics) *Profile {
	p := &Profile{
		Enabled:     c.Enabled,
		ThresholdDB: c.ThresholdDB,
		Params: detection.Params{
			MinRange: c.ResolveMinRange(m),
			MaxRange: c.ResolveMaxRange(m),
			Falloff:  c.ResolveFalloff(m),
		},
		ReactionChance:    c.ReactionChance,
		Cooldown:          c.Cooldown,
		LookDuration:      c.LookDuration,
		FleeEnabled:       c.FleeEnabled,
		FleeThresholdDB:   c.FleeThresholdDB,
		FleeDuration:      c.FleeDuration,
		FleeDistance:      c.FleeDistance,
		FollowEnabled:     c.FollowEnabled,
		FollowDuration:    c.FollowDuration,
		MaxFollowDistance: c.MaxFollowDistance,
		RequireEyeContact: c.RequireEyeContact,
		EyeContactRange:   c.EyeContactRange,
		EyeContactMemory:  c.EyeContactMemory,
		MinAnger:          c.MinAnger,
		MaxAnger:          c.MaxAnger,
		blacklist:         make(map[string]struct{}, len(c.Blacklist)),
	}
	for _, s := range c.Blacklist {
		p.blacklist[world.NormalizeSpecies(s)] = struct{}{}
	}
	return p
}

// Settings is an immutable snapshot of the engine's tuning. A reload
// builds a new Settings and swaps it into the store.
type Settings struct {
	profiles map[Category]*Profile

	Environment environment.Modifier
	Social      SocialTable

	GroupAlertEnabled bool
	MaxGroupAlerts    int

	StateTTL time.Duration

	// largest configured max range over every category
	maxRange float64
	// largest eye-contact range over the passive categories
	maxEyeContactRange float64
}

// NewSettings resolves mechanics into engine settings
func NewSettings(m *config.Mechanics) *Settings {
	s := &Settings{
		profiles: map[Category]*Profile{
			CategoryHostile:  newProfile(m.Hostile, m),
			CategoryNeutral:  newProfile(m.Neutral, m),
			CategoryPeaceful: newProfile(m.Peaceful, m),
			CategorySpecial:  newProfile(m.Warden, m),
			CategorySensor:   newProfile(m.Sensor, m),
		},
		Environment: environment.Modifier{
			BiomeEnabled: m.Environment.BiomeEnabled,
			TimeEnabled:  m.Environment.TimeEnabled,
		},
		Social:            NewSocialTable(m.GroupAlert.Radii, m.GroupAlert.DefaultRadius),
		GroupAlertEnabled: m.GroupAlert.Enabled,
		MaxGroupAlerts:    m.GroupAlert.MaxAlerts,
		StateTTL:          m.StateTTL,
	}
	for _, p := range s.profiles {
		if !p.Enabled {
			continue
		}
		if p.Params.MaxRange > s.maxRange {
			s.maxRange = p.Params.MaxRange
		}
		if p.EyeContactRange > s.maxEyeContactRange {
			s.maxEyeContactRange = p.EyeContactRange
		}
	}
	return s
}

// DefaultSettings resolves the built-in mechanics
func DefaultSettings() *Settings {
	m := config.DefaultMechanics()
	m.Normalize()
	return NewSettings(m)
}

// Profile returns the profile of a category
func (s *Settings) Profile(c Category) (*Profile, bool) {
	p, ok := s.profiles[c]
	return p, ok
}

// SettingsStore publishes the current Settings to every engine. Loads are
// lock-free; Store replaces the whole snapshot.
type SettingsStore struct {
	current atomic.Pointer[Settings]
}

// NewSettingsStore creates a store holding s
func NewSettingsStore(s *Settings) *SettingsStore {
	store := &SettingsStore{}
	store.Store(s)
	return store
}

// Load returns the current settings
func (st *SettingsStore) Load() *Settings {
	return st.current.Load()
}

// Store replaces the current settings
func (st *SettingsStore) Store(s *Settings) {
	st.current.Store(s)
}
