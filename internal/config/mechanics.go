package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Documented bounds for mechanics values
const (
	MinRangeBound    = 1.0
	MaxRangeBound    = 128.0
	MinFalloff       = 0.5
	MaxFalloff       = 2.0
	MinThresholdDB   = -127.0
	MaxThresholdDB   = 0.0
	MaxGroupAlerts   = 32
	MaxAlertRadius   = 64.0
	MaxAngerPerEvent = 150
)

// Mechanics is the tunable behavior of the reaction engine. It is loaded
// once at startup and again on every reload; the engine never mutates it.
type Mechanics struct {
	// Fallbacks for categories that leave min/max range or falloff unset
	DefaultMinRange float64 `envconfig:"DEFAULT_MIN_RANGE" yaml:"default_min_range"`
	DefaultMaxRange float64 `envconfig:"DEFAULT_MAX_RANGE" yaml:"default_max_range"`
	DefaultFalloff  float64 `envconfig:"DEFAULT_FALLOFF" yaml:"default_falloff"`

	Hostile  CategoryConfig `envconfig:"HOSTILE" yaml:"hostile"`
	Neutral  CategoryConfig `envconfig:"NEUTRAL" yaml:"neutral"`
	Peaceful CategoryConfig `envconfig:"PEACEFUL" yaml:"peaceful"`
	Warden   CategoryConfig `envconfig:"WARDEN" yaml:"warden"`
	Sensor   CategoryConfig `envconfig:"SENSOR" yaml:"sensor"`

	Environment EnvironmentConfig `envconfig:"ENV" yaml:"environment"`
	GroupAlert  GroupAlertConfig  `envconfig:"GROUP_ALERT" yaml:"group_alert"`

	// Per-entity state with no activity for this long is dropped by maintenance
	StateTTL time.Duration `envconfig:"STATE_TTL" yaml:"state_ttl"`
}

// CategoryConfig is the configuration bundle for one behavioral category.
// Not every field applies to every category: hostile mobs ignore look,
// flee and follow; the warden only uses range and anger; sensors only use
// range and cooldown.
type CategoryConfig struct {
	Enabled     bool    `split_words:"true" yaml:"enabled"`
	ThresholdDB float64 `split_words:"true" yaml:"threshold_db"`

	// nil falls back to the Mechanics defaults
	MinRange *float64 `split_words:"true" yaml:"min_range"`
	MaxRange *float64 `split_words:"true" yaml:"max_range"`
	Falloff  *float64 `split_words:"true" yaml:"falloff"`

	ReactionChance float64       `split_words:"true" yaml:"reaction_chance"`
	Cooldown       time.Duration `split_words:"true" yaml:"cooldown"`
	LookDuration   time.Duration `split_words:"true" yaml:"look_duration"`

	FleeEnabled     bool          `split_words:"true" yaml:"flee_enabled"`
	FleeThresholdDB float64       `split_words:"true" yaml:"flee_threshold_db"`
	FleeDuration    time.Duration `split_words:"true" yaml:"flee_duration"`
	FleeDistance    float64       `split_words:"true" yaml:"flee_distance"`

	FollowEnabled     bool          `split_words:"true" yaml:"follow_enabled"`
	FollowDuration    time.Duration `split_words:"true" yaml:"follow_duration"`
	MaxFollowDistance float64       `split_words:"true" yaml:"max_follow_distance"`

	RequireEyeContact bool          `split_words:"true" yaml:"require_eye_contact"`
	EyeContactRange   float64       `split_words:"true" yaml:"eye_contact_range"`
	EyeContactMemory  time.Duration `split_words:"true" yaml:"eye_contact_memory"`

	MinAnger int `split_words:"true" yaml:"min_anger"`
	MaxAnger int `split_words:"true" yaml:"max_anger"`

	Blacklist []string `split_words:"true" yaml:"blacklist"`
}

// EnvironmentConfig toggles the two environmental modifier dimensions
type EnvironmentConfig struct {
	BiomeEnabled bool `split_words:"true" yaml:"biome_enabled"`
	TimeEnabled  bool `split_words:"true" yaml:"time_enabled"`
}

// GroupAlertConfig controls social alert propagation
type GroupAlertConfig struct {
	Enabled       bool               `split_words:"true" yaml:"enabled"`
	MaxAlerts     int                `split_words:"true" yaml:"max_alerts"`
	DefaultRadius float64            `split_words:"true" yaml:"default_radius"`
	Radii         map[string]float64 `split_words:"true" yaml:"radii"` // species -> radius, overrides the built-in table
}

func floatPtr(v float64) *float64 { return &v }

// DefaultMechanics returns the built-in mechanics profile
func DefaultMechanics() *Mechanics {
	return &Mechanics{
		DefaultMinRange: 2,
		DefaultMaxRange: 16,
		DefaultFalloff:  1.0,

		Hostile: CategoryConfig{
			Enabled:     true,
			ThresholdDB: -40,
			MaxRange:    floatPtr(24),
		},
		Neutral: CategoryConfig{
			Enabled:           true,
			ThresholdDB:       -35,
			ReactionChance:    0.6,
			Cooldown:          5 * time.Second,
			LookDuration:      3 * time.Second,
			FleeEnabled:       true,
			FleeThresholdDB:   -10,
			FleeDuration:      5 * time.Second,
			FleeDistance:      12,
			FollowEnabled:     true,
			FollowDuration:    10 * time.Second,
			MaxFollowDistance: 24,
			RequireEyeContact: true,
			EyeContactRange:   16,
			EyeContactMemory:  10 * time.Second,
		},
		Peaceful: CategoryConfig{
			Enabled:           true,
			ThresholdDB:       -40,
			ReactionChance:    0.7,
			Cooldown:          5 * time.Second,
			LookDuration:      3 * time.Second,
			FleeEnabled:       true,
			FleeThresholdDB:   -15,
			FleeDuration:      5 * time.Second,
			FleeDistance:      16,
			FollowEnabled:     true,
			FollowDuration:    15 * time.Second,
			MaxFollowDistance: 24,
			RequireEyeContact: true,
			EyeContactRange:   16,
			EyeContactMemory:  10 * time.Second,
		},
		Warden: CategoryConfig{
			Enabled:     true,
			ThresholdDB: -50,
			MinRange:    floatPtr(4),
			MaxRange:    floatPtr(32),
			Falloff:     floatPtr(0.5),
			MinAnger:    15,
			MaxAnger:    60,
		},
		Sensor: CategoryConfig{
			Enabled:     true,
			ThresholdDB: -45,
			MinRange:    floatPtr(1),
			MaxRange:    floatPtr(8),
			Cooldown:    time.Second,
		},

		Environment: EnvironmentConfig{
			BiomeEnabled: true,
			TimeEnabled:  true,
		},
		GroupAlert: GroupAlertConfig{
			Enabled:       true,
			MaxAlerts:     5,
			DefaultRadius: 12,
		},

		StateTTL: 30 * time.Second,
	}
}

// LoadMechanics builds Mechanics from the defaults, an optional YAML file
// and environment overrides, in that order, then normalizes it. Nested
// values are only read under their section prefix (HOSTILE_COOLDOWN,
// GROUP_ALERT_ENABLED); a bare COOLDOWN or ENABLED is ignored.
func LoadMechanics(path string) (*Mechanics, []string, error) {
	m := DefaultMechanics()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read mechanics file: %w", err)
		}
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, nil, fmt.Errorf("failed to parse mechanics file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", m); err != nil {
		return nil, nil, fmt.Errorf("failed to load mechanics: %w", err)
	}

	warnings := m.Normalize()
	return m, warnings, nil
}

// Normalize clamps every value to its documented bounds. It returns one
// warning per adjusted value and never fails.
func (m *Mechanics) Normalize() []string {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	m.DefaultMinRange = clampFloat("default_min_range", m.DefaultMinRange, MinRangeBound, MaxRangeBound, warn)
	m.DefaultMaxRange = clampFloat("default_max_range", m.DefaultMaxRange, MinRangeBound, MaxRangeBound, warn)
	if m.DefaultMinRange > m.DefaultMaxRange {
		warn("default_min_range %.1f exceeds default_max_range %.1f, using %.1f", m.DefaultMinRange, m.DefaultMaxRange, m.DefaultMaxRange)
		m.DefaultMinRange = m.DefaultMaxRange
	}
	m.DefaultFalloff = clampFloat("default_falloff", m.DefaultFalloff, MinFalloff, MaxFalloff, warn)

	m.Hostile.normalize("hostile", m, warn)
	m.Neutral.normalize("neutral", m, warn)
	m.Peaceful.normalize("peaceful", m, warn)
	m.Warden.normalize("warden", m, warn)
	m.Sensor.normalize("sensor", m, warn)

	if m.Warden.MinAnger < 0 {
		warn("warden.min_anger %d below 0, using 0", m.Warden.MinAnger)
		m.Warden.MinAnger = 0
	}
	if m.Warden.MaxAnger > MaxAngerPerEvent {
		warn("warden.max_anger %d above %d, using %d", m.Warden.MaxAnger, MaxAngerPerEvent, MaxAngerPerEvent)
		m.Warden.MaxAnger = MaxAngerPerEvent
	}
	if m.Warden.MinAnger > m.Warden.MaxAnger {
		warn("warden.min_anger %d exceeds max_anger %d, using %d", m.Warden.MinAnger, m.Warden.MaxAnger, m.Warden.MaxAnger)
		m.Warden.MinAnger = m.Warden.MaxAnger
	}

	if m.GroupAlert.MaxAlerts < 0 || m.GroupAlert.MaxAlerts > MaxGroupAlerts {
		clamped := m.GroupAlert.MaxAlerts
		if clamped < 0 {
			clamped = 0
		} else {
			clamped = MaxGroupAlerts
		}
		warn("group_alert.max_alerts %d out of [0, %d], using %d", m.GroupAlert.MaxAlerts, MaxGroupAlerts, clamped)
		m.GroupAlert.MaxAlerts = clamped
	}
	m.GroupAlert.DefaultRadius = clampFloat("group_alert.default_radius", m.GroupAlert.DefaultRadius, 0, MaxAlertRadius, warn)
	for species, radius := range m.GroupAlert.Radii {
		m.GroupAlert.Radii[species] = clampFloat("group_alert.radii."+species, radius, 0, MaxAlertRadius, warn)
	}

	if m.StateTTL < time.Second {
		warn("state_ttl %s below 1s, using 1s", m.StateTTL)
		m.StateTTL = time.Second
	}

	return warnings
}

func (c *CategoryConfig) normalize(name string, m *Mechanics, warn func(string, ...interface{})) {
	c.ThresholdDB = clampFloat(name+".threshold_db", c.ThresholdDB, MinThresholdDB, MaxThresholdDB, warn)
	c.FleeThresholdDB = clampFloat(name+".flee_threshold_db", c.FleeThresholdDB, MinThresholdDB, MaxThresholdDB, warn)
	c.ReactionChance = clampFloat(name+".reaction_chance", c.ReactionChance, 0, 1, warn)

	if c.MinRange != nil {
		*c.MinRange = clampFloat(name+".min_range", *c.MinRange, MinRangeBound, MaxRangeBound, warn)
	}
	if c.MaxRange != nil {
		*c.MaxRange = clampFloat(name+".max_range", *c.MaxRange, MinRangeBound, MaxRangeBound, warn)
	}
	if c.Falloff != nil {
		*c.Falloff = clampFloat(name+".falloff", *c.Falloff, MinFalloff, MaxFalloff, warn)
	}
	if min, max := c.ResolveMinRange(m), c.ResolveMaxRange(m); min > max {
		warn("%s.min_range %.1f exceeds max_range %.1f, using %.1f", name, min, max, max)
		c.MinRange = floatPtr(max)
	}

	c.Cooldown = clampDuration(name+".cooldown", c.Cooldown, warn)
	c.LookDuration = clampDuration(name+".look_duration", c.LookDuration, warn)
	c.FleeDuration = clampDuration(name+".flee_duration", c.FleeDuration, warn)
	c.FollowDuration = clampDuration(name+".follow_duration", c.FollowDuration, warn)
	c.EyeContactMemory = clampDuration(name+".eye_contact_memory", c.EyeContactMemory, warn)

	c.FleeDistance = clampFloat(name+".flee_distance", c.FleeDistance, 0, MaxRangeBound, warn)
	c.MaxFollowDistance = clampFloat(name+".max_follow_distance", c.MaxFollowDistance, 0, MaxRangeBound, warn)
	c.EyeContactRange = clampFloat(name+".eye_contact_range", c.EyeContactRange, 0, MaxRangeBound, warn)
}

// ResolveMinRange returns the configured min range or the global default
func (c *CategoryConfig) ResolveMinRange(m *Mechanics) float64 {
	if c.MinRange != nil {
		return *c.MinRange
	}
	return m.DefaultMinRange
}

// ResolveMaxRange returns the configured max range or the global default
func (c *CategoryConfig) ResolveMaxRange(m *Mechanics) float64 {
	if c.MaxRange != nil {
		return *c.MaxRange
	}
	return m.DefaultMaxRange
}

// ResolveFalloff returns the configured falloff exponent or the global default
func (c *CategoryConfig) ResolveFalloff(m *Mechanics) float64 {
	if c.Falloff != nil {
		return *c.Falloff
	}
	return m.DefaultFalloff
}

func clampFloat(name string, v, min, max float64, warn func(string, ...interface{})) float64 {
	switch {
	case v != v: // NaN
		warn("%s is not a number, using %.2f", name, min)
		return min
	case v < min:
		warn("%s %.2f below %.2f, using %.2f", name, v, min, min)
		return min
	case v > max:
		warn("%s %.2f above %.2f, using %.2f", name, v, max, max)
		return max
	}
	return v
}

func clampDuration(name string, d time.Duration, warn func(string, ...interface{})) time.Duration {
	if d < 0 {
		warn("%s %s is negative, using 0", name, d)
		return 0
	}
	return d
}
