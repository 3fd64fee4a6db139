package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.GRPCPort != "9090" {
		t.Errorf("Expected default GRPCPort '9090', got '%s'", cfg.GRPCPort)
	}

	if cfg.TickRate != 20 {
		t.Errorf("Expected default TickRate 20, got %d", cfg.TickRate)
	}

	if cfg.FrameSamples != 960 {
		t.Errorf("Expected default FrameSamples 960, got %d", cfg.FrameSamples)
	}

	if cfg.VADThresholdDB != -70.0 {
		t.Errorf("Expected default VADThresholdDB -70.0, got %f", cfg.VADThresholdDB)
	}

	if cfg.VADSilenceFrames != 10 {
		t.Errorf("Expected default VADSilenceFrames 10, got %d", cfg.VADSilenceFrames)
	}

	if len(cfg.Warnings) != 0 {
		t.Errorf("Expected no warnings for built-in mechanics, got %v", cfg.Warnings)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9999")
	os.Setenv("HOST_URL", "ws://game-host:25570/voice")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("HOST_URL")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Expected Port '9999', got '%s'", cfg.Port)
	}
	if cfg.HostURL != "ws://game-host:25570/voice" {
		t.Errorf("Expected HostURL to be set, got '%s'", cfg.HostURL)
	}
}

func TestLoadFromEnv_InvalidTickRate(t *testing.T) {
	os.Setenv("TICK_RATE", "0")
	defer os.Unsetenv("TICK_RATE")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for zero tick rate")
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.ReconnectMaxAttempts != 5 {
		t.Errorf("Expected default ReconnectMaxAttempts 5, got %d", cfg.ReconnectMaxAttempts)
	}

	if cfg.ReconnectBackoff != 1000 {
		t.Errorf("Expected default ReconnectBackoff 1000, got %d", cfg.ReconnectBackoff)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}

func TestLoadMechanics_EnvOverrides(t *testing.T) {
	os.Setenv("HOSTILE_THRESHOLD_DB", "-30")
	os.Setenv("PEACEFUL_FLEE_DURATION", "8s")
	os.Setenv("NEUTRAL_MIN_RANGE", "3")
	os.Setenv("NEUTRAL_BLACKLIST", "iron_golem,minecraft:bee")
	os.Setenv("GROUP_ALERT_RADII", "zombie:20,husk:18")
	defer os.Unsetenv("HOSTILE_THRESHOLD_DB")
	defer os.Unsetenv("PEACEFUL_FLEE_DURATION")
	defer os.Unsetenv("NEUTRAL_MIN_RANGE")
	defer os.Unsetenv("NEUTRAL_BLACKLIST")
	defer os.Unsetenv("GROUP_ALERT_RADII")

	m, warnings, err := LoadMechanics("")
	if err != nil {
		t.Fatalf("LoadMechanics() failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}

	if m.Hostile.ThresholdDB != -30 {
		t.Errorf("Expected hostile threshold -30, got %f", m.Hostile.ThresholdDB)
	}
	if m.Peaceful.FleeDuration != 8*time.Second {
		t.Errorf("Expected peaceful flee duration 8s, got %s", m.Peaceful.FleeDuration)
	}
	if m.Neutral.MinRange == nil || *m.Neutral.MinRange != 3 {
		t.Errorf("Expected neutral min range 3, got %v", m.Neutral.MinRange)
	}
	if len(m.Neutral.Blacklist) != 2 {
		t.Errorf("Expected 2 blacklist entries, got %v", m.Neutral.Blacklist)
	}
	if m.GroupAlert.Radii["zombie"] != 20 || m.GroupAlert.Radii["husk"] != 18 {
		t.Errorf("Unexpected radii %v", m.GroupAlert.Radii)
	}

	// untouched values keep their defaults
	if m.Neutral.ReactionChance != 0.6 {
		t.Errorf("Expected neutral reaction chance 0.6, got %f", m.Neutral.ReactionChance)
	}
	if m.Hostile.MinRange != nil {
		t.Errorf("Expected hostile min range to stay unset, got %v", *m.Hostile.MinRange)
	}
}

func TestLoadMechanics_BareNamesIgnored(t *testing.T) {
	os.Setenv("COOLDOWN", "60s")
	os.Setenv("ENABLED", "false")
	os.Setenv("MAX_RANGE", "100")
	os.Setenv("NEUTRAL_COOLDOWN", "9s")
	defer os.Unsetenv("COOLDOWN")
	defer os.Unsetenv("ENABLED")
	defer os.Unsetenv("MAX_RANGE")
	defer os.Unsetenv("NEUTRAL_COOLDOWN")

	m, _, err := LoadMechanics("")
	if err != nil {
		t.Fatalf("LoadMechanics() failed: %v", err)
	}

	if m.Neutral.Cooldown != 9*time.Second {
		t.Errorf("Expected neutral cooldown 9s, got %s", m.Neutral.Cooldown)
	}
	if m.Peaceful.Cooldown != 5*time.Second {
		t.Errorf("Expected peaceful cooldown to keep 5s, got %s", m.Peaceful.Cooldown)
	}
	if !m.Hostile.Enabled || !m.GroupAlert.Enabled {
		t.Error("Expected a bare ENABLED to leave every section enabled")
	}
	if m.Peaceful.MaxRange != nil {
		t.Errorf("Expected peaceful max range to stay unset, got %v", *m.Peaceful.MaxRange)
	}
	if got := *m.Hostile.MaxRange; got != 24 {
		t.Errorf("Expected hostile max range 24, got %f", got)
	}
}

func TestLoadMechanics_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mechanics.yaml")
	data := []byte(`
default_max_range: 20
hostile:
  threshold_db: -45
  falloff: 1.5
peaceful:
  follow_enabled: false
  eye_contact_memory: 4s
group_alert:
  max_alerts: 3
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write mechanics file: %v", err)
	}

	m, _, err := LoadMechanics(path)
	if err != nil {
		t.Fatalf("LoadMechanics() failed: %v", err)
	}

	if m.DefaultMaxRange != 20 {
		t.Errorf("Expected default max range 20, got %f", m.DefaultMaxRange)
	}
	if m.Hostile.ThresholdDB != -45 {
		t.Errorf("Expected hostile threshold -45, got %f", m.Hostile.ThresholdDB)
	}
	if m.Hostile.ResolveFalloff(m) != 1.5 {
		t.Errorf("Expected hostile falloff 1.5, got %f", m.Hostile.ResolveFalloff(m))
	}
	if m.Peaceful.FollowEnabled {
		t.Error("Expected peaceful follow to be disabled")
	}
	if m.Peaceful.EyeContactMemory != 4*time.Second {
		t.Errorf("Expected eye contact memory 4s, got %s", m.Peaceful.EyeContactMemory)
	}
	if !m.Peaceful.FleeEnabled {
		t.Error("Expected fields missing from the file to keep their defaults")
	}
	if m.GroupAlert.MaxAlerts != 3 {
		t.Errorf("Expected max alerts 3, got %d", m.GroupAlert.MaxAlerts)
	}
}

func TestLoadMechanics_MissingFile(t *testing.T) {
	if _, _, err := LoadMechanics(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing mechanics file")
	}
}

func TestMechanics_Normalize(t *testing.T) {
	m := DefaultMechanics()
	m.Hostile.Falloff = floatPtr(5)
	m.Hostile.MinRange = floatPtr(30)
	m.Hostile.MaxRange = floatPtr(500)
	m.Neutral.ReactionChance = 1.7
	m.Peaceful.ThresholdDB = 12
	m.Peaceful.Cooldown = -time.Second
	m.GroupAlert.MaxAlerts = 99
	m.Warden.MinAnger = 80
	m.Warden.MaxAnger = 60

	warnings := m.Normalize()
	if len(warnings) != 7 {
		t.Errorf("Expected 7 warnings, got %d: %v", len(warnings), warnings)
	}

	if *m.Hostile.Falloff != MaxFalloff {
		t.Errorf("Expected falloff clamped to %f, got %f", MaxFalloff, *m.Hostile.Falloff)
	}
	if *m.Hostile.MaxRange != MaxRangeBound {
		t.Errorf("Expected max range clamped to %f, got %f", MaxRangeBound, *m.Hostile.MaxRange)
	}
	if *m.Hostile.MinRange != 30 {
		t.Errorf("Expected min range 30 to survive, got %f", *m.Hostile.MinRange)
	}
	if m.Neutral.ReactionChance != 1 {
		t.Errorf("Expected reaction chance clamped to 1, got %f", m.Neutral.ReactionChance)
	}
	if m.Peaceful.ThresholdDB != MaxThresholdDB {
		t.Errorf("Expected threshold clamped to 0, got %f", m.Peaceful.ThresholdDB)
	}
	if m.Peaceful.Cooldown != 0 {
		t.Errorf("Expected negative cooldown clamped to 0, got %s", m.Peaceful.Cooldown)
	}
	if m.GroupAlert.MaxAlerts != MaxGroupAlerts {
		t.Errorf("Expected max alerts clamped to %d, got %d", MaxGroupAlerts, m.GroupAlert.MaxAlerts)
	}
	if m.Warden.MinAnger != 60 {
		t.Errorf("Expected min anger lowered to 60, got %d", m.Warden.MinAnger)
	}
}

func TestMechanics_NormalizeMinAboveMax(t *testing.T) {
	m := DefaultMechanics()
	m.Neutral.MinRange = floatPtr(20)
	m.Neutral.MaxRange = floatPtr(10)

	warnings := m.Normalize()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %v", warnings)
	}
	if m.Neutral.ResolveMinRange(m) != 10 {
		t.Errorf("Expected min range lowered to 10, got %f", m.Neutral.ResolveMinRange(m))
	}
}

func TestCategoryConfig_ResolveFallsBack(t *testing.T) {
	m := DefaultMechanics()
	if m.Peaceful.ResolveMinRange(m) != m.DefaultMinRange {
		t.Error("Expected unset min range to fall back to the default")
	}
	if m.Peaceful.ResolveMaxRange(m) != m.DefaultMaxRange {
		t.Error("Expected unset max range to fall back to the default")
	}
	if m.Hostile.ResolveMaxRange(m) != 24 {
		t.Errorf("Expected hostile max range 24, got %f", m.Hostile.ResolveMaxRange(m))
	}
}
