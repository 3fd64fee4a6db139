// Package world describes the host game world as the reaction engine sees
// it: entities, players, sensor blocks, and the narrow query and actuation
// surface the host exposes.
package world

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lexiqai/voice-mechanics/internal/environment"
)

// EntityID identifies an entity for as long as it exists in the host world
type EntityID int64

// PlayerID identifies a player across sessions
type PlayerID = uuid.UUID

// GameMode is the player's host game mode
type GameMode string

const (
	ModeSurvival  GameMode = "survival"
	ModeAdventure GameMode = "adventure"
	ModeCreative  GameMode = "creative"
	ModeSpectator GameMode = "spectator"
)

// Detectable reports whether mobs may react to a player in this mode
func (m GameMode) Detectable() bool {
	switch GameMode(strings.ToLower(string(m))) {
	case ModeSurvival, ModeAdventure, "":
		return true
	default:
		return false
	}
}

// Flags are the host-reported entity conditions capability checks rely on
type Flags struct {
	Juvenile  bool `json:"juvenile,omitempty"`
	Tamed     bool `json:"tamed,omitempty"`
	Sitting   bool `json:"sitting,omitempty"`
	Leashed   bool `json:"leashed,omitempty"`
	InVehicle bool `json:"in_vehicle,omitempty"`
}

// Entity is a non-player agent
type Entity struct {
	ID       EntityID
	Species  string // normalized, see NormalizeSpecies
	Position Vec3
	Height   float64
	Target   PlayerID // uuid.Nil when the entity has no target
	Flags    Flags
}

// EyePosition approximates where the entity's eyes are
func (e Entity) EyePosition() Vec3 {
	return e.Position.Add(Vec3{Y: e.Height * 0.85})
}

// HasTarget reports whether the entity currently targets a player
func (e Entity) HasTarget() bool {
	return e.Target != uuid.Nil
}

// Player is a connected (or recently connected) player
type Player struct {
	ID       PlayerID
	Name     string
	Position Vec3
	Eye      Vec3 // eye position
	Look     Vec3 // unit view direction
	Sneaking bool
	Mode     GameMode
	Online   bool

	// Conditions at the player's position; nil when the host does not report them
	Conditions *environment.Conditions
}

// Detectable reports whether reactions may be triggered by this player
func (p Player) Detectable() bool {
	return p.Online && p.Mode.Detectable()
}

// Sensor is a passive vibration-sensing block
type Sensor struct {
	Position BlockPos
	Kind     string
}

// World is the host world surface the engine queries and actuates. Every
// method is called from the tick goroutine only. Actuation on an entity
// that no longer exists is a silent no-op.
type World interface {
	// EntitiesNear returns every entity in the axis-aligned cube of the
	// given half-extent around center
	EntitiesNear(center Vec3, halfExtent float64) []Entity
	Entity(id EntityID) (Entity, bool)
	Player(id PlayerID) (Player, bool)

	SetTarget(id EntityID, player PlayerID) bool
	LookAt(id EntityID, pos Vec3) bool
	MoveTo(id EntityID, pos Vec3) bool
	StopMoving(id EntityID) bool
	IncreaseAnger(id EntityID, player PlayerID, amount int) bool

	SensorsNear(center Vec3, radius float64) []Sensor
	EmitStepEvent(pos BlockPos, player PlayerID)
}

// NormalizeSpecies lowercases a species identifier and strips the
// "minecraft:" namespace, so "minecraft:Zombie" and "zombie" compare equal
func NormalizeSpecies(species string) string {
	s := strings.ToLower(strings.TrimSpace(species))
	return strings.TrimPrefix(s, "minecraft:")
}
