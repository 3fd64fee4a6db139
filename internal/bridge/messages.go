package bridge

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/lexiqai/voice-mechanics/internal/environment"
	"github.com/lexiqai/voice-mechanics/internal/world"
)

// Host → service events
const (
	EventConnected     = "connected"
	EventSnapshot      = "snapshot"
	EventVoice         = "voice"
	EventEntityRemoved = "entity_removed"
	EventPlayerLeft    = "player_left"
	EventStop          = "stop"
)

// Service → host events
const (
	EventDirective     = "directive"
	EventVoiceDetected = "voice_detected"
)

// HostMessage is a message from the game host
type HostMessage struct {
	Event    string           `json:"event"`
	Server   string           `json:"server,omitempty"`
	Snapshot *SnapshotPayload `json:"snapshot,omitempty"`
	Voice    *VoicePayload    `json:"voice,omitempty"`
	Entity   int64            `json:"entity,omitempty"`
	Player   string           `json:"player,omitempty"`
}

// SnapshotPayload replaces the whole world view
type SnapshotPayload struct {
	Tick     int64           `json:"tick"`
	Entities []EntityPayload `json:"entities"`
	Players  []PlayerPayload `json:"players"`
	Sensors  []SensorPayload `json:"sensors,omitempty"`
}

// EntityPayload is one entity in a snapshot
type EntityPayload struct {
	ID       int64       `json:"id"`
	Species  string      `json:"species"`
	Position [3]float64  `json:"position"`
	Height   float64     `json:"height,omitempty"`
	Target   string      `json:"target,omitempty"`
	Flags    world.Flags `json:"flags"`
}

// PlayerPayload is one player in a snapshot
type PlayerPayload struct {
	ID       string     `json:"id"`
	Name     string     `json:"name,omitempty"`
	Position [3]float64 `json:"position"`
	Eye      [3]float64 `json:"eye"`
	Look     [3]float64 `json:"look"`
	Sneaking bool       `json:"sneaking,omitempty"`
	Mode     string     `json:"mode,omitempty"`
	Online   bool       `json:"online"`
	// host day-time ticks; overrides conditions.time_of_day when set
	DayTime    *int64                  `json:"day_time,omitempty"`
	Conditions *environment.Conditions `json:"conditions,omitempty"`
}

// SensorPayload is one sensor block in a snapshot
type SensorPayload struct {
	Position [3]int `json:"position"`
	Kind     string `json:"kind,omitempty"`
}

// VoicePayload carries one encoded voice frame
type VoicePayload struct {
	Player   string      `json:"player"`
	Codec    string      `json:"codec,omitempty"`
	Payload  string      `json:"payload"` // base64
	Position *[3]float64 `json:"position,omitempty"`
}

// ServiceMessage is a message to the game host
type ServiceMessage struct {
	Event         string                `json:"event"`
	Directive     *DirectivePayload     `json:"directive,omitempty"`
	VoiceDetected *VoiceDetectedPayload `json:"voice_detected,omitempty"`
}

// DirectivePayload asks the host to actuate an entity or emit an event
type DirectivePayload struct {
	Action   string      `json:"action"`
	Entity   int64       `json:"entity,omitempty"`
	Player   string      `json:"player,omitempty"`
	Position *[3]float64 `json:"position,omitempty"`
	Block    *[3]int     `json:"block,omitempty"`
	Amount   int         `json:"amount,omitempty"`
}

// VoiceDetectedPayload is the public voice notification
type VoiceDetectedPayload struct {
	Player   string     `json:"player"`
	Position [3]float64 `json:"position"`
	Decibels float64    `json:"decibels"`
}

func vec(v [3]float64) world.Vec3 {
	return world.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func array(v world.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func parsePlayerID(s string) (world.PlayerID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid player id %q: %w", s, err)
	}
	return id, nil
}

func (p EntityPayload) toEntity() (world.Entity, error) {
	e := world.Entity{
		ID:       world.EntityID(p.ID),
		Species:  p.Species,
		Position: vec(p.Position),
		Height:   p.Height,
		Flags:    p.Flags,
	}
	if p.Target != "" {
		target, err := parsePlayerID(p.Target)
		if err != nil {
			return world.Entity{}, fmt.Errorf("entity %d: %w", p.ID, err)
		}
		e.Target = target
	}
	return e, nil
}

func (p PlayerPayload) toPlayer() (world.Player, error) {
	id, err := parsePlayerID(p.ID)
	if err != nil {
		return world.Player{}, err
	}

	var conditions *environment.Conditions
	if p.Conditions != nil || p.DayTime != nil {
		c := environment.Conditions{}
		if p.Conditions != nil {
			c = *p.Conditions
		}
		if p.DayTime != nil {
			c.TimeOfDay = environment.TimeFromTicks(*p.DayTime)
		}
		if c.Elevation == nil {
			y := p.Position[1]
			c.Elevation = &y
		}
		conditions = &c
	}

	return world.Player{
		ID:         id,
		Name:       p.Name,
		Position:   vec(p.Position),
		Eye:        vec(p.Eye),
		Look:       vec(p.Look),
		Sneaking:   p.Sneaking,
		Mode:       world.GameMode(p.Mode),
		Online:     p.Online,
		Conditions: conditions,
	}, nil
}

func (p SensorPayload) toSensor() world.Sensor {
	return world.Sensor{
		Position: world.BlockPos{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]},
		Kind:     p.Kind,
	}
}

// decodedSnapshot is a snapshot converted to world types
type decodedSnapshot struct {
	entities []world.Entity
	players  []world.Player
	sensors  []world.Sensor
	skipped  int
}

// decodeSnapshot converts a snapshot, skipping malformed records
func decodeSnapshot(p *SnapshotPayload) decodedSnapshot {
	var out decodedSnapshot
	out.entities = make([]world.Entity, 0, len(p.Entities))
	for _, ep := range p.Entities {
		e, err := ep.toEntity()
		if err != nil {
			out.skipped++
			continue
		}
		out.entities = append(out.entities, e)
	}
	out.players = make([]world.Player, 0, len(p.Players))
	for _, pp := range p.Players {
		pl, err := pp.toPlayer()
		if err != nil {
			out.skipped++
			continue
		}
		out.players = append(out.players, pl)
	}
	out.sensors = make([]world.Sensor, 0, len(p.Sensors))
	for _, sp := range p.Sensors {
		out.sensors = append(out.sensors, sp.toSensor())
	}
	return out
}

// decodeVoice converts a voice payload
func decodeVoice(p *VoicePayload) (world.PlayerID, []byte, *world.Vec3, error) {
	player, err := parsePlayerID(p.Player)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}
	data, err := base64.StdEncoding.DecodeString(p.Payload)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("failed to decode voice payload: %w", err)
	}
	var pos *world.Vec3
	if p.Position != nil {
		v := vec(*p.Position)
		pos = &v
	}
	return player, data, pos, nil
}

// directiveMessage converts a world actuation into a directive
func directiveMessage(a world.Action) ServiceMessage {
	d := &DirectivePayload{
		Action: string(a.Kind),
		Entity: int64(a.Entity),
		Amount: a.Amount,
	}
	if a.Player != uuid.Nil {
		d.Player = a.Player.String()
	}
	switch a.Kind {
	case world.ActionLookAt, world.ActionMoveTo:
		pos := array(a.Position)
		d.Position = &pos
	case world.ActionStep:
		block := [3]int{a.Block.X, a.Block.Y, a.Block.Z}
		d.Block = &block
	}
	return ServiceMessage{Event: EventDirective, Directive: d}
}

func voiceDetectedMessage(player world.PlayerID, pos world.Vec3, db float64) ServiceMessage {
	return ServiceMessage{
		Event: EventVoiceDetected,
		VoiceDetected: &VoiceDetectedPayload{
			Player:   player.String(),
			Position: array(pos),
			Decibels: db,
		},
	}
}
