package world

import (
	"sort"
)

// ActionKind names an actuation the engine requested from the host
type ActionKind string

const (
	ActionSetTarget ActionKind = "set_target"
	ActionLookAt    ActionKind = "look_at"
	ActionMoveTo    ActionKind = "move_to"
	ActionStop      ActionKind = "stop"
	ActionAnger     ActionKind = "anger"
	ActionStep      ActionKind = "step"
)

// Action is one actuation applied to a Memory world
type Action struct {
	Kind     ActionKind
	Entity   EntityID
	Player   PlayerID
	Position Vec3
	Block    BlockPos
	Amount   int
}

// Memory is an in-process World backed by maps. The host bridge keeps one
// per session, refreshed from snapshots; tests build one by hand.
// Memory is not safe for concurrent use.
type Memory struct {
	entities map[EntityID]*Entity
	players  map[PlayerID]Player
	sensors  []Sensor
	anger    map[EntityID]int

	onAction func(Action)
}

// NewMemory creates an empty world
func NewMemory() *Memory {
	return &Memory{
		entities: make(map[EntityID]*Entity),
		players:  make(map[PlayerID]Player),
		anger:    make(map[EntityID]int),
	}
}

// OnAction registers the function receiving every successful actuation
func (m *Memory) OnAction(fn func(Action)) {
	m.onAction = fn
}

func (m *Memory) emit(a Action) {
	if m.onAction != nil {
		m.onAction(a)
	}
}

// PutEntity adds or replaces an entity
func (m *Memory) PutEntity(e Entity) {
	e.Species = NormalizeSpecies(e.Species)
	m.entities[e.ID] = &e
}

// RemoveEntity forgets an entity. It reports whether it existed.
func (m *Memory) RemoveEntity(id EntityID) bool {
	_, ok := m.entities[id]
	delete(m.entities, id)
	delete(m.anger, id)
	return ok
}

// PutPlayer adds or replaces a player
func (m *Memory) PutPlayer(p Player) {
	m.players[p.ID] = p
}

// RemovePlayer forgets a player
func (m *Memory) RemovePlayer(id PlayerID) {
	delete(m.players, id)
}

// SetSensors replaces the sensor list
func (m *Memory) SetSensors(sensors []Sensor) {
	m.sensors = append(m.sensors[:0], sensors...)
}

// Replace swaps the whole world view. Entities missing from the new view
// are returned so their reaction state can be evicted.
func (m *Memory) Replace(entities []Entity, players []Player, sensors []Sensor) []EntityID {
	next := make(map[EntityID]*Entity, len(entities))
	for i := range entities {
		e := entities[i]
		e.Species = NormalizeSpecies(e.Species)
		next[e.ID] = &e
	}

	var removed []EntityID
	for id := range m.entities {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
			delete(m.anger, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	m.entities = next
	m.players = make(map[PlayerID]Player, len(players))
	for _, p := range players {
		m.players[p.ID] = p
	}
	m.SetSensors(sensors)
	return removed
}

// Len returns the number of entities
func (m *Memory) Len() int {
	return len(m.entities)
}

// Players returns every known player
func (m *Memory) Players() []Player {
	out := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	return out
}

// Anger returns the accumulated anger of an entity toward all players
func (m *Memory) Anger(id EntityID) int {
	return m.anger[id]
}

// EntitiesNear returns entities in the cube ordered by id
func (m *Memory) EntitiesNear(center Vec3, halfExtent float64) []Entity {
	var out []Entity
	for _, e := range m.entities {
		if center.WithinCube(e.Position, halfExtent) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) Entity(id EntityID) (Entity, bool) {
	e, ok := m.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

func (m *Memory) Player(id PlayerID) (Player, bool) {
	p, ok := m.players[id]
	return p, ok
}

func (m *Memory) SetTarget(id EntityID, player PlayerID) bool {
	e, ok := m.entities[id]
	if !ok {
		return false
	}
	e.Target = player
	m.emit(Action{Kind: ActionSetTarget, Entity: id, Player: player})
	return true
}

func (m *Memory) LookAt(id EntityID, pos Vec3) bool {
	if _, ok := m.entities[id]; !ok {
		return false
	}
	m.emit(Action{Kind: ActionLookAt, Entity: id, Position: pos})
	return true
}

func (m *Memory) MoveTo(id EntityID, pos Vec3) bool {
	if _, ok := m.entities[id]; !ok {
		return false
	}
	m.emit(Action{Kind: ActionMoveTo, Entity: id, Position: pos})
	return true
}

func (m *Memory) StopMoving(id EntityID) bool {
	if _, ok := m.entities[id]; !ok {
		return false
	}
	m.emit(Action{Kind: ActionStop, Entity: id})
	return true
}

func (m *Memory) IncreaseAnger(id EntityID, player PlayerID, amount int) bool {
	if _, ok := m.entities[id]; !ok || amount <= 0 {
		return false
	}
	m.anger[id] += amount
	m.emit(Action{Kind: ActionAnger, Entity: id, Player: player, Amount: amount})
	return true
}

// SensorsNear returns sensors whose block center lies within radius
func (m *Memory) SensorsNear(center Vec3, radius float64) []Sensor {
	var out []Sensor
	for _, s := range m.sensors {
		if s.Position.Center().Distance(center) <= radius {
			out = append(out, s)
		}
	}
	return out
}

func (m *Memory) EmitStepEvent(pos BlockPos, player PlayerID) {
	m.emit(Action{Kind: ActionStep, Block: pos, Player: player})
}
