package world

// Capabilities answers host-specific questions about what an entity may do
type Capabilities interface {
	CanAttack(e Entity) bool
	CanFlee(e Entity) bool
	CanFollow(e Entity) bool
	CanLook(e Entity) bool
	// ReactionMultiplier scales the entity's willingness to react
	ReactionMultiplier(e Entity) float64
}

// juveniles of these species still attack
var juvenileAttackers = map[string]bool{
	"zombie":           true,
	"husk":             true,
	"drowned":          true,
	"zombie_villager":  true,
	"zombified_piglin": true,
}

// FlagCapabilities derives capabilities from host-reported Flags
type FlagCapabilities struct {
	// JuvenileMultiplier scales reaction chance for juveniles; 0 means 1.5
	JuvenileMultiplier float64
}

func (c FlagCapabilities) CanAttack(e Entity) bool {
	if e.Flags.Tamed {
		return false
	}
	if e.Flags.Juvenile && !juvenileAttackers[e.Species] {
		return false
	}
	return true
}

func (c FlagCapabilities) CanFlee(e Entity) bool {
	return !e.Flags.Sitting && !e.Flags.Leashed && !e.Flags.InVehicle
}

func (c FlagCapabilities) CanFollow(e Entity) bool {
	return !e.Flags.Sitting && !e.Flags.Leashed && !e.Flags.InVehicle
}

func (c FlagCapabilities) CanLook(e Entity) bool {
	return !e.Flags.InVehicle
}

func (c FlagCapabilities) ReactionMultiplier(e Entity) float64 {
	if !e.Flags.Juvenile {
		return 1.0
	}
	if c.JuvenileMultiplier > 0 {
		return c.JuvenileMultiplier
	}
	return 1.5
}
