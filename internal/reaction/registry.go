package reaction

import "github.com/lexiqai/voice-mechanics/internal/world"

// Category is the behavioral class of a species
type Category string

const (
	CategoryNone     Category = "none"
	CategoryHostile  Category = "hostile"
	CategoryNeutral  Category = "neutral"
	CategoryPeaceful Category = "peaceful"
	CategorySpecial  Category = "special" // anger accumulation instead of targeting
	CategorySensor   Category = "sensor"  // passive blocks, never a species
)

var speciesCategories = map[string]Category{}

func register(c Category, species ...string) {
	for _, s := range species {
		speciesCategories[s] = c
	}
}

func init() {
	register(CategoryHostile,
		"zombie", "husk", "drowned", "zombie_villager",
		"skeleton", "stray", "wither_skeleton", "bogged",
		"spider", "cave_spider", "silverfish", "endermite",
		"pillager", "vindicator", "evoker", "ravager", "vex", "illusioner",
		"blaze", "ghast", "magma_cube", "wither",
		"hoglin", "zoglin", "piglin_brute",
		"guardian", "elder_guardian",
		"creeper", "witch", "slime", "shulker", "phantom", "breeze",
	)
	register(CategoryNeutral,
		"enderman", "zombified_piglin", "piglin", "wolf", "polar_bear",
		"llama", "trader_llama", "panda", "bee", "iron_golem", "dolphin", "goat",
	)
	register(CategoryPeaceful,
		"cow", "mooshroom", "sheep", "pig", "chicken", "rabbit",
		"horse", "donkey", "mule", "skeleton_horse", "zombie_horse", "camel",
		"cat", "ocelot", "parrot", "fox", "frog", "axolotl", "tadpole", "turtle",
		"squid", "glow_squid", "cod", "salmon", "tropical_fish", "pufferfish",
		"bat", "allay", "villager", "wandering_trader", "strider", "snow_golem",
		"sniffer", "armadillo",
	)
	register(CategorySpecial, "warden")
}

// CategoryOf returns the category of a species identifier. Unknown species
// are CategoryNone and never react.
func CategoryOf(species string) Category {
	if c, ok := speciesCategories[world.NormalizeSpecies(species)]; ok {
		return c
	}
	return CategoryNone
}
