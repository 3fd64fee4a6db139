package environment

import "strings"

// BiomeCategory groups biomes with similar sound propagation
type BiomeCategory string

const (
	BiomeNeutral     BiomeCategory = "neutral"
	BiomeUnderground BiomeCategory = "underground"
	BiomeUnderwater  BiomeCategory = "underwater"
	BiomeForest      BiomeCategory = "forest"
	BiomeWater       BiomeCategory = "water"
	BiomeMountain    BiomeCategory = "mountain"
	BiomeOpen        BiomeCategory = "open"
	BiomeNether      BiomeCategory = "nether"
	BiomeEnd         BiomeCategory = "end"
	BiomeSwamp       BiomeCategory = "swamp"
)

type biomeEffect struct {
	rangeMultiplier float64
	thresholdDB     float64
}

var biomeEffects = map[BiomeCategory]biomeEffect{
	BiomeNeutral:     {1.0, 0},
	BiomeUnderground: {1.3, -5}, // echoes carry
	BiomeUnderwater:  {0.6, 0},
	BiomeForest:      {0.7, 3}, // foliage dampens
	BiomeWater:       {0.6, 0},
	BiomeMountain:    {1.2, 0},
	BiomeOpen:        {1.1, 0},
	BiomeNether:      {1.4, 0},
	BiomeEnd:         {1.0, 0},
	BiomeSwamp:       {0.8, 0},
}

// matched in order; nether before forest so "warped_forest" is nether
var biomeKeywords = []struct {
	category BiomeCategory
	keywords []string
}{
	{BiomeUnderground, []string{"underground", "cave", "deep_dark"}},
	{BiomeNether, []string{"nether", "basalt", "warped", "crimson", "soul_sand"}},
	{BiomeUnderwater, []string{"underwater"}},
	{BiomeWater, []string{"ocean", "river", "beach"}},
	{BiomeForest, []string{"forest", "jungle", "taiga"}},
	{BiomeSwamp, []string{"swamp", "mangrove"}},
	{BiomeMountain, []string{"mountain", "peak", "hill", "slopes"}},
	{BiomeOpen, []string{"desert", "plain", "savanna", "badlands"}},
	{BiomeEnd, []string{"end"}},
}

// ClassifyBiome maps a host biome identifier onto a category by substring.
// Unknown biomes are neutral.
func ClassifyBiome(biome string) BiomeCategory {
	b := strings.ToLower(biome)
	if i := strings.IndexByte(b, ':'); i >= 0 {
		b = b[i+1:]
	}
	if b == "" {
		return BiomeNeutral
	}
	for _, group := range biomeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(b, kw) {
				return group.category
			}
		}
	}
	return BiomeNeutral
}

// Classify resolves the effective category of a position. Being inside a
// liquid or underground overrides the biome name.
func Classify(c *Conditions) BiomeCategory {
	if c == nil {
		return BiomeNeutral
	}
	if c.Underwater() {
		return BiomeUnderwater
	}
	if c.Underground() {
		return BiomeUnderground
	}
	return ClassifyBiome(c.Biome)
}
