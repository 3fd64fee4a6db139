package reaction

import "github.com/lexiqai/voice-mechanics/internal/world"

// hostile species that call for help, with the radius they call over.
// Only hostile detections raise group alerts.
var defaultAlertRadii = map[string]float64{
	"zombie":          16,
	"husk":            16,
	"zombie_villager": 16,
	"drowned":         12,
	"skeleton":        12,
	"spider":          10,
	"cave_spider":     10,
	"pillager":        24,
	"vindicator":      18,
	"evoker":          18,
}

// SocialTable maps social species to their alert radius
type SocialTable struct {
	radii map[string]float64
}

// NewSocialTable builds the table from the built-in radii plus overrides.
// An override for an unknown species makes it social; a zero or negative
// override uses defaultRadius.
func NewSocialTable(overrides map[string]float64, defaultRadius float64) SocialTable {
	radii := make(map[string]float64, len(defaultAlertRadii)+len(overrides))
	for s, r := range defaultAlertRadii {
		radii[s] = r
	}
	for s, r := range overrides {
		if r <= 0 {
			r = defaultRadius
		}
		radii[world.NormalizeSpecies(s)] = r
	}
	return SocialTable{radii: radii}
}

// Radius returns the alert radius of a species and whether it is social
func (t SocialTable) Radius(species string) (float64, bool) {
	r, ok := t.radii[world.NormalizeSpecies(species)]
	return r, ok && r > 0
}
