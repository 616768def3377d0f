package shared

import (
	"fmt"

	"restaurant_lives/internal/domain"
)

// Registry of published feeds keyed by slug.
var Municipalities = map[string]domain.Municipality{
	"austin": {
		Key:          "austin",
		Name:         "City of Austin",
		URL:          "https://data.austintexas.gov",
		ContactEmail: "open.data@austintexas.gov",
		SourceURL:    "https://data.austintexas.gov/api/views/ecmv-9xxi/rows.json?accessType=DOWNLOAD",
		ArchiveName:  "austin_lives.zip",
	},
}

// Resolve looks up the configured municipalities, applying SOURCE_URL when a
// single feed is selected.
func (c Config) Resolve() ([]domain.Municipality, error) {
	if len(c.Municipalities) == 0 {
		return nil, fmt.Errorf("no municipalities configured")
	}
	out := make([]domain.Municipality, 0, len(c.Municipalities))
	for _, key := range c.Municipalities {
		m, ok := Municipalities[key]
		if !ok {
			return nil, fmt.Errorf("unknown municipality %q", key)
		}
		out = append(out, m)
	}
	if c.SourceURL != "" {
		if len(out) != 1 {
			return nil, fmt.Errorf("SOURCE_URL needs exactly one municipality, got %d", len(out))
		}
		out[0].SourceURL = c.SourceURL
	}
	return out, nil
}
