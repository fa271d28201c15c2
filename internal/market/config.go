package market

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Well-known source names.
const (
	SourceDiscogs     = "discogs"
	SourceMusicBrainz = "musicbrainz"
	SourceEbay        = "ebay"
)

// Config fixes the merge order by source reputation: the primary
// catalog-marketplace source wins every field it populates, gap-fill sources
// only fill fields the primary left empty, and everything else is recorded
// in the provenance list without contributing fields.
type Config struct {
	Primary string   `yaml:"primary"`
	GapFill []string `yaml:"gap_fill"`
}

// DefaultConfig is the built-in reputation order.
func DefaultConfig() Config {
	return Config{
		Primary: SourceDiscogs,
		GapFill: []string{SourceMusicBrainz},
	}
}

// LoadConfig reads a merge-order config from a YAML file. Missing fields
// fall back to the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "market: read config %s", path)
	}

	var wrapper struct {
		Sources Config `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return cfg, eris.Wrap(err, "market: parse config")
	}

	if wrapper.Sources.Primary != "" {
		cfg.Primary = wrapper.Sources.Primary
	}
	if len(wrapper.Sources.GapFill) > 0 {
		cfg.GapFill = wrapper.Sources.GapFill
	}
	return cfg, nil
}
