package fleet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greenmove/evcharge/core/model"
)

// Seed is the initial fleet loaded at startup.
type Seed struct {
	Vehicles []model.Vehicle `json:"vehicles" yaml:"vehicles"`
	Stations []model.Station `json:"stations" yaml:"stations"`
}

// LoadSeed reads a YAML or JSON seed file, selected by extension, and
// validates it as a snapshot.
func LoadSeed(path string) (Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	var seed Seed
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &seed)
	case ".json":
		err = json.Unmarshal(b, &seed)
	default:
		return Seed{}, fmt.Errorf("unsupported seed format: %s", ext)
	}
	if err != nil {
		return Seed{}, err
	}
	snap := model.Snapshot{Vehicles: seed.Vehicles, Stations: seed.Stations}
	if err := snap.Validate(); err != nil {
		return Seed{}, fmt.Errorf("seed file %s: %w", path, err)
	}
	return seed, nil
}

// Apply loads the seed into the store.
func (s *Store) Apply(seed Seed) {
	s.SetStations(seed.Stations)
	for _, v := range seed.Vehicles {
		s.UpsertVehicle(v)
	}
}
