package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// Fixtures is a hand-written dataset that replaces random seeding.
type Fixtures struct {
	Plants []types.Plant `json:"plants"`
	RTUs   []types.RTU   `json:"rtus"`
}

// LoadFixtures reads a YAML fixture file. Keys follow the JSON field names
// of the records, so the YAML tree is routed through encoding/json rather
// than duplicating every tag.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

func ParseFixtures(data []byte) (*Fixtures, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to convert fixtures: %w", err)
	}

	var fx Fixtures
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}

	for i, p := range fx.Plants {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("plant %d: %w", p.ID, types.Invalid("status", "unknown plant status %q", p.Status))
		}
		if !p.Infra.Type.Valid() {
			return nil, fmt.Errorf("plant %d: %w", p.ID, types.Invalid("infra.type", "unknown plant type %q", p.Infra.Type))
		}
		if fx.Plants[i].Control == nil {
			fx.Plants[i].Control = []types.ControlChannel{}
		}
	}
	for _, r := range fx.RTUs {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rtu %s: %w", r.ID, err)
		}
	}

	return &fx, nil
}
