package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kasuganosora/npcbrain/game/ai"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSpecies is returned when a species name is not in the bestiary.
var ErrUnknownSpecies = errors.New("unknown species")

// SpawnPoint places Count creatures of a species at (X, Z).
type SpawnPoint struct {
	X        float64 `yaml:"x"`
	Z        float64 `yaml:"z"`
	Count    int     `yaml:"count"`
	RespawnS float64 `yaml:"respawn_s"`
}

// Species is one creature type: its body and its temperament.
type Species struct {
	Name         string  `yaml:"name"`
	HP           float64 `yaml:"hp"`
	Armor        float64 `yaml:"armor"`
	Stamina      float64 `yaml:"stamina"`
	WoundedRatio float64 `yaml:"wounded_ratio"`
	// Faction is the layer this species shows up on in overlap queries.
	Faction ai.Mask       `yaml:"faction"`
	Params  ai.Parameters `yaml:"params"`
	Spawns  []SpawnPoint  `yaml:"spawns"`
}

// UnmarshalYAML fills unset fields with defaults before decoding.
func (s *Species) UnmarshalYAML(node *yaml.Node) error {
	type plain Species
	p := plain{
		HP:           100,
		Stamina:      100,
		WoundedRatio: 0.3,
		Faction:      1,
		Params:       ai.DefaultParameters(),
	}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Species(p)
	return nil
}

func (s Species) validate() error {
	switch {
	case s.Name == "":
		return errors.New("species without a name")
	case s.HP <= 0:
		return fmt.Errorf("species %s: hp must be positive", s.Name)
	case s.WoundedRatio < 0 || s.WoundedRatio > 1:
		return fmt.Errorf("species %s: wounded_ratio must be within [0, 1]", s.Name)
	}
	for i, sp := range s.Spawns {
		if sp.Count < 0 || sp.RespawnS < 0 {
			return fmt.Errorf("species %s: spawn %d has a negative count or delay", s.Name, i)
		}
	}
	return nil
}

// Bestiary is the species catalogue.
type Bestiary struct {
	Species []Species `yaml:"species"`
}

// Lookup returns the species with the given name.
func (b *Bestiary) Lookup(name string) (Species, error) {
	for _, s := range b.Species {
		if s.Name == name {
			return s, nil
		}
	}
	return Species{}, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
}

// ParseBestiary decodes and validates a catalogue.
func ParseBestiary(data []byte) (*Bestiary, error) {
	b := &Bestiary{}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("bestiary: unmarshal: %w", err)
	}
	if len(b.Species) == 0 {
		return nil, errors.New("bestiary: no species")
	}
	seen := make(map[string]bool, len(b.Species))
	for _, s := range b.Species {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("bestiary: %w", err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("bestiary: duplicate species %s", s.Name)
		}
		seen[s.Name] = true
	}
	return b, nil
}

// LoadBestiary reads the catalogue at path.
func LoadBestiary(path string) (*Bestiary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bestiary: load %s: %w", path, err)
	}
	return ParseBestiary(data)
}
