package palette

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is a single named palette in the specification file.
type Entry struct {
	Colors []string `yaml:"colors"`
	// Slot is the hardware palette slot an overriding palette (a boss
	// palette) should land in.
	Slot *uint8 `yaml:"slot"`
}

// File is the on-disk palette specification. Sections are keyed by palette
// name; slot ordering is imposed by the consumer, not the file.
type File struct {
	BG      map[string]Entry `yaml:"bg_palettes"`
	OBJ     map[string]Entry `yaml:"obj_palettes"`
	Boss    map[string]Entry `yaml:"boss_palettes"`
	Powerup map[string]Entry `yaml:"powerup_palettes"`
}

// Load parses a YAML palette specification.
func Load(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("palette: parsing specification: %w", err)
	}
	return &f, nil
}

// ResolveGroup looks name up in a section and resolves its colours, falling
// back to the given default entries when the section does not define it.
func ResolveGroup(section map[string]Entry, name string, fallback []string) (Group, error) {
	if e, ok := section[name]; ok {
		return ParseGroup(name, e.Colors)
	}
	return ParseGroup(name, fallback)
}

// ResolveSlot returns the declared hardware slot for an overriding palette,
// or the fallback slot when the entry is absent or silent.
func ResolveSlot(section map[string]Entry, name string, fallback uint8) uint8 {
	if e, ok := section[name]; ok && e.Slot != nil {
		return *e.Slot
	}
	return fallback
}
