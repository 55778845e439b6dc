package colorizer

import (
	"fmt"

	"github.com/struktured-labs/penta-dragon-dx/internal/palette"
)

// Named palettes looked up in the specification file, with the colours used
// when the file does not define them. The OBJ list is ordered by hardware
// slot; the game's sprite classifier assumes this assignment.
var (
	bgNames = []string{"Dungeon", "BG1", "BG2", "BG3", "BG4", "BG5", "BG6", "BG7"}

	bgDefault = []string{"7FFF", "5294", "2108", "0000"}

	objNames = []struct {
		name     string
		fallback []string
	}{
		{"EnemyProjectile", []string{"0000", "7C1F", "5817", "3010"}},
		{"SaraDragon", []string{"0000", "03E0", "01C0", "0000"}},
		{"SaraWitch", []string{"0000", "2EBE", "511F", "0842"}},
		{"SaraProjectileAndCrow", []string{"0000", "001F", "0017", "000F"}},
		{"Hornets", []string{"0000", "03FF", "00DF", "0000"}},
		{"OrcGround", []string{"0000", "02A0", "0160", "0000"}},
		{"Humanoid", []string{"0000", "7C1F", "4C0F", "0000"}},
		{"Catfish", []string{"0000", "7FE0", "3CC0", "0000"}},
	}

	bossNames = []string{
		"Gargoyle", "Spider", "Boss3_Crimson", "Boss4_Ice",
		"Boss5_Void", "Boss6_Poison", "Boss7_Knight", "Angela",
	}

	bossDefault = []string{"0000", "7FFF", "5294", "2108"}

	// defaultBossSlot overwrites the humanoid palette; most bosses share
	// its tile range.
	defaultBossSlot = uint8(6)

	jetNames = []struct {
		name     string
		fallback []string
	}{
		{"SaraWitchJet", []string{"0000", "7C1F", "5817", "3010"}},
		{"SaraDragonJet", []string{"0000", "7FE0", "4EC0", "2D80"}},
	}

	powerupNames = []struct {
		name     string
		fallback []string
	}{
		{"SpiralProjectile", []string{"0000", "7FE0", "5EC0", "3E80"}},
		{"ShieldProjectile", []string{"0000", "03FF", "02BF", "019F"}},
		{"TurboProjectile", []string{"0000", "00FF", "00BF", "005F"}},
	}
)

// Tables holds every compiled palette table the payload embeds.
type Tables struct {
	BG  []byte // 64 bytes, 8 groups
	OBJ []byte // 64 bytes, 8 groups

	BossPalettes []byte // 64 bytes, 8 groups
	BossSlots    []byte // 8 slot bytes

	WitchJet  []byte // 8 bytes
	DragonJet []byte

	SpiralProj []byte
	ShieldProj []byte
	TurboProj  []byte
}

// BuildTables compiles the palette tables from a specification file. A nil
// file compiles the built-in defaults.
func BuildTables(f *palette.File) (*Tables, error) {
	if f == nil {
		f = &palette.File{}
	}

	resolve := func(section map[string]palette.Entry, name string, fallback []string) ([]byte, error) {
		g, err := palette.ResolveGroup(section, name, fallback)
		if err != nil {
			return nil, fmt.Errorf("colorizer: palette %q: %w", name, err)
		}
		return palette.Compile([]palette.Group{g}), nil
	}

	t := &Tables{}

	var bg []palette.Group
	for _, name := range bgNames {
		g, err := palette.ResolveGroup(f.BG, name, bgDefault)
		if err != nil {
			return nil, fmt.Errorf("colorizer: palette %q: %w", name, err)
		}
		bg = append(bg, g)
	}
	t.BG = palette.Compile(bg)

	var obj []palette.Group
	for _, e := range objNames {
		g, err := palette.ResolveGroup(f.OBJ, e.name, e.fallback)
		if err != nil {
			return nil, fmt.Errorf("colorizer: palette %q: %w", e.name, err)
		}
		obj = append(obj, g)
	}
	t.OBJ = palette.Compile(obj)

	var boss []palette.Group
	for _, name := range bossNames {
		g, err := palette.ResolveGroup(f.Boss, name, bossDefault)
		if err != nil {
			return nil, fmt.Errorf("colorizer: palette %q: %w", name, err)
		}
		boss = append(boss, g)
		t.BossSlots = append(t.BossSlots, palette.ResolveSlot(f.Boss, name, defaultBossSlot))
	}
	t.BossPalettes = palette.Compile(boss)

	var err error
	if t.WitchJet, err = resolve(f.OBJ, jetNames[0].name, jetNames[0].fallback); err != nil {
		return nil, err
	}
	if t.DragonJet, err = resolve(f.OBJ, jetNames[1].name, jetNames[1].fallback); err != nil {
		return nil, err
	}
	if t.SpiralProj, err = resolve(f.Powerup, powerupNames[0].name, powerupNames[0].fallback); err != nil {
		return nil, err
	}
	if t.ShieldProj, err = resolve(f.Powerup, powerupNames[1].name, powerupNames[1].fallback); err != nil {
		return nil, err
	}
	if t.TurboProj, err = resolve(f.Powerup, powerupNames[2].name, powerupNames[2].fallback); err != nil {
		return nil, err
	}

	return t, nil
}
