package colorizer

import (
	"fmt"

	"github.com/struktured-labs/penta-dragon-dx/internal/hook"
	"github.com/struktured-labs/penta-dragon-dx/internal/layout"
	"github.com/struktured-labs/penta-dragon-dx/internal/link"
	"github.com/struktured-labs/penta-dragon-dx/internal/palette"
	"github.com/struktured-labs/penta-dragon-dx/internal/patch"
	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
	"github.com/struktured-labs/penta-dragon-dx/pkg/log"
)

// Config carries the build inputs.
type Config struct {
	// Palettes is the parsed palette specification. Nil builds the
	// defaults.
	Palettes *palette.File

	// Table is the injection-site table for the target ROM. Nil uses
	// the Penta Dragon table.
	Table *hook.Table

	// Fill is the byte value treated as free space when locating the
	// payload. Nil uses 0xFF, the padding this cartridge ships with;
	// zero is a valid fill byte, not an unset one.
	Fill *uint8

	Logger log.Logger
}

// Result is a completed build.
type Result struct {
	// Image is the patched image. The input image is never modified.
	Image *rom.Image

	// Regions is every committed byte range, for reporting.
	Regions []layout.Region

	// Writes is every region write that was applied.
	Writes []patch.Write
}

// Build patches a verified image with the full colour payload: palette
// tables and routines in the payload bank, the VBlank trampoline, and the
// display compatibility patches, then marks the cartridge colour-capable.
func Build(img *rom.Image, cfg Config) (*Result, error) {
	l := cfg.Logger
	if l == nil {
		l = log.NewNullLogger()
	}
	fill := uint8(0xFF)
	if cfg.Fill != nil {
		fill = *cfg.Fill
	}

	tbl := PentaDragon()
	if cfg.Table != nil {
		tbl = *cfg.Table
	}
	if err := tbl.Verify(img); err != nil {
		return nil, err
	}

	vblank, err := tbl.Site("vblank-input")
	if err != nil {
		return nil, err
	}

	lay := Locate(img, fill, l)
	tabs, err := BuildTables(cfg.Palettes)
	if err != nil {
		return nil, err
	}

	pol := vblank.Policy

	// assemble the payload routines against the located layout
	loader, err := paletteLoader(lay, pol, offShadowMain-offLoader)
	if err != nil {
		return nil, fmt.Errorf("colorizer: palette loader: %w", err)
	}
	shadow, err := shadowMain(lay.Sprites(), lay.BossSlots(), pol, offSprites-offShadowMain)
	if err != nil {
		return nil, fmt.Errorf("colorizer: shadow driver: %w", err)
	}
	sprites, err := spriteColorizer(lay.Sprites(), pol, offTileLookup-offSprites)
	if err != nil {
		return nil, fmt.Errorf("colorizer: sprite classifier: %w", err)
	}
	bg, err := bgColorizer(lay.TileLookup(), pol, offCombined-offBGColorizer)
	if err != nil {
		return nil, fmt.Errorf("colorizer: background pass: %w", err)
	}
	entry, err := combined(lay, pol, payloadSpan-offCombined)
	if err != nil {
		return nil, fmt.Errorf("colorizer: entry point: %w", err)
	}
	lookup := TileLookup()

	// the trampoline: rewritten joypad poll, then the banked call
	poll, err := inputPoll(pol)
	if err != nil {
		return nil, fmt.Errorf("colorizer: input poll: %w", err)
	}
	stub, err := link.Link(link.Request{
		Site:        vblank,
		TargetBank:  Bank,
		TargetAddr:  lay.Combined(),
		RestoreBank: 1,
		Prelude:     poll,
	})
	if err != nil {
		return nil, err
	}

	// commit every region to the ledger before writing anything
	ledger := layout.NewLedger()
	writer := patch.NewWriter(img, l)
	add := func(bank int, addr uint16, data []byte, tag string) error {
		if _, err := ledger.Reserve(bank, addr, len(data), tag); err != nil {
			return err
		}
		writer.Add(bank, addr, data, tag)
		return nil
	}

	for _, w := range []struct {
		bank int
		addr uint16
		data []byte
		tag  string
	}{
		{Bank, lay.PaletteData(), tabs.BG, "bg palettes"},
		{Bank, lay.OBJData(), tabs.OBJ, "obj palettes"},
		{Bank, lay.BossPalettes(), tabs.BossPalettes, "boss palettes"},
		{Bank, lay.BossSlots(), tabs.BossSlots, "boss slots"},
		{Bank, lay.WitchJet(), tabs.WitchJet, "witch jet palette"},
		{Bank, lay.DragonJet(), tabs.DragonJet, "dragon jet palette"},
		{Bank, lay.SpiralProj(), tabs.SpiralProj, "spiral projectile palette"},
		{Bank, lay.ShieldProj(), tabs.ShieldProj, "shield projectile palette"},
		{Bank, lay.TurboProj(), tabs.TurboProj, "turbo projectile palette"},
		{Bank, lay.Loader(), loader, "palette loader"},
		{Bank, lay.ShadowMain(), shadow, "shadow oam driver"},
		{Bank, lay.Sprites(), sprites, "sprite classifier"},
		{Bank, lay.TileLookup(), lookup, "tile lookup"},
		{Bank, lay.BGColorizer(), bg, "background pass"},
		{Bank, lay.Combined(), entry, "combined entry"},
		{vblank.Bank, vblank.Addr, stub, "vblank trampoline"},
		{0, lcdOffAddr, make([]byte, len(lcdOffOriginal)), "lcd-off nops"},
		{0, hudRedrawAddr, make([]byte, hudRedrawLen), "hud-redraw nops"},
	} {
		if err := add(w.bank, w.addr, w.data, w.tag); err != nil {
			return nil, err
		}
	}

	out, err := writer.Apply()
	if err != nil {
		return nil, err
	}
	out.SetCGBFlag()

	l.Infof("payload at bank %d base %04X, %d regions committed", Bank, lay.Base, len(ledger.All()))

	return &Result{
		Image:   out,
		Regions: ledger.All(),
		Writes:  writer.Writes(),
	}, nil
}
