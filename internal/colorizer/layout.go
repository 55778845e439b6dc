// Package colorizer generates the colour payload for Penta Dragon: palette
// tables, the OAM and tilemap classification routines that select palettes
// per sprite and per background tile, and the VBlank stub that drives them.
// All code targets one switchable bank and runs inside the VBlank window the
// original program already spends on its frame bookkeeping.
package colorizer

import (
	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
	"github.com/struktured-labs/penta-dragon-dx/pkg/log"
)

// Bank is the switchable bank holding all generated data and code. Bank 13
// is unused by the original program past 0x6800.
const Bank = 13

// baseAddr is the canonical start of the payload in the mapped window, used
// when no free run can be located by scanning.
const baseAddr = 0x6800

// Payload offsets relative to the base. Data first, then code; the tile
// lookup must sit on a 256-byte boundary because the classifier forms its
// address by replacing L with the tile index.
const (
	offPaletteData  = 0x000 // BG 64 bytes, then OBJ 64 bytes
	offBossPalettes = 0x080 // 8 bosses x 8 bytes
	offBossSlots    = 0x0C0 // 8 slot bytes
	offWitchJet     = 0x0D0
	offDragonJet    = 0x0D8
	offSpiralProj   = 0x0E0
	offShieldProj   = 0x0E8
	offTurboProj    = 0x0F0
	offLoader       = 0x100
	offShadowMain   = 0x1D0
	offSprites      = 0x210
	offTileLookup   = 0x300
	offBGColorizer  = 0x400
	offCombined     = 0x500

	// payloadSpan covers everything from the palette data to the end of
	// the combined entry's region.
	payloadSpan = 0x510
)

// Layout pins the payload to a concrete base address.
type Layout struct {
	Base uint16
}

func (l Layout) PaletteData() uint16  { return l.Base + offPaletteData }
func (l Layout) OBJData() uint16      { return l.Base + offPaletteData + 64 }
func (l Layout) BossPalettes() uint16 { return l.Base + offBossPalettes }
func (l Layout) BossSlots() uint16    { return l.Base + offBossSlots }
func (l Layout) WitchJet() uint16     { return l.Base + offWitchJet }
func (l Layout) DragonJet() uint16    { return l.Base + offDragonJet }
func (l Layout) SpiralProj() uint16   { return l.Base + offSpiralProj }
func (l Layout) ShieldProj() uint16   { return l.Base + offShieldProj }
func (l Layout) TurboProj() uint16    { return l.Base + offTurboProj }
func (l Layout) Loader() uint16       { return l.Base + offLoader }
func (l Layout) ShadowMain() uint16   { return l.Base + offShadowMain }
func (l Layout) Sprites() uint16      { return l.Base + offSprites }
func (l Layout) TileLookup() uint16   { return l.Base + offTileLookup }
func (l Layout) BGColorizer() uint16  { return l.Base + offBGColorizer }
func (l Layout) Combined() uint16     { return l.Base + offCombined }

// Locate finds a home for the payload by scanning the bank for a free run,
// falling back to the canonical base when the scan finds nothing. The base
// is aligned up to a 256-byte boundary for the tile lookup.
func Locate(img *rom.Image, fill uint8, l log.Logger) Layout {
	if l == nil {
		l = log.NewNullLogger()
	}
	addr, err := img.FindFreeRun(Bank, payloadSpan+0xFF, fill)
	if err != nil {
		l.Debugf("no free run of %d bytes in bank %d, using canonical base %04X", payloadSpan, Bank, baseAddr)
		return Layout{Base: baseAddr}
	}
	aligned := (addr + 0xFF) &^ 0xFF
	l.Debugf("payload base %04X (free run at %04X)", aligned, addr)
	return Layout{Base: aligned}
}
