package colorizer

import (
	"fmt"

	"github.com/struktured-labs/penta-dragon-dx/internal/asm"
)

// IO registers, as offsets from 0xFF00.
const (
	regJoypad = 0x00
	regStat   = 0x41
	regVBK    = 0x4F
	regBCPS   = 0x68
	regBCPD   = 0x69
	regOCPS   = 0x6A
	regOCPD   = 0x6B
)

// High-RAM state the original program maintains, as offsets from 0xFF00.
// Derived from tracing, not from any symbol table.
const (
	hramInput      = 0x93 // latched joypad state the game logic reads
	hramMode       = 0xBE // zero during the witch stages
	hramBossIndex  = 0xBF // zero when no boss is active, else boss number + 1
	hramPowerup    = 0xC0 // active powerup: 0 none, 1 spiral, 2 shield, 3 turbo
	hramGameplay   = 0xC1 // zero on menus and title screens
	hramForm       = 0xD0 // player form: 1 while transformed into the dragon
	hramRowCounter = 0xE0 // tilemap row cursor for the background pass
)

// autoIncrement in BCPS/OCPS advances the palette RAM index after each data
// write.
const autoIncrement = 0x80

// shadowOAM is where the game composes sprites before DMA. Two buffers,
// alternating per frame; the attribute byte of the first sprite is at +3.
const (
	shadowOAMEven = 0xC003
	shadowOAMOdd  = 0xC103
	spriteCount   = 40
)

// copyToPaletteRAM emits a C-counted copy loop from [HL] into a palette data
// port. The label carries a sequence number so one routine can hold several
// loops.
func copyToPaletteRAM(b *asm.Block, port uint8, count uint8, seq int) {
	label := fmt.Sprintf("copy%d", seq)
	b.LoadImm(asm.C, count)
	b.Label(label)
	b.LoadHLInc()
	b.StoreHigh(port)
	b.Dec(asm.C)
	b.JumpRel(asm.IfNZ, label)
}

// paletteLoader builds the routine that refreshes all of palette RAM every
// frame. BG palettes copy straight through; OBJ palette 0 is chosen by the
// active powerup, palettes 1 and 2 switch to jet variants while the player
// is in dragon form, and an active boss overwrites one OBJ slot from the
// boss table.
func paletteLoader(l Layout, pol asm.Policy, maxSize int) ([]byte, error) {
	b := asm.NewBlock()

	// D = player form for the jet checks below
	b.LoadHigh(hramForm)
	b.LoadReg(asm.D, asm.A)

	// BG palettes, all 64 bytes
	b.LoadHL(l.PaletteData())
	b.LoadImm(asm.A, autoIncrement)
	b.StoreHigh(regBCPS)
	copyToPaletteRAM(b, regBCPD, 64, 0)

	// OBJ palette 0: powerup projectile colours win over the default
	b.LoadImm(asm.A, autoIncrement)
	b.StoreHigh(regOCPS)
	b.LoadHigh(hramPowerup)
	b.Or(asm.A)
	b.JumpRel(asm.IfZ, "obj0Default")
	b.Compare(1)
	b.JumpRel(asm.IfNZ, "notSpiral")
	b.LoadHL(l.SpiralProj())
	b.JumpRel(asm.Always, "obj0Copy")
	b.Label("notSpiral")
	b.Compare(2)
	b.JumpRel(asm.IfNZ, "notShield")
	b.LoadHL(l.ShieldProj())
	b.JumpRel(asm.Always, "obj0Copy")
	b.Label("notShield")
	b.LoadHL(l.TurboProj())
	b.JumpRel(asm.Always, "obj0Copy")
	b.Label("obj0Default")
	b.LoadHL(l.OBJData())
	b.Label("obj0Copy")
	copyToPaletteRAM(b, regOCPD, 8, 1)

	// OBJ palette 1: dragon, or its jet variant while transformed
	b.LoadImm(asm.A, autoIncrement|0x08)
	b.StoreHigh(regOCPS)
	b.LoadHL(l.OBJData() + 8)
	b.LoadReg(asm.A, asm.D)
	b.Compare(1)
	b.JumpRel(asm.IfNZ, "pal1Copy")
	b.LoadHL(l.DragonJet())
	b.Label("pal1Copy")
	copyToPaletteRAM(b, regOCPD, 8, 2)

	// OBJ palette 2: witch, same arrangement
	b.LoadImm(asm.A, autoIncrement|0x10)
	b.StoreHigh(regOCPS)
	b.LoadHL(l.OBJData() + 16)
	b.LoadReg(asm.A, asm.D)
	b.Compare(1)
	b.JumpRel(asm.IfNZ, "pal2Copy")
	b.LoadHL(l.WitchJet())
	b.Label("pal2Copy")
	copyToPaletteRAM(b, regOCPD, 8, 3)

	// OBJ palettes 3-5 in one run
	b.LoadImm(asm.A, autoIncrement|0x18)
	b.StoreHigh(regOCPS)
	b.LoadHL(l.OBJData() + 24)
	copyToPaletteRAM(b, regOCPD, 24, 4)

	// OBJ palette 6
	b.LoadImm(asm.A, autoIncrement|0x30)
	b.StoreHigh(regOCPS)
	b.LoadHL(l.OBJData() + 48)
	copyToPaletteRAM(b, regOCPD, 8, 5)

	// OBJ palette 7
	b.LoadImm(asm.A, autoIncrement|0x38)
	b.StoreHigh(regOCPS)
	b.LoadHL(l.OBJData() + 56)
	copyToPaletteRAM(b, regOCPD, 8, 6)

	// boss override: slot table picks the OBJ palette to replace, the
	// boss table supplies its colours
	b.LoadHigh(hramBossIndex)
	b.Or(asm.A)
	b.JumpRel(asm.IfZ, "noBoss")
	b.Dec(asm.A)
	b.LoadReg(asm.E, asm.A)

	b.LoadReg(asm.C, asm.A)
	b.LoadImm(asm.B, 0)
	b.LoadHL(l.BossSlots())
	b.AddHL(asm.BC)
	b.LoadMem(asm.A)

	// OCPS = slot*8 | auto-increment
	b.Add(asm.A)
	b.Add(asm.A)
	b.Add(asm.A)
	b.OrImm(autoIncrement)
	b.StoreHigh(regOCPS)

	b.LoadReg(asm.A, asm.E)
	b.Add(asm.A)
	b.Add(asm.A)
	b.Add(asm.A)
	b.LoadReg(asm.C, asm.A)
	b.LoadImm(asm.B, 0)
	b.LoadHL(l.BossPalettes())
	b.AddHL(asm.BC)
	copyToPaletteRAM(b, regOCPD, 8, 7)

	b.Label("noBoss")
	b.Ret(asm.Always)

	return b.Assemble(asm.WithPolicy(pol), asm.WithMaxSize(maxSize))
}

// shadowMain builds the driver that rewrites sprite attributes in both
// shadow OAM buffers before the game's DMA. It loads D with the player
// palette for the stage and E with the boss palette slot, then runs the
// classifier over each buffer.
func shadowMain(sprites, bossSlots uint16, pol asm.Policy, maxSize int) ([]byte, error) {
	b := asm.NewBlock()

	b.Push(asm.AF)
	b.Push(asm.BC)
	b.Push(asm.DE)
	b.Push(asm.HL)

	// D = player palette: witch stages use OBJ palette 2, dragon stages
	// palette 1
	b.LoadHigh(hramMode)
	b.Or(asm.A)
	b.JumpRel(asm.IfNZ, "dragonStage")
	b.LoadImm(asm.D, 2)
	b.JumpRel(asm.Always, "formDone")
	b.Label("dragonStage")
	b.LoadImm(asm.D, 1)
	b.Label("formDone")

	// E = boss slot from the table, or 0 when no boss is active
	b.LoadHigh(hramBossIndex)
	b.Or(asm.A)
	b.JumpRel(asm.IfZ, "noBoss")
	b.Dec(asm.A)
	b.LoadReg(asm.C, asm.A)
	b.LoadImm(asm.B, 0)
	b.LoadHL(bossSlots)
	b.AddHL(asm.BC)
	b.LoadMem(asm.E)
	b.JumpRel(asm.Always, "bossDone")
	b.Label("noBoss")
	b.LoadImm(asm.E, 0)
	b.Label("bossDone")

	b.LoadHL(shadowOAMEven)
	b.Call(sprites)
	b.LoadHL(shadowOAMOdd)
	b.Call(sprites)

	b.Pop(asm.HL)
	b.Pop(asm.DE)
	b.Pop(asm.BC)
	b.Pop(asm.AF)
	b.Ret(asm.Always)

	return b.Assemble(asm.WithPolicy(pol), asm.WithMaxSize(maxSize))
}

// spriteColorizer builds the per-sprite classifier. HL enters pointing at
// the attribute byte of sprite 0; D carries the player palette and E the
// boss slot. Palettes are assigned by tile index range, with the first four
// sprites always treated as the player.
func spriteColorizer(base uint16, pol asm.Policy, maxSize int) ([]byte, error) {
	b := asm.NewBlock()

	b.LoadImm(asm.B, spriteCount)
	b.Label("sprite")

	// sprites 0-3 are the player regardless of tile
	b.LoadImm(asm.A, spriteCount)
	b.Sub(asm.B)
	b.Compare(4)
	b.JumpRel(asm.IfC, "player")

	// C = tile index, one byte before the attribute
	b.DecHL()
	b.LoadMem(asm.A)
	b.IncHL()
	b.LoadReg(asm.C, asm.A)

	b.Compare(0x10)
	b.JumpRel(asm.IfNC, "high")

	// low tiles are projectiles: the witch shot, the three dragon shot
	// frames, everything below 0x02 the enemy shot
	b.Compare(0x0F)
	b.JumpRel(asm.IfZ, "playerShot")
	b.Compare(0x06)
	b.JumpRel(asm.IfZ, "playerShot")
	b.Compare(0x09)
	b.JumpRel(asm.IfZ, "playerShot")
	b.Compare(0x0A)
	b.JumpRel(asm.IfZ, "playerShot")
	b.Compare(0x02)
	b.JumpRel(asm.IfC, "enemyShot")
	b.LoadImm(asm.A, 0)
	b.JumpRel(asm.Always, "apply")

	b.Label("high")
	b.Compare(0x20)
	b.JumpRel(asm.IfNC, "checkPlayerTiles")
	b.LoadImm(asm.A, 4)
	b.JumpRel(asm.Always, "apply")

	b.Label("checkPlayerTiles")
	b.Compare(0x30)
	b.JumpRel(asm.IfC, "player")

	// 0x30 and up: monsters. An active boss owns the whole range.
	b.LoadReg(asm.A, asm.E)
	b.Or(asm.A)
	b.JumpRel(asm.IfNZ, "boss")

	b.LoadReg(asm.A, asm.C)
	b.Compare(0x50)
	b.JumpRel(asm.IfC, "crowOrHornet")
	b.Compare(0x60)
	b.JumpRel(asm.IfC, "orc")
	b.Compare(0x70)
	b.JumpRel(asm.IfC, "humanoid")
	b.Compare(0x80)
	b.JumpRel(asm.IfC, "catfish")
	b.LoadImm(asm.A, 4)
	b.JumpRel(asm.Always, "apply")

	b.Label("crowOrHornet")
	b.LoadReg(asm.A, asm.C)
	b.Compare(0x40)
	b.JumpRel(asm.IfNC, "hornet")
	b.LoadImm(asm.A, 3)
	b.JumpRel(asm.Always, "apply")

	b.Label("playerShot")
	b.LoadImm(asm.A, 0)
	b.JumpRel(asm.Always, "apply")
	b.Label("enemyShot")
	b.LoadImm(asm.A, 3)
	b.JumpRel(asm.Always, "apply")
	b.Label("hornet")
	b.LoadImm(asm.A, 4)
	b.JumpRel(asm.Always, "apply")
	b.Label("orc")
	b.LoadImm(asm.A, 5)
	b.JumpRel(asm.Always, "apply")
	b.Label("humanoid")
	b.LoadImm(asm.A, 6)
	b.JumpRel(asm.Always, "apply")
	b.Label("catfish")
	b.LoadImm(asm.A, 7)
	b.JumpRel(asm.Always, "apply")

	b.Label("player")
	b.LoadReg(asm.A, asm.D)
	b.JumpRel(asm.Always, "apply")
	b.Label("boss")
	b.LoadReg(asm.A, asm.E)

	// rewrite the low three attribute bits, preserving flip and priority
	b.Label("apply")
	b.LoadReg(asm.C, asm.A)
	b.LoadMem(asm.A)
	b.AndImm(0xF8)
	b.Or(asm.C)
	b.StoreMem(asm.A)

	b.IncHL()
	b.IncHL()
	b.IncHL()
	b.IncHL()
	b.Dec(asm.B)
	b.Jump(asm.IfNZ, "sprite")
	b.Ret(asm.Always)

	return b.Assemble(asm.WithBase(base), asm.WithPolicy(pol), asm.WithMaxSize(maxSize))
}

// statWait emits a loop spinning until the LCD leaves mode 3. VRAM reads
// return 0xFF and writes are dropped during mode 3; every VRAM access below
// is gated on this.
func statWait(b *asm.Block, seq int) {
	label := fmt.Sprintf("stat%d", seq)
	b.Label(label)
	b.LoadHigh(regStat)
	b.AndImm(0x03)
	b.Compare(0x03)
	b.JumpRel(asm.IfZ, label)
}

// bgColorizer builds the continuous tilemap pass: two rows per call, row
// cursor in high RAM wrapping at 32, palette per tile from the lookup
// table. Attributes go to both tilemaps because the game double-buffers
// between 0x9800 and 0x9C00. Skips entirely outside gameplay.
func bgColorizer(lookup uint16, pol asm.Policy, maxSize int) ([]byte, error) {
	if lookup&0x00FF != 0 {
		return nil, fmt.Errorf("colorizer: tile lookup at %04X is not 256-byte aligned", lookup)
	}

	b := asm.NewBlock()

	b.LoadHigh(hramGameplay)
	b.Or(asm.A)
	b.Ret(asm.IfZ)

	b.Push(asm.BC)
	b.Push(asm.DE)
	b.Push(asm.HL)

	b.LoadImm(asm.C, 2) // rows per call
	b.Label("row")

	// HL = 0x9800 + row*32. The add goes through H because C holds the
	// row loop counter.
	b.LoadHigh(hramRowCounter)
	b.LoadReg(asm.L, asm.A)
	b.LoadImm(asm.H, 0)
	b.AddHL(asm.HL)
	b.AddHL(asm.HL)
	b.AddHL(asm.HL)
	b.AddHL(asm.HL)
	b.AddHL(asm.HL)
	b.LoadReg(asm.A, asm.H)
	b.AddImm(0x98)
	b.LoadReg(asm.H, asm.A)

	b.LoadImm(asm.B, 32) // tiles per row
	b.Label("tile")

	// tile index from VRAM bank 0
	b.Xor(asm.A)
	b.StoreHigh(regVBK)
	statWait(b, 0)
	b.LoadMem(asm.D)

	// palette from the lookup table; the table is page-aligned so the
	// tile index becomes the low address byte
	b.Push(asm.HL)
	b.LoadImm(asm.H, uint8(lookup>>8))
	b.LoadReg(asm.A, asm.D)
	b.LoadReg(asm.L, asm.A)
	b.LoadMem(asm.E)
	b.Pop(asm.HL)

	// attribute into VRAM bank 1, both tilemaps
	b.LoadImm(asm.A, 1)
	b.StoreHigh(regVBK)
	statWait(b, 1)
	b.StoreMem(asm.E)

	b.Push(asm.HL)
	b.LoadReg(asm.A, asm.H)
	b.AddImm(0x04) // 0x98xx -> 0x9Cxx
	b.LoadReg(asm.H, asm.A)
	statWait(b, 2)
	b.StoreMem(asm.E)
	b.Pop(asm.HL)

	b.IncHL()
	b.Dec(asm.B)
	b.JumpRel(asm.IfNZ, "tile")

	// advance the row cursor, wrapping at 32
	b.LoadHigh(hramRowCounter)
	b.Inc(asm.A)
	b.AndImm(0x1F)
	b.StoreHigh(hramRowCounter)

	b.Dec(asm.C)
	b.JumpRel(asm.IfNZ, "row")

	b.Xor(asm.A)
	b.StoreHigh(regVBK)
	b.Pop(asm.HL)
	b.Pop(asm.DE)
	b.Pop(asm.BC)
	b.Ret(asm.Always)

	return b.Assemble(asm.WithPolicy(pol), asm.WithMaxSize(maxSize))
}

// combined builds the single entry point the VBlank stub calls: palettes,
// sprite attributes, background pass, then the game's OAM DMA routine in
// high RAM.
func combined(l Layout, pol asm.Policy, maxSize int) ([]byte, error) {
	b := asm.NewBlock()
	b.Call(l.Loader())
	b.Call(l.ShadowMain())
	b.Call(l.BGColorizer())
	b.Call(0xFF80)
	b.Ret(asm.Always)
	return b.Assemble(asm.WithPolicy(pol), asm.WithMaxSize(maxSize))
}

// inputPoll builds the joypad poll that stands in for the original code
// overwritten at the VBlank hook. Reads both matrix halves, merges the
// inverted nibbles and stores the latched state where the game logic
// expects it.
func inputPoll(pol asm.Policy) ([]byte, error) {
	b := asm.NewBlock()

	// direction keys into the high nibble of B
	b.LoadImm(asm.A, 0x20)
	b.StoreHigh(regJoypad)
	b.LoadHigh(regJoypad)
	b.Cpl()
	b.AndImm(0x0F)
	b.Swap(asm.A)
	b.LoadReg(asm.B, asm.A)

	// action buttons, double-read to settle the matrix
	b.LoadImm(asm.A, 0x10)
	b.StoreHigh(regJoypad)
	b.LoadHigh(regJoypad)
	b.LoadHigh(regJoypad)
	b.Cpl()
	b.AndImm(0x0F)
	b.Or(asm.B)
	b.StoreHigh(hramInput)

	// release the matrix
	b.LoadImm(asm.A, 0x30)
	b.StoreHigh(regJoypad)

	return b.Assemble(asm.WithPolicy(pol))
}
