package colorizer

import (
	"github.com/struktured-labs/penta-dragon-dx/internal/asm"
	"github.com/struktured-labs/penta-dragon-dx/internal/hook"
)

// vblankPolicy is the opcode allow-list for code generated into or reached
// from the VBlank hook. Built from what the shipped routines actually use
// and what was observed to run safely there; an instruction missing from
// the list is "never tried", not "known unsafe".
var vblankPolicy = asm.Allow(
	asm.OpRaw, asm.OpNop,
	asm.OpLoadImm, asm.OpLoadImm16, asm.OpLoadReg, asm.OpLoadMem, asm.OpStoreMem,
	asm.OpStoreAbs, asm.OpLoadHigh, asm.OpStoreHigh,
	asm.OpCompare, asm.OpSub, asm.OpAndImm, asm.OpOrReg, asm.OpOrImm,
	asm.OpXorReg, asm.OpAddImm, asm.OpAddReg, asm.OpAddHL,
	asm.OpInc, asm.OpDec, asm.OpCpl, asm.OpSwap,
	asm.OpJumpRel, asm.OpJumpAbs, asm.OpCall, asm.OpRet,
	asm.OpPush, asm.OpPop,
)

// Hook site holes in the home bank.
const (
	// vblankHookAddr is the joypad poll inside the VBlank handler. The
	// whole 44-byte routine is overwritten: a compact poll followed by
	// the banked call. Dispatching the poll through the far call instead
	// drops inputs, so the site is inline-merged.
	vblankHookAddr = 0x0824
	vblankHookLen  = 44

	// lcdOffAddr is the LCD-disable sequence inside the VBlank wait.
	// Turning the LCD off corrupts the attribute data in VRAM bank 1 on
	// colour hardware, so the six bytes become NOPs.
	lcdOffAddr = 0x0073

	// hudRedrawAddr is a three-byte write in the HUD refresh that
	// restores attribute defaults behind the classifier's back.
	hudRedrawAddr = 0x06D5
	hudRedrawLen  = 3
)

var lcdOffOriginal = []byte{0xF0, 0x40, 0xE6, 0x7F, 0xE0, 0x40}

// PentaDragon is the injection-site table for the Japanese Penta Dragon
// cartridge, derived by tracing that ROM. The VBlank and HUD holes are
// recorded by length only; their original bytes were never captured.
func PentaDragon() hook.Table {
	return hook.Table{
		Title: "PENTA DRAGON",
		Sites: []hook.Site{
			{
				Name:    "vblank-input",
				Bank:    0,
				Addr:    vblankHookAddr,
				Size:    vblankHookLen,
				Mode:    hook.InlineMerge,
				Policy:  vblankPolicy,
				MaxSize: 256,
			},
			{
				Name:     "lcd-off",
				Bank:     0,
				Addr:     lcdOffAddr,
				Original: lcdOffOriginal,
				Mode:     hook.InlineMerge,
			},
			{
				Name: "hud-redraw",
				Bank: 0,
				Addr: hudRedrawAddr,
				Size: hudRedrawLen,
				Mode: hook.InlineMerge,
			},
		},
	}
}
