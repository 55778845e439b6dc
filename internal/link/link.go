// Package link emits the redirection stubs that splice new code into the
// original program. A stub overwrites a fixed-size region of original code,
// switches the bank register to the bank holding the new routine, calls it,
// restores the bank the original program expects, and then re-joins the
// original control flow. The stub must fill its hole exactly: the image
// cannot grow, and the surrounding code cannot be relocated.
package link

import (
	"fmt"

	"github.com/struktured-labs/penta-dragon-dx/internal/asm"
	"github.com/struktured-labs/penta-dragon-dx/internal/hook"
	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
)

// SizeMismatchError reports a stub that cannot fit the hole it must fill.
// Stubs are never truncated or allowed to spill into adjacent code.
type SizeMismatchError struct {
	Site string
	Need int
	Have int
}

func (e SizeMismatchError) Error() string {
	return fmt.Sprintf("link: stub for site %q needs %d bytes but the hole is %d bytes", e.Site, e.Need, e.Have)
}

// Request describes one trampoline to emit.
type Request struct {
	Site hook.Site

	// TargetBank and TargetAddr locate the routine the stub dispatches
	// to.
	TargetBank int
	TargetAddr uint16

	// RestoreBank is the bank register value the original program relies
	// on being mapped when the stub returns. The caller's bank context
	// never survives a switch implicitly; the stub restores it
	// explicitly.
	RestoreBank uint8

	// Keep is the number of leading original bytes re-executed inline
	// before the far call, for inline-merge sites. The overwritten
	// region held the program's only copy of these instructions, and
	// calling them relocated was observed to corrupt state they depend
	// on; they run verbatim from their original addresses instead.
	Keep int

	// Prelude is pre-assembled replacement code run ahead of the far
	// call, standing in for the overwritten instructions when a
	// hand-written equivalent is used instead of the verbatim originals.
	// Mutually exclusive with Keep.
	Prelude []byte

	// Successor is where a call-through stub re-joins the original
	// program. Zero means the hole's natural fall-through.
	Successor uint16

	// PreserveAF wraps the stub in PUSH AF / POP AF for call sites whose
	// surrounding code still needs the accumulator afterwards.
	PreserveAF bool
}

// Link emits the stub for one site. The result is always exactly
// req.Site.Len() bytes, NOP-padded if shorter; a stub that comes out longer
// fails with SizeMismatchError.
func Link(req Request) ([]byte, error) {
	s := req.Site
	if req.Keep > len(s.Original) {
		return nil, fmt.Errorf("link: site %q re-executes %d bytes but only %d original bytes are recorded", s.Name, req.Keep, len(s.Original))
	}
	if req.Keep > 0 && len(req.Prelude) > 0 {
		return nil, fmt.Errorf("link: site %q declares both re-executed originals and a prelude", s.Name)
	}
	if s.Mode == hook.CallThrough && (req.Keep > 0 || len(req.Prelude) > 0) {
		return nil, fmt.Errorf("link: site %q is call-through; it cannot also run merged code", s.Name)
	}

	b := asm.NewBlock()

	if req.PreserveAF {
		b.Push(asm.AF)
	}

	// inline-merge: the original instructions, or their hand-written
	// stand-in, run first from the original location
	if s.Mode == hook.InlineMerge {
		switch {
		case req.Keep > 0:
			b.Raw(s.Original[:req.Keep]...)
		case len(req.Prelude) > 0:
			b.Raw(req.Prelude...)
		}
	}

	// switch to the bank holding the new code, call it, switch back
	b.LoadImm(asm.A, uint8(req.TargetBank))
	b.StoreAbs(rom.BankRegister)
	b.Call(req.TargetAddr)
	b.LoadImm(asm.A, req.RestoreBank)
	b.StoreAbs(rom.BankRegister)

	if req.PreserveAF {
		b.Pop(asm.AF)
	}

	tail := 0
	switch {
	case s.Mode == hook.CallThrough && req.Successor != 0:
		tail = 3 // JP successor is emitted last, after the padding
	case s.Mode == hook.CallThrough:
		// natural fall-through: padding NOPs carry execution to the
		// instruction after the hole
	default:
		b.Ret(asm.Always)
	}

	if b.Len()+tail > s.Len() {
		return nil, SizeMismatchError{Site: s.Name, Need: b.Len() + tail, Have: s.Len()}
	}
	for b.Len()+tail < s.Len() {
		b.Nop()
	}
	if tail > 0 {
		b.JumpAddr(asm.Always, req.Successor)
	}

	var opts []asm.AssembleOpt
	if s.Policy != nil {
		opts = append(opts, asm.WithPolicy(s.Policy))
	}
	stub, err := b.Assemble(opts...)
	if err != nil {
		return nil, fmt.Errorf("link: site %q: %w", s.Name, err)
	}
	if len(stub) != s.Len() {
		return nil, SizeMismatchError{Site: s.Name, Need: len(stub), Have: s.Len()}
	}
	return stub, nil
}
