// Package hook describes the fixed injection sites in the original program.
// Sites are hand-derived through prior analysis and supplied as
// configuration; nothing here discovers hook points. Each site records the
// bytes expected at the hook address so a wrong or already-patched ROM is
// rejected before anything is written.
package hook

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/struktured-labs/penta-dragon-dx/internal/asm"
	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
)

// Mode selects how a site's original instructions are composed with the new
// routine. Choosing wrong is silent at build time and shows up only as
// runtime corruption, so the choice is an explicit per-site enum, never a
// heuristic.
type Mode uint8

const (
	// InlineMerge re-executes the original instructions inside the stub
	// itself. Required when relocating the overwritten code and calling
	// it by address was observed to corrupt implicit processor or timing
	// state the original depended on.
	InlineMerge Mode = iota

	// CallThrough jumps on to the region's natural successor after the
	// far call, leaving the original side effects to the new routine.
	CallThrough
)

func (m Mode) String() string {
	switch m {
	case InlineMerge:
		return "inline-merge"
	case CallThrough:
		return "call-through"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Site is a single fixed-size injection site.
type Site struct {
	Name string
	Bank int
	Addr uint16

	// Original is the byte sequence expected at the site. The stub
	// overwriting it must be exactly this long. May be nil when only the
	// region's length is known; Verify then checks nothing for the site.
	Original []byte

	// Size is the hole length for sites whose original bytes were never
	// recorded. Ignored when Original is set.
	Size int

	Mode Mode

	// Policy is the opcode allow-list for code generated into or called
	// from this site. Empirically derived and almost certainly
	// incomplete; treat as caller configuration, not ground truth.
	Policy asm.Policy

	// MaxSize bounds routines this site dispatches to, where the real
	// constraint is the per-frame cycle budget rather than bytes.
	MaxSize int
}

// Len returns the size of the hole the site's stub must exactly fill.
func (s Site) Len() int {
	if len(s.Original) > 0 {
		return len(s.Original)
	}
	return s.Size
}

// Table is the full set of injection sites for one target ROM.
type Table struct {
	// Title is the cartridge title the table was derived against.
	Title string

	// Hash is the xxhash of the pristine target image. Zero skips the
	// identity check (synthetic images in tests).
	Hash uint64

	Sites []Site
}

// Site returns the named site.
func (t Table) Site(name string) (Site, error) {
	for _, s := range t.Sites {
		if s.Name == name {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("hook: no site named %q", name)
}

// Verify checks the image is the ROM this table was derived for: the
// cartridge title and identity hash match and every site still holds its
// expected original bytes. An already-patched or mismatched image fails
// here, before any write.
func (t Table) Verify(img *rom.Image) error {
	if t.Title != "" {
		h, err := img.ParseHeader()
		if err != nil {
			return fmt.Errorf("hook: %w", err)
		}
		if h.Title != t.Title {
			return fmt.Errorf("hook: cartridge title %q does not match the table's target %q", h.Title, t.Title)
		}
	}
	if t.Hash != 0 {
		if h := xxhash.Sum64(img.Bytes()); h != t.Hash {
			return fmt.Errorf("hook: image hash %016x does not match the table's target %016x", h, t.Hash)
		}
	}
	for _, s := range t.Sites {
		if len(s.Original) == 0 {
			continue
		}
		got, err := img.Read(s.Bank, s.Addr, s.Len())
		if err != nil {
			return fmt.Errorf("hook: site %q: %w", s.Name, err)
		}
		if !bytes.Equal(got, s.Original) {
			return fmt.Errorf("hook: site %q at bank %d %04X does not hold the expected original bytes", s.Name, s.Bank, s.Addr)
		}
	}
	return nil
}
