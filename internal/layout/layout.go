// Package layout tracks the byte ranges committed to generated code and data
// inside each bank. It is a bookkeeping ledger only: it never finds space and
// never writes bytes. Several routines and tables have to coexist in one
// small bank with no protection from the platform, so "did I already put
// something here" is a checked invariant rather than a silent bug.
package layout

import (
	"fmt"
	"sort"

	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
)

// Region is a committed byte range inside a bank. Regions are immutable once
// reserved.
type Region struct {
	Bank int
	Addr uint16
	Len  int
	Tag  string
}

// End returns the first address past the region.
func (r Region) End() uint16 {
	return r.Addr + uint16(r.Len)
}

func (r Region) overlaps(o Region) bool {
	return r.Bank == o.Bank && r.Addr < o.End() && o.Addr < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s (bank %d, %04X-%04X)", r.Tag, r.Bank, r.Addr, r.End())
}

// OverlapError reports a reservation that intersects an already committed
// region.
type OverlapError struct {
	New      Region
	Existing Region
}

func (e OverlapError) Error() string {
	return fmt.Sprintf("layout: %s overlaps committed region %s", e.New, e.Existing)
}

// Ledger records committed regions per bank.
type Ledger struct {
	regions []Region
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve commits a byte range. It fails with OverlapError if the range
// intersects any previously committed region in the same bank, regardless of
// insertion order.
func (l *Ledger) Reserve(bank int, addr uint16, length int, tag string) (Region, error) {
	if length <= 0 {
		return Region{}, fmt.Errorf("layout: region %q must have positive length, got %d", tag, length)
	}
	r := Region{Bank: bank, Addr: addr, Len: length, Tag: tag}
	for _, existing := range l.regions {
		if r.overlaps(existing) {
			return Region{}, OverlapError{New: r, Existing: existing}
		}
	}
	l.regions = append(l.regions, r)
	return r, nil
}

// Allocate finds the lowest run of at least minLen fill bytes in the bank
// that intersects no committed region, reserves it and returns it. Committed
// regions count as occupied even before their bytes are written; a
// reservation is a promise, not a write.
func (l *Ledger) Allocate(img *rom.Image, bank, minLen int, fill uint8, tag string) (Region, error) {
	if minLen <= 0 {
		return Region{}, fmt.Errorf("layout: region %q must have positive length, got %d", tag, minLen)
	}

	var base uint16
	if bank != 0 {
		base = rom.WindowBase
	}
	data, err := img.Read(bank, base, rom.BankSize)
	if err != nil {
		return Region{}, err
	}

	committed := l.Regions(bank)
	inCommitted := func(addr uint16) bool {
		for _, r := range committed {
			if addr >= r.Addr && addr < r.End() {
				return true
			}
		}
		return false
	}

	run := 0
	for off := 0; off < len(data); off++ {
		addr := base + uint16(off)
		if data[off] != fill || inCommitted(addr) {
			run = 0
			continue
		}
		run++
		if run == minLen {
			return l.Reserve(bank, addr-uint16(minLen)+1, minLen, tag)
		}
	}
	return Region{}, rom.NoSpaceError{Bank: bank, MinLen: minLen, Fill: fill}
}

// Regions returns the committed regions in the given bank, ordered by
// address.
func (l *Ledger) Regions(bank int) []Region {
	var out []Region
	for _, r := range l.regions {
		if r.Bank == bank {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// All returns every committed region, ordered by bank then address.
func (l *Ledger) All() []Region {
	out := make([]Region, len(l.regions))
	copy(out, l.regions)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		return out[i].Addr < out[j].Addr
	})
	return out
}
