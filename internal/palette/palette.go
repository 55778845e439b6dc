package palette

import "fmt"

// ColorsPerGroup is the number of colours in one hardware palette.
const ColorsPerGroup = 4

// GroupSize is the encoded size of one palette group.
const GroupSize = ColorsPerGroup * 2

// Group is one named hardware palette: exactly 4 colours.
type Group struct {
	Name   string
	Colors [ColorsPerGroup]Color
}

// ParseGroup resolves 4 colour entries into a named group.
func ParseGroup(name string, entries []string) (Group, error) {
	if len(entries) != ColorsPerGroup {
		return Group{}, fmt.Errorf("palette: group %q must have %d colours, got %d", name, ColorsPerGroup, len(entries))
	}
	g := Group{Name: name}
	for i, e := range entries {
		c, err := Parse(e)
		if err != nil {
			return Group{}, fmt.Errorf("palette: group %q: %w", name, err)
		}
		g.Colors[i] = c
	}
	return g, nil
}

// Compile encodes groups in input order, 8 bytes per group: 4 colours of 2
// little-endian bytes each. The output feeds the generated loader routine
// directly, so its length must match exactly what the loader copies.
func Compile(groups []Group) []byte {
	out := make([]byte, 0, len(groups)*GroupSize)
	for _, g := range groups {
		for _, c := range g.Colors {
			b := c.Bytes()
			out = append(out, b[0], b[1])
		}
	}
	return out
}

// Decode is the inverse of Compile for round-trip checks. The byte length
// must be a whole number of groups.
func Decode(data []byte) ([]Group, error) {
	if len(data)%GroupSize != 0 {
		return nil, fmt.Errorf("palette: table length %d is not a multiple of the %d byte group size", len(data), GroupSize)
	}
	groups := make([]Group, len(data)/GroupSize)
	for i := range groups {
		for j := 0; j < ColorsPerGroup; j++ {
			off := i*GroupSize + j*2
			groups[i].Colors[j] = Color(uint16(data[off]) | uint16(data[off+1])<<8)
		}
	}
	return groups, nil
}
