package colorizer

// Background palette numbers by role. Derived from VRAM captures of the
// first level: the row pattern is border, wall edge, floor checkerboard,
// platform, wall, border.
const (
	palFloor = 0 // floor, platforms, void, UI
	palItems = 1 // pickups
	palWalls = 6 // wall edges and interiors, structure
)

// TileLookup builds the 256-byte tile index to background palette table the
// tilemap classifier indexes by tile ID.
func TileLookup() []byte {
	lookup := make([]byte, 256)
	for i := 0; i < 256; i++ {
		var p byte
		switch {
		case i <= 0x12: // floor checkerboard and variants
			p = palFloor
		case i <= 0x23: // wall edges and corners
			p = palWalls
		case i == 0x24 || i == 0x25: // platform top edge, floor-adjacent
			p = palFloor
		case i <= 0x27: // wall structure
			p = palWalls
		case i <= 0x30: // platform body and bottom edge
			p = palFloor
		case i <= 0x34: // wall-adjacent structure
			p = palWalls
		case i == 0x35: // platform bottom edge
			p = palFloor
		case i <= 0x7F: // wall interiors: doors, windows, columns
			p = palWalls
		case i <= 0x87: // UI area, unused during gameplay
			p = palFloor
		case i <= 0xDF: // item pickups
			p = palItems
		case i <= 0xFD: // decorative structure
			p = palWalls
		default: // 0xFE/0xFF void and border
			p = palFloor
		}
		lookup[i] = p
	}
	return lookup
}
