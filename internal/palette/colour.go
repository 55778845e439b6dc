// Package palette compiles human-authored palette specifications into the
// binary table format CGB palette RAM expects: 4 colours per palette, each
// colour a 15-bit BGR555 value packed into 2 little-endian bytes.
package palette

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed 15-bit BGR555 value: 5 bits per channel, blue in the
// high bits, red in the low bits. Bit 15 is unused and always zero.
type Color uint16

const channelMax = 0x1F

// RGB builds a Color from 5-bit channel values, clamping each at 31.
func RGB(r, g, b uint8) Color {
	return Color(uint16(clamp(b))<<10 | uint16(clamp(g))<<5 | uint16(clamp(r)))
}

func clamp(c uint8) uint8 {
	if c > channelMax {
		return channelMax
	}
	return c
}

// R returns the 5-bit red channel.
func (c Color) R() uint8 { return uint8(c) & channelMax }

// G returns the 5-bit green channel.
func (c Color) G() uint8 { return uint8(c>>5) & channelMax }

// B returns the 5-bit blue channel.
func (c Color) B() uint8 { return uint8(c>>10) & channelMax }

func (c Color) String() string {
	return fmt.Sprintf("%04X", uint16(c))
}

// Bytes returns the colour packed as 2 little-endian bytes, the order the
// hardware's palette data ports consume.
func (c Color) Bytes() [2]byte {
	return [2]byte{uint8(c), uint8(c >> 8)}
}

// UnknownColorNameError is returned when a colour entry is neither a known
// symbolic name nor a 4-digit packed hex value.
type UnknownColorNameError struct {
	Name string
}

func (e UnknownColorNameError) Error() string {
	return fmt.Sprintf("palette: unknown colour %q", e.Name)
}

// names maps symbolic colour names to packed BGR555 values.
var names = map[string]Color{
	"transparent": 0x0000, // colour 0 of an OBJ palette never draws
	"black":       0x0000,
	"white":       0x7FFF,
	"red":         0x001F,
	"green":       0x03E0,
	"blue":        0x7C00,
	"yellow":      0x03FF,
	"cyan":        0x7FE0,
	"magenta":     0x7C1F,
	"orange":      0x021F,
	"purple":      0x5C10,
	"gray":        0x4210,
	"grey":        0x4210,
	"gold":        0x02BF,
	"teal":        0x5EC0,
	"brown":       0x1171,
}

// scale multiplies every channel by num/den, clamping at the channel
// maximum.
func (c Color) scale(num, den uint16) Color {
	s := func(ch uint8) uint8 {
		v := uint16(ch) * num / den
		if v > channelMax {
			v = channelMax
		}
		return uint8(v)
	}
	return RGB(s(c.R()), s(c.G()), s(c.B()))
}

// Parse resolves a colour entry: either a symbolic name with an optional
// "light"/"dark" brightness modifier ("dark blue"), or an explicit packed
// value as 4 hex digits ("7FFF"). Bit 15 of explicit values is discarded.
func Parse(s string) (Color, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))

	switch len(fields) {
	case 1:
		if c, ok := names[fields[0]]; ok {
			return c, nil
		}
		// fall back to an explicit packed value
		if len(fields[0]) == 4 {
			if v, err := strconv.ParseUint(fields[0], 16, 16); err == nil {
				return Color(v & 0x7FFF), nil
			}
		}
	case 2:
		c, ok := names[fields[1]]
		if !ok {
			break
		}
		switch fields[0] {
		case "light":
			return c.scale(3, 2), nil
		case "dark":
			return c.scale(1, 2), nil
		}
	}

	return 0, UnknownColorNameError{Name: s}
}
