package palette

import (
	"bytes"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"transparent", 0x0000},
		{"white", 0x7FFF},
		{"red", 0x001F},
		{"green", 0x03E0},
		{"blue", 0x7C00},
		{"Blue", 0x7C00}, // names are case-insensitive
		{"7FFF", 0x7FFF},
		{"03e0", 0x03E0},
		{"FFFF", 0x7FFF}, // bit 15 of explicit values is discarded
		{"dark red", 0x000F},
		{"dark blue", 0x3C00},
		{"dark white", RGB(15, 15, 15)},
		{"light white", 0x7FFF}, // already at channel maximum, clamps
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %04X, got %04X", uint16(tt.want), uint16(got))
			}
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, in := range []string{"chartreuse", "light chartreuse", "7FFG", "7FFFF", "", "dark"} {
		_, err := Parse(in)
		var ue UnknownColorNameError
		if !errors.As(err, &ue) {
			t.Errorf("Parse(%q): expected UnknownColorNameError, got %v", in, err)
		}
	}
}

func TestParse_LightScalesChannels(t *testing.T) {
	base, _ := Parse("dark gray") // 8, 8, 8
	light, _ := Parse("light gray")
	mid, _ := Parse("gray") // 16, 16, 16

	if base.R() >= mid.R() || mid.R() >= light.R() {
		t.Errorf("brightness ordering broken: dark=%d base=%d light=%d", base.R(), mid.R(), light.R())
	}
}

func TestCompile_BasicTable(t *testing.T) {
	g, err := ParseGroup("Dungeon", []string{"transparent", "red", "green", "blue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Compile([]Group{g})
	// each colour as its packed little-endian value, high bit zero, in order
	want := []byte{
		0x00, 0x00, // transparent
		0x1F, 0x00, // red
		0xE0, 0x03, // green
		0x00, 0x7C, // blue
	}
	if !bytes.Equal(got, want) {
		t.Errorf("expected % X, got % X", want, got)
	}
}

func TestCompile_Size(t *testing.T) {
	entries := []string{"white", "gray", "dark gray", "black"}
	var groups []Group
	for i := 0; i < 8; i++ {
		g, err := ParseGroup("g", entries)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		groups = append(groups, g)
	}

	for n := 0; n <= 8; n++ {
		if got := len(Compile(groups[:n])); got != GroupSize*n {
			t.Errorf("%d groups: expected %d bytes, got %d", n, GroupSize*n, got)
		}
	}
}

func TestCompile_RoundTrip(t *testing.T) {
	g1, _ := ParseGroup("a", []string{"7FFF", "5294", "2108", "0000"})
	g2, _ := ParseGroup("b", []string{"0000", "7C1F", "5817", "3010"})
	in := []Group{g1, g2}

	out, err := Decode(Compile(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d groups, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Colors != in[i].Colors {
			t.Errorf("group %d: expected %v, got %v", i, in[i].Colors, out[i].Colors)
		}
	}

	if _, err := Decode([]byte{0x00, 0x01, 0x02}); err == nil {
		t.Error("expected error for a partial group")
	}
}

func TestParseGroup_WrongCount(t *testing.T) {
	if _, err := ParseGroup("short", []string{"red", "green"}); err == nil {
		t.Error("expected error for group with fewer than 4 colours")
	}
	if _, err := ParseGroup("bad", []string{"red", "green", "blue", "mauve"}); err == nil {
		t.Error("expected error for unknown colour in group")
	}
}

func TestLoadSpec(t *testing.T) {
	src := []byte(`
bg_palettes:
  Dungeon:
    colors: ["7FFF", "5294", "2108", "0000"]
obj_palettes:
  SaraWitch:
    colors: ["0000", "2EBE", "511F", "0842"]
boss_palettes:
  Gargoyle:
    colors: ["0000", "02BF", "0155", "0000"]
    slot: 6
`)
	f, err := Load(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, err := ResolveGroup(f.BG, "Dungeon", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Colors[0] != 0x7FFF || g.Colors[3] != 0x0000 {
		t.Errorf("unexpected colours: %v", g.Colors)
	}

	// missing groups fall back to the supplied defaults
	g, err = ResolveGroup(f.BG, "BG5", []string{"7FFF", "5294", "2108", "0000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Colors[1] != 0x5294 {
		t.Errorf("fallback not applied: %v", g.Colors)
	}

	if slot := ResolveSlot(f.Boss, "Gargoyle", 3); slot != 6 {
		t.Errorf("expected slot 6, got %d", slot)
	}
	if slot := ResolveSlot(f.Boss, "Spider", 3); slot != 3 {
		t.Errorf("expected fallback slot 3, got %d", slot)
	}
}
