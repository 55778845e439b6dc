package rom

import "testing"

func TestParseHeader(t *testing.T) {
	img := testImage(t)

	h, err := img.ParseHeader()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Title != "PENTA DRAGON" {
		t.Errorf("expected title PENTA DRAGON, got %q", h.Title)
	}
	if h.CartridgeType != MBC1 {
		t.Errorf("expected cartridge type MBC1, got %02X", uint8(h.CartridgeType))
	}
	if h.ROMSize != 64*1024 {
		t.Errorf("expected 64kB ROM, got %d", h.ROMSize)
	}
	if h.GameboyColor() {
		t.Error("unpatched image should not declare colour support")
	}
}

func TestParseHeader_SizeMismatch(t *testing.T) {
	img := testImage(t)

	// lie about the ROM size: 128kB declared, 64kB on disk
	img.data[addrROMSize] = 0x02
	if _, err := img.ParseHeader(); err == nil {
		t.Error("expected error for header/image size disagreement")
	}
}

func TestSetCGBFlag(t *testing.T) {
	img := testImage(t)

	img.SetCGBFlag()

	h, err := img.ParseHeader()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.CartridgeGBMode != FlagSupportsCGB {
		t.Errorf("expected FlagSupportsCGB, got %v", h.CartridgeGBMode)
	}
	if !h.GameboyColor() {
		t.Error("expected colour support after patching")
	}

	// both checksums must still verify
	if img.data[addrHeaderChecksum] != img.ComputeHeaderChecksum() {
		t.Error("header checksum not fixed up after flag change")
	}
	g := img.ComputeGlobalChecksum()
	if img.data[addrGlobalChecksum] != uint8(g>>8) || img.data[addrGlobalChecksum+1] != uint8(g) {
		t.Error("global checksum not fixed up after flag change")
	}
}
