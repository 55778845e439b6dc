package hook

import (
	"strings"
	"testing"

	"github.com/cespare/xxhash"
	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
)

func testTable(img *rom.Image) Table {
	return Table{
		Title: "TEST",
		Hash:  xxhash.Sum64(img.Bytes()),
		Sites: []Site{
			{Name: "vblank", Bank: 0, Addr: 0x0824, Original: []byte{0xCD, 0x00, 0x28}, Mode: InlineMerge},
		},
	}
}

func testImage(t *testing.T) *rom.Image {
	t.Helper()
	img, err := rom.NewImage(make([]byte, 2*rom.BankSize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := img.Write(0, 0x0134, []byte("TEST")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := img.Write(0, 0x0824, []byte{0xCD, 0x00, 0x28}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return img
}

func TestTable_Verify(t *testing.T) {
	img := testImage(t)
	tbl := testTable(img)

	if err := tbl.Verify(img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTable_VerifyHashMismatch(t *testing.T) {
	img := testImage(t)
	tbl := testTable(img)

	// mutate a byte: the identity hash no longer matches
	if err := img.Write(1, 0x4000, []byte{0x01}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.Verify(img); err == nil {
		t.Error("expected hash mismatch to be rejected")
	}
}

func TestTable_VerifyTitleMismatch(t *testing.T) {
	img := testImage(t)

	// a table derived for another cartridge, carrying only a length-only
	// site: the title is the last line of defence
	tbl := Table{
		Title: "PENTA DRAGON",
		Sites: []Site{
			{Name: "vblank", Bank: 0, Addr: 0x0824, Size: 44, Mode: InlineMerge},
		},
	}
	err := tbl.Verify(img)
	if err == nil {
		t.Fatal("expected an image with the wrong cartridge title to be rejected")
	}
	if !strings.Contains(err.Error(), "TEST") || !strings.Contains(err.Error(), "PENTA DRAGON") {
		t.Errorf("error should name both titles: %v", err)
	}
}

func TestTable_VerifyPatchedSite(t *testing.T) {
	img := testImage(t)
	tbl := testTable(img)
	tbl.Hash = 0 // skip identity, exercise the per-site check

	// clobber the site as an earlier patch run would have
	if err := img.Write(0, 0x0824, []byte{0x00, 0x00, 0x00}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := tbl.Verify(img)
	if err == nil {
		t.Fatal("expected already-patched site to be rejected")
	}
	if !strings.Contains(err.Error(), "vblank") {
		t.Errorf("error should name the failing site: %v", err)
	}
}

func TestTable_Site(t *testing.T) {
	tbl := testTable(testImage(t))

	s, err := tbl.Site("vblank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("expected site length 3, got %d", s.Len())
	}
	if s.Mode != InlineMerge {
		t.Errorf("expected inline-merge, got %v", s.Mode)
	}

	if _, err := tbl.Site("missing"); err == nil {
		t.Error("expected error for unknown site")
	}
}
