package patch

import (
	"bytes"
	"testing"

	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
)

func testImage(t *testing.T, banks int) *rom.Image {
	t.Helper()
	img, err := rom.NewImage(make([]byte, banks*rom.BankSize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return img
}

func TestWriter_Apply(t *testing.T) {
	img := testImage(t, 2)
	w := NewWriter(img, nil)
	w.Add(0, 0x0824, []byte{0x3E, 0x0D}, "vblank hook")
	w.Add(1, 0x6800, []byte{0xFF, 0x7F}, "palette data")

	out, err := w.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != img.Len() {
		t.Errorf("patched image size %d, input %d", out.Len(), img.Len())
	}
	got, _ := out.Read(1, 0x6800, 2)
	if !bytes.Equal(got, []byte{0xFF, 0x7F}) {
		t.Errorf("write not applied: % X", got)
	}

	// the input image is never mutated
	orig, _ := img.Read(0, 0x0824, 2)
	if !bytes.Equal(orig, []byte{0x00, 0x00}) {
		t.Errorf("input image mutated: % X", orig)
	}
}

func TestWriter_ApplyAtomic(t *testing.T) {
	img := testImage(t, 2)
	w := NewWriter(img, nil)
	w.Add(0, 0x0100, []byte{0x01}, "good")
	w.Add(1, 0x7FFF, []byte{0x02, 0x03}, "crosses bank end")

	if _, err := w.Apply(); err == nil {
		t.Fatal("expected the out-of-bounds write to fail the application")
	}
	// nothing from the batch lands, not even the valid write
	got, _ := img.Read(0, 0x0100, 1)
	if got[0] != 0x00 {
		t.Errorf("input image mutated by a failed apply: %02X", got[0])
	}
}

func TestDiff(t *testing.T) {
	orig := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	patched := []byte{0x00, 0xAA, 0xBB, 0x33, 0x44, 0xCC, 0x66}

	recs, err := Diff(orig, patched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Offset != 1 || !bytes.Equal(recs[0].New, []byte{0xAA, 0xBB}) {
		t.Errorf("unexpected first record: %+v", recs[0])
	}
	if !bytes.Equal(recs[0].Original, []byte{0x11, 0x22}) {
		t.Errorf("unexpected original bytes: % X", recs[0].Original)
	}
	if recs[1].Offset != 5 || !bytes.Equal(recs[1].New, []byte{0xCC}) {
		t.Errorf("unexpected second record: %+v", recs[1])
	}
}

func TestDiff_SizeMismatch(t *testing.T) {
	if _, err := Diff([]byte{0x00}, []byte{0x00, 0x01}); err == nil {
		t.Error("expected error for mismatched image sizes")
	}
}

func TestDiff_Identical(t *testing.T) {
	recs, err := Diff([]byte{1, 2, 3}, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

// decodeIPS applies an IPS patch to a copy of orig.
func decodeIPS(t *testing.T, ips, orig []byte) []byte {
	t.Helper()
	if !bytes.HasPrefix(ips, []byte("PATCH")) {
		t.Fatal("missing PATCH header")
	}
	out := append([]byte(nil), orig...)
	p := ips[5:]
	for {
		if bytes.Equal(p[:3], []byte("EOF")) {
			if len(p) != 3 {
				t.Fatal("trailing bytes after EOF")
			}
			return out
		}
		off := int(p[0])<<16 | int(p[1])<<8 | int(p[2])
		n := int(p[3])<<8 | int(p[4])
		copy(out[off:], p[5:5+n])
		p = p[5+n:]
	}
}

func TestEncodeIPS_RoundTrip(t *testing.T) {
	orig := make([]byte, 2*rom.BankSize)
	patched := append([]byte(nil), orig...)
	copy(patched[0x0824:], []byte{0x3E, 0x0D, 0xEA, 0x00, 0x20})
	copy(patched[0x6800:], []byte{0xFF, 0x7F, 0x1F, 0x00})
	patched[len(patched)-1] = 0x42

	ips, err := EncodeIPS(orig, patched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decodeIPS(t, ips, orig); !bytes.Equal(got, patched) {
		t.Error("applying the encoded patch does not reproduce the patched image")
	}
}

func TestEncodeIPS_SplitsLongRuns(t *testing.T) {
	orig := make([]byte, 5*rom.BankSize)
	patched := append([]byte(nil), orig...)
	for i := 0x100; i < 0x100+0x12000; i++ {
		patched[i] = 0x55
	}

	ips, err := EncodeIPS(orig, patched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decodeIPS(t, ips, orig); !bytes.Equal(got, patched) {
		t.Error("applying the encoded patch does not reproduce the patched image")
	}
}

func TestEncodeIPS_EOFOffsetCollisionMidRun(t *testing.T) {
	// a run longer than one chunk whose continuation chunk lands exactly
	// on the trailer offset; the widening must apply there too
	orig := make([]byte, 0x480000)
	patched := append([]byte(nil), orig...)
	start := ipsEOFOffset - ipsMaxRun
	for i := start; i < ipsEOFOffset+16; i++ {
		patched[i] = 0x55
	}

	ips, err := EncodeIPS(orig, patched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decodeIPS(t, ips, orig); !bytes.Equal(got, patched) {
		t.Error("applying the encoded patch does not reproduce the patched image")
	}
}

func TestEncodeIPS_EOFOffsetCollision(t *testing.T) {
	// a record at 0x454F46 would read as the trailer; it must be widened
	// to start a byte earlier
	size := 0x480000
	orig := make([]byte, size)
	patched := append([]byte(nil), orig...)
	patched[0x454F46] = 0x99

	ips, err := EncodeIPS(orig, patched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decodeIPS(t, ips, orig); !bytes.Equal(got, patched) {
		t.Error("applying the encoded patch does not reproduce the patched image")
	}
}
