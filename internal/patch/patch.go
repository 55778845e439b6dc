// Package patch turns a set of buffered region writes into a patched image.
// Writes accumulate against a pristine input image and are applied in one
// step to a copy; a failing write discards the copy and leaves the input
// untouched. The patched image is always exactly the size of the input.
package patch

import (
	"fmt"

	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
	"github.com/struktured-labs/penta-dragon-dx/pkg/log"
)

// Write is one pending region write.
type Write struct {
	Bank int
	Addr uint16
	Data []byte

	// Tag names the write in logs and errors.
	Tag string
}

// Writer accumulates writes against an image it never mutates.
type Writer struct {
	img    *rom.Image
	writes []Write
	log    log.Logger
}

// NewWriter returns a Writer over the given pristine image.
func NewWriter(img *rom.Image, l log.Logger) *Writer {
	if l == nil {
		l = log.NewNullLogger()
	}
	return &Writer{img: img, log: l}
}

// Add buffers a write. Nothing is validated until Apply; a bad write fails
// the whole application rather than partially patching the image.
func (w *Writer) Add(bank int, addr uint16, data []byte, tag string) {
	d := make([]byte, len(data))
	copy(d, data)
	w.writes = append(w.writes, Write{Bank: bank, Addr: addr, Data: d, Tag: tag})
	w.log.Debugf("buffered %d byte write %q at bank %d %04X", len(data), tag, bank, addr)
}

// Writes returns the buffered writes in the order they were added.
func (w *Writer) Writes() []Write {
	return w.writes
}

// Apply plays every buffered write against a copy of the input image and
// returns the copy. If any write fails, the copy is discarded and the input
// image is returned to the caller unchanged.
func (w *Writer) Apply() (*rom.Image, error) {
	out, err := rom.NewImage(w.img.Bytes())
	if err != nil {
		return nil, err
	}
	for _, wr := range w.writes {
		if err := out.Write(wr.Bank, wr.Addr, wr.Data); err != nil {
			return nil, fmt.Errorf("patch: applying %q: %w", wr.Tag, err)
		}
	}
	w.log.Infof("applied %d writes, image size %d bytes", len(w.writes), out.Len())
	return out, nil
}

// Record is one contiguous run of bytes that differ between the original and
// the patched image.
type Record struct {
	Offset   int
	Original []byte
	New      []byte
}

// Diff computes the sparse difference between two equally sized images.
func Diff(orig, patched []byte) ([]Record, error) {
	if len(orig) != len(patched) {
		return nil, fmt.Errorf("patch: diff of %d bytes against %d; patching never changes the image size", len(orig), len(patched))
	}
	var recs []Record
	for i := 0; i < len(orig); {
		if orig[i] == patched[i] {
			i++
			continue
		}
		start := i
		for i < len(orig) && orig[i] != patched[i] {
			i++
		}
		recs = append(recs, Record{
			Offset:   start,
			Original: append([]byte(nil), orig[start:i]...),
			New:      append([]byte(nil), patched[start:i]...),
		})
	}
	return recs, nil
}
