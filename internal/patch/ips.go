package patch

import (
	"bytes"
	"fmt"
)

const (
	// ipsMaxOffset is the largest offset a 3-byte big-endian field can
	// carry.
	ipsMaxOffset = 0xFFFFFF

	// ipsMaxRun is the largest record payload a 2-byte size field can
	// carry.
	ipsMaxRun = 0xFFFF

	// ipsEOFOffset spells "EOF"; a record starting here is
	// indistinguishable from the trailer, so such records are widened to
	// start one byte earlier.
	ipsEOFOffset = 0x454F46
)

var (
	ipsHeader  = []byte("PATCH")
	ipsTrailer = []byte("EOF")
)

// EncodeIPS renders the difference between the original and patched images
// as an IPS patch: a "PATCH" header, records of 3-byte big-endian offset,
// 2-byte size and payload, and an "EOF" trailer.
func EncodeIPS(orig, patched []byte) ([]byte, error) {
	recs, err := Diff(orig, patched)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(ipsHeader)
	for _, r := range recs {
		off, data := r.Offset, r.New
		for len(data) > 0 {
			// a chunk starting at the trailer offset would read back
			// as "EOF"; widen it to start one byte earlier. This
			// applies to continuation chunks of a split run too, not
			// just a record's first chunk.
			if off == ipsEOFOffset {
				off--
				data = append([]byte{patched[off]}, data...)
			}
			n := len(data)
			if n > ipsMaxRun {
				n = ipsMaxRun
			}
			if off > ipsMaxOffset {
				return nil, fmt.Errorf("patch: record at offset %#x is beyond the 24-bit IPS offset range", off)
			}
			buf.Write([]byte{byte(off >> 16), byte(off >> 8), byte(off)})
			buf.Write([]byte{byte(n >> 8), byte(n)})
			buf.Write(data[:n])
			off += n
			data = data[n:]
		}
	}
	buf.Write(ipsTrailer)
	return buf.Bytes(), nil
}
