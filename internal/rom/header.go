package rom

import "fmt"

// Header field offsets within the image. The header occupies 0x0100-0x014F
// of the home bank.
const (
	addrTitle          = 0x0134
	addrCGBFlag        = 0x0143
	addrCartridgeType  = 0x0147
	addrROMSize        = 0x0148
	addrRAMSize        = 0x0149
	addrMaskROMVersion = 0x014C
	addrHeaderChecksum = 0x014D
	addrGlobalChecksum = 0x014E

	// CGBSupported marks a cartridge as colour-capable while remaining
	// playable on a DMG. 0xC0 would make it colour-only.
	CGBSupported = 0x80
)

// Flag describes the hardware a cartridge declares support for.
type Flag uint8

const (
	FlagOnlyDMG Flag = iota
	FlagSupportsCGB
	FlagOnlyCGB
)

// Type identifies the memory bank controller wired into the cartridge.
type Type uint8

const (
	ROM         Type = 0x00
	MBC1        Type = 0x01
	MBC1RAM     Type = 0x02
	MBC1RAMBATT Type = 0x03
	MBC2        Type = 0x05
	MBC2BATT    Type = 0x06
	MBC3        Type = 0x11
	MBC3RAM     Type = 0x12
	MBC3RAMBATT Type = 0x13
	MBC5        Type = 0x19
	MBC5RAM     Type = 0x1A
	MBC5RAMBATT Type = 0x1B
)

// Header represents the cartridge header located at 0x0100-0x014F. The
// patcher only consumes the fields needed to compute the addressable bank
// range and to flip the colour-support flag; the rest is carried for
// reporting.
type Header struct {
	Title           string
	CartridgeGBMode Flag
	CartridgeType   Type
	ROMSize         uint
	RAMSizeCode     uint8
	MaskROMVersion  uint8
	HeaderChecksum  uint8
	GlobalChecksum  uint16
}

// ParseHeader reads the cartridge header out of the image.
func (i *Image) ParseHeader() (Header, error) {
	if len(i.data) < 0x150 {
		return Header{}, fmt.Errorf("rom: image too small to contain a header: %d bytes", len(i.data))
	}

	h := Header{}

	// parse the mode of the cartridge
	switch i.data[addrCGBFlag] {
	case 0x80:
		h.CartridgeGBMode = FlagSupportsCGB
	case 0xC0:
		h.CartridgeGBMode = FlagOnlyCGB
	default:
		h.CartridgeGBMode = FlagOnlyDMG
	}

	// parse the title, stripping trailing padding
	title := i.data[addrTitle : addrTitle+16]
	end := len(title)
	for end > 0 && (title[end-1] == 0x00 || title[end-1] == 0x20) {
		end--
	}
	h.Title = string(title[:end])

	h.CartridgeType = Type(i.data[addrCartridgeType])

	// ROM size is 32kB x (1 << n)
	h.ROMSize = (32 * 1024) * (1 << i.data[addrROMSize])
	h.RAMSizeCode = i.data[addrRAMSize]
	h.MaskROMVersion = i.data[addrMaskROMVersion]
	h.HeaderChecksum = i.data[addrHeaderChecksum]
	h.GlobalChecksum = uint16(i.data[addrGlobalChecksum])<<8 | uint16(i.data[addrGlobalChecksum+1])

	// the declared size must agree with the file, or the bank range the
	// header implies is a lie
	if int(h.ROMSize) != len(i.data) {
		return h, fmt.Errorf("rom: header declares %d bytes but image is %d bytes", h.ROMSize, len(i.data))
	}

	return h, nil
}

// GameboyColor reports whether the cartridge declares any colour support.
func (h Header) GameboyColor() bool {
	return h.CartridgeGBMode == FlagOnlyCGB || h.CartridgeGBMode == FlagSupportsCGB
}

func (h Header) String() string {
	return fmt.Sprintf("%s | Type: %02X | ROM Size: %dkB | v%d", h.Title, uint8(h.CartridgeType), h.ROMSize/1024, h.MaskROMVersion)
}

// ComputeHeaderChecksum computes the header checksum over 0x0134-0x014C,
// the value the boot ROM verifies against 0x014D.
func (i *Image) ComputeHeaderChecksum() uint8 {
	var x uint8
	for off := addrTitle; off < addrHeaderChecksum; off++ {
		x = x - i.data[off] - 1
	}
	return x
}

// ComputeGlobalChecksum computes the 16-bit sum of every byte in the image
// except the two global checksum bytes themselves.
func (i *Image) ComputeGlobalChecksum() uint16 {
	var x uint16
	for off, b := range i.data {
		if off == addrGlobalChecksum || off == addrGlobalChecksum+1 {
			continue
		}
		x += uint16(b)
	}
	return x
}

// SetCGBFlag marks the cartridge as colour-capable and fixes up both
// checksums so the patched image still passes the boot ROM check.
func (i *Image) SetCGBFlag() {
	i.data[addrCGBFlag] = CGBSupported
	i.data[addrHeaderChecksum] = i.ComputeHeaderChecksum()
	g := i.ComputeGlobalChecksum()
	i.data[addrGlobalChecksum] = uint8(g >> 8)
	i.data[addrGlobalChecksum+1] = uint8(g)
}
