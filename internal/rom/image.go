// Package rom models a cartridge image as a flat byte buffer overlaid with
// the banked address space the hardware sees. Bank 0 is always mapped at
// 0x0000-0x3FFF; every other bank maps into the switchable window at
// 0x4000-0x7FFF and is selected at runtime by a write to the bank register.
package rom

import "fmt"

const (
	// BankSize is the size of a single ROM bank.
	BankSize = 0x4000

	// WindowBase is the address the switchable bank window is mapped at.
	WindowBase = 0x4000

	// BankRegister is the address written to select the mapped bank (MBC1).
	BankRegister = 0x2000
)

// OutOfBoundsError is returned when a read or write would fall outside the
// addressed bank or the image itself.
type OutOfBoundsError struct {
	Bank int
	Addr uint16
	Len  int
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("rom: access out of bounds: bank %d, address %04X, length %d", e.Bank, e.Addr, e.Len)
}

// Image is a fixed-size cartridge image. Bytes may be overwritten but the
// image is never resized.
type Image struct {
	data  []byte
	banks int
}

// NewImage wraps data in an Image. The image length must be a whole number
// of banks.
func NewImage(data []byte) (*Image, error) {
	if len(data) == 0 || len(data)%BankSize != 0 {
		return nil, fmt.Errorf("rom: image length %d is not a multiple of the %d byte bank size", len(data), BankSize)
	}
	return &Image{data: data, banks: len(data) / BankSize}, nil
}

// Banks returns the number of 16 KiB banks in the image.
func (i *Image) Banks() int {
	return i.banks
}

// Len returns the total image length in bytes.
func (i *Image) Len() int {
	return len(i.data)
}

// Bytes returns a copy of the underlying buffer.
func (i *Image) Bytes() []byte {
	b := make([]byte, len(i.data))
	copy(b, i.data)
	return b
}

// Offset translates a (bank, address) pair to a flat file offset. The home
// bank is addressed at 0x0000-0x3FFF, all other banks at 0x4000-0x7FFF.
func (i *Image) Offset(bank int, addr uint16) (int, error) {
	if bank < 0 || bank >= i.banks {
		return 0, OutOfBoundsError{Bank: bank, Addr: addr}
	}
	if bank == 0 {
		if addr >= WindowBase {
			return 0, OutOfBoundsError{Bank: bank, Addr: addr}
		}
		return int(addr), nil
	}
	if addr < WindowBase || addr >= WindowBase+BankSize {
		return 0, OutOfBoundsError{Bank: bank, Addr: addr}
	}
	return bank*BankSize + int(addr-WindowBase), nil
}

// Read returns n bytes starting at (bank, addr). The range must not cross
// the bank boundary.
func (i *Image) Read(bank int, addr uint16, n int) ([]byte, error) {
	off, err := i.offsetRange(bank, addr, n)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, i.data[off:off+n])
	return b, nil
}

// Write overwrites len(b) bytes starting at (bank, addr). The range must not
// cross the bank boundary. The image is mutated directly.
func (i *Image) Write(bank int, addr uint16, b []byte) error {
	off, err := i.offsetRange(bank, addr, len(b))
	if err != nil {
		return err
	}
	copy(i.data[off:off+len(b)], b)
	return nil
}

// ReadByte returns the single byte at (bank, addr).
func (i *Image) ReadByte(bank int, addr uint16) (uint8, error) {
	off, err := i.Offset(bank, addr)
	if err != nil {
		return 0, err
	}
	return i.data[off], nil
}

func (i *Image) offsetRange(bank int, addr uint16, n int) (int, error) {
	if n < 0 {
		return 0, OutOfBoundsError{Bank: bank, Addr: addr, Len: n}
	}
	off, err := i.Offset(bank, addr)
	if err != nil {
		return 0, err
	}
	// the whole range must stay inside the addressed bank
	bankEnd := (off/BankSize + 1) * BankSize
	if off+n > bankEnd || off+n > len(i.data) {
		return 0, OutOfBoundsError{Bank: bank, Addr: addr, Len: n}
	}
	return off, nil
}
