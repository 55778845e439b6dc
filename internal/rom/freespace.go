package rom

import "fmt"

// NoSpaceError is returned when a bank holds no padding run long enough for
// a requested allocation. There is no compaction fallback: the image cannot
// be reorganised without breaking address references, so the caller must
// pick a different bank or shrink the request.
type NoSpaceError struct {
	Bank   int
	MinLen int
	Fill   uint8
}

func (e NoSpaceError) Error() string {
	return fmt.Sprintf("rom: no free run of %d or more 0x%02X bytes in bank %d", e.MinLen, e.Fill, e.Bank)
}

// FindFreeRun scans a bank linearly for the first run of at least minLen
// bytes equal to fill, and returns the bank-local address of the run.
// First-fit, lowest address wins; placement here is static data and code,
// not a hot path.
func (i *Image) FindFreeRun(bank, minLen int, fill uint8) (uint16, error) {
	if minLen <= 0 {
		return 0, fmt.Errorf("rom: free run length must be positive, got %d", minLen)
	}
	if bank < 0 || bank >= i.banks {
		return 0, OutOfBoundsError{Bank: bank}
	}

	base := bank * BankSize
	run := 0
	for off := 0; off < BankSize; off++ {
		if i.data[base+off] != fill {
			run = 0
			continue
		}
		run++
		if run == minLen {
			start := off - minLen + 1
			if bank == 0 {
				return uint16(start), nil
			}
			return WindowBase + uint16(start), nil
		}
	}
	return 0, NoSpaceError{Bank: bank, MinLen: minLen, Fill: fill}
}
