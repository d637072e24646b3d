// Package bits holds the small bit and nibble helpers used when decoding
// card bytes (class bytes, file descriptors, BCD identifiers).
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Set returns b with the n-th bit set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// HighNibble returns bits 8-5.
func HighNibble(b byte) byte {
	return b >> 4
}

// LowNibble returns bits 4-1.
func LowNibble(b byte) byte {
	return b & 0x0F
}

// SwappedBCD decodes nibble-swapped BCD as stored in EF_ICCID and EF_IMSI.
// Decoding stops at the first filler nibble (0xF).
func SwappedBCD(data []byte) string {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		for _, n := range [2]byte{LowNibble(b), HighNibble(b)} {
			if n > 9 {
				return string(out)
			}
			out = append(out, '0'+n)
		}
	}
	return string(out)
}
