package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

var hexSeparators = strings.NewReplacer(" ", "", ":", "", "\t", "", "\n", "")

// Hex builds a byte slice from hex fragments such as "00 A4 00 04" or "3F:00".
// It panics on malformed input and is meant for fixtures and constants.
func Hex(parts ...string) []byte {
	clean := hexSeparators.Replace(strings.Join(parts, ""))

	data, err := hex.DecodeString(clean)
	if err != nil {
		panic(fmt.Sprintf("invalid hex input '%s': %v", clean, err))
	}
	return data
}
