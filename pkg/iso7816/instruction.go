package iso7816

import (
	"fmt"

	"github.com/gregLibert/modem-core/pkg/bits"
)

// Instruction Byte (INS) according to ISO/IEC 7816-4 and ETSI TS 102 221.
//
// Bit 1 of an interindustry INS marks the BER-TLV variant of a command
// (READ BINARY 0xB0 vs 0xB1). Values whose upper nibble is '6' or '9' are
// reserved for SW1 and transport procedures and are rejected.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes used against a UICC.
const (
	INS_SELECT            InsCode = 0xA4
	INS_STATUS            InsCode = 0xF2
	INS_READ_BINARY       InsCode = 0xB0
	INS_READ_RECORD       InsCode = 0xB2
	INS_UPDATE_BINARY     InsCode = 0xD6
	INS_UPDATE_RECORD     InsCode = 0xDC
	INS_SEARCH_RECORD     InsCode = 0xA2
	INS_VERIFY            InsCode = 0x20
	INS_CHANGE_PIN        InsCode = 0x24
	INS_DISABLE_PIN       InsCode = 0x26
	INS_ENABLE_PIN        InsCode = 0x28
	INS_UNBLOCK_PIN       InsCode = 0x2C
	INS_AUTHENTICATE      InsCode = 0x88
	INS_MANAGE_CHANNEL    InsCode = 0x70
	INS_GET_RESPONSE      InsCode = 0xC0
	INS_TERMINAL_PROFILE  InsCode = 0x10
	INS_ENVELOPE          InsCode = 0xC2
	INS_FETCH             InsCode = 0x12
	INS_TERMINAL_RESPONSE InsCode = 0x14
)

var insNames = map[InsCode]string{
	INS_SELECT:            "SELECT",
	INS_STATUS:            "STATUS",
	INS_READ_BINARY:       "READ BINARY",
	INS_READ_RECORD:       "READ RECORD",
	INS_UPDATE_BINARY:     "UPDATE BINARY",
	INS_UPDATE_RECORD:     "UPDATE RECORD",
	INS_SEARCH_RECORD:     "SEARCH RECORD",
	INS_VERIFY:            "VERIFY PIN",
	INS_CHANGE_PIN:        "CHANGE PIN",
	INS_DISABLE_PIN:       "DISABLE PIN",
	INS_ENABLE_PIN:        "ENABLE PIN",
	INS_UNBLOCK_PIN:       "UNBLOCK PIN",
	INS_AUTHENTICATE:      "AUTHENTICATE",
	INS_MANAGE_CHANNEL:    "MANAGE CHANNEL",
	INS_GET_RESPONSE:      "GET RESPONSE",
	INS_TERMINAL_PROFILE:  "TERMINAL PROFILE",
	INS_ENVELOPE:          "ENVELOPE",
	INS_FETCH:             "FETCH",
	INS_TERMINAL_RESPONSE: "TERMINAL RESPONSE",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS(0x%02X)", byte(i))
}

// Instruction represents the parsed instruction byte.
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction, rejecting the reserved '6X' and '9X' values.
func NewInstruction(ins InsCode) (Instruction, error) {
	high := bits.HighNibble(byte(ins))
	if high == 0x6 || high == 0x9 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// mustInstruction is used for the package's own constants, which are all valid.
func mustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}
