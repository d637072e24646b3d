package iso7816

import (
	"fmt"
)

// READ BINARY (INS 'B0'): P1-P2 carry a 15-bit offset into the current
// transparent EF. Le is the number of bytes to read.
//
// READ RECORD (INS 'B2'): P1 is the record number, P2 '04' selects absolute
// mode on the current EF. Le is the record length.
//
// VERIFY (INS '20') with an empty body does not present a PIN: the card answers
// 9000 when the PIN is verified or disabled, 63CX with the retries left
// otherwise, 6983 when blocked (ETSI TS 102 221 §11.1.9).

// PIN key references (ETSI TS 102 221 §9.5.1).
const (
	PINRefUniversal byte = 0x11
	PINRefApp1      byte = 0x01
	PINRefApp2      byte = 0x81
)

// ReadBinary reads length bytes at offset from the current transparent EF.
func ReadBinary(cla Class, offset uint16, length int) (*CommandAPDU, error) {
	if offset > 0x7FFF {
		return nil, fmt.Errorf("offset %d out of range (max 32767)", offset)
	}
	if length < 1 || length > MaxShortLe {
		return nil, fmt.Errorf("length %d out of range (1-%d)", length, MaxShortLe)
	}

	return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY), byte(offset>>8), byte(offset), nil, length), nil
}

// ReadRecord reads record number (1-254) of the current linear fixed or cyclic EF.
func ReadRecord(cla Class, number byte, length int) (*CommandAPDU, error) {
	if number == 0 || number == 0xFF {
		return nil, fmt.Errorf("record number %d out of range (1-254)", number)
	}
	if length < 1 || length > MaxShortLe {
		return nil, fmt.Errorf("record length %d out of range (1-%d)", length, MaxShortLe)
	}

	return NewCommandAPDU(cla, mustInstruction(INS_READ_RECORD), number, 0x04, nil, length), nil
}

// VerifyStatus builds the empty VERIFY used to query a PIN's state.
func VerifyStatus(cla Class, pinRef byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_VERIFY), 0x00, pinRef, nil, 0)
}
