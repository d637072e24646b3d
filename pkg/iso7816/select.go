package iso7816

import (
	"fmt"
)

// SELECT COMMAND LOGIC (ETSI TS 102 221 §11.1.1):
// The SELECT command (INS 'A4') makes an MF, DF, ADF or EF the current file.
//
// P1 (Selection Method): by file id, by DF name (AID), or by path.
// P2 (Selection Control): a UICC answers FCP ('04') or nothing ('0C').
//
// T=0: when a file id or path is sent the command is Case 3. Le is omitted and
// the card answers '61 XX', which the Client resolves with GET RESPONSE.

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

func (s SelectionMethod) String() string {
	switch s {
	case SelectByFileID:
		return "Select by File ID"
	case SelectChildDF:
		return "Select Child DF"
	case SelectParentDF:
		return "Select Parent DF"
	case SelectByDFName:
		return "Select by DF Name (AID)"
	case SelectPathFromMF:
		return "Select Path from MF"
	case SelectPathFromCurrentDF:
		return "Select Path from Current DF"
	default:
		return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
	}
}

// SelectionControl defines what data to return (P2).
type SelectionControl byte

const (
	ReturnFCP    SelectionControl = 0x04
	ReturnNoData SelectionControl = 0x0C
)

// Well known file identifiers (ETSI TS 102 221, 3GPP TS 31.102).
const (
	FID_MF     uint16 = 0x3F00
	FID_EF_DIR uint16 = 0x2F00
	FID_ICCID  uint16 = 0x2FE2
	FID_ADF    uint16 = 0x7FFF // current application, only valid as path element
	FID_IMSI   uint16 = 0x6F07
)

// NewSelectCommand creates a generic SELECT command.
func NewSelectCommand(cla Class, method SelectionMethod, ctrl SelectionControl, data []byte) *CommandAPDU {
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}

	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), byte(ctrl), data, ne)
}

// SelectByID selects a file by its identifier under the current DF and returns its FCP.
func SelectByID(cla Class, fid uint16) *CommandAPDU {
	return NewSelectCommand(cla, SelectByFileID, ReturnFCP, []byte{byte(fid >> 8), byte(fid)})
}

// SelectByPath selects a file by its path from the MF (MF id omitted) and returns its FCP.
func SelectByPath(cla Class, path []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectPathFromMF, ReturnFCP, path)
}

// SelectByAID activates an application by its AID.
func SelectByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, ReturnFCP, aid)
}

// Path encodes file identifiers as a SELECT path. A leading MF (3F00) is dropped, as
// SelectPathFromMF implies it.
func Path(fids ...uint16) []byte {
	out := make([]byte, 0, len(fids)*2)
	for i, fid := range fids {
		if i == 0 && fid == FID_MF {
			continue
		}
		out = append(out, byte(fid>>8), byte(fid))
	}
	return out
}
