package iso7816

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/gregLibert/modem-core/pkg/tlv"
)

func TestSelectCommands(t *testing.T) {
	cls, _ := UICCClass(0)

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name:     "Select EF_DIR by ID",
			cmd:      SelectByID(cls, FID_EF_DIR),
			expected: tlv.Hex("00 A4 00 04", "02", "2F 00"),
		},
		{
			name:     "Select EF_IMSI by path through ADF",
			cmd:      SelectByPath(cls, Path(FID_MF, FID_ADF, FID_IMSI)),
			expected: tlv.Hex("00 A4 08 04", "04", "7F FF 6F 07"),
		},
		{
			name:     "Select USIM by AID",
			cmd:      SelectByAID(cls, tlv.Hex("A0000000871002")),
			expected: tlv.Hex("00 A4 04 04", "07", "A0 00 00 00 87 10 02"),
		},
		{
			name:     "Select MF without data requests 256 bytes",
			cmd:      NewSelectCommand(cls, SelectByFileID, ReturnFCP, nil),
			expected: tlv.Hex("00 A4 00 04", "00"),
		},
		{
			name:     "No data control omits Le",
			cmd:      NewSelectCommand(cls, SelectByFileID, ReturnNoData, nil),
			expected: tlv.Hex("00 A4 00 0C"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Mismatch:\nExpected: %s\nGot:      %s",
					hex.EncodeToString(tt.expected),
					hex.EncodeToString(got))
			}
		})
	}
}

func TestSelectionMethod_String(t *testing.T) {
	if got := SelectByDFName.String(); got != "Select by DF Name (AID)" {
		t.Errorf("String() = %q", got)
	}
	if got := SelectionMethod(0x42).String(); got != "Unknown Method (0x42)" {
		t.Errorf("String() = %q", got)
	}
}
