package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/modem-core/pkg/bits"
	"github.com/gregLibert/modem-core/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// FILE CONTROL PARAMETERS (ETSI TS 102 221 §11.1.1.3):
// A SELECT with P2 = '04' answers an FCP template (tag '62').
//
// File descriptor (tag '82'):
//   - byte 1: bits 3-1 give the EF structure (1 transparent, 2 linear fixed,
//     6 cyclic); '38' marks a DF or ADF.
//   - byte 2: data coding byte ('21').
//   - bytes 3-4: record length (record EFs only).
//   - byte 5: number of records (record EFs only).

// FileStructure is the EF structure carried by the file descriptor.
type FileStructure int

const (
	StructureUnknown FileStructure = iota
	StructureTransparent
	StructureLinearFixed
	StructureCyclic
	StructureDF
)

func (s FileStructure) String() string {
	switch s {
	case StructureTransparent:
		return "transparent"
	case StructureLinearFixed:
		return "linear fixed"
	case StructureCyclic:
		return "cyclic"
	case StructureDF:
		return "DF"
	default:
		return "unknown"
	}
}

// LifeCycle is the life cycle status integer (tag '8A') of a file.
type LifeCycle byte

// UnmarshalTLV implements tlv.Unmarshaler. The value is exactly one byte.
func (l *LifeCycle) UnmarshalTLV(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("life cycle status must be 1 byte, got %d", len(data))
	}
	*l = LifeCycle(data[0])
	return nil
}

// Operational reports an activated or deactivated file ('000001xx').
func (l LifeCycle) Operational() bool {
	return bits.GetRange(byte(l), 8, 3) == 1
}

// Activated reports an operational file that accepts commands.
func (l LifeCycle) Activated() bool {
	return l.Operational() && bits.IsSet(byte(l), 1)
}

// Terminated reports a file in the termination state ('000011xx').
func (l LifeCycle) Terminated() bool {
	return bits.GetRange(byte(l), 8, 3) == 3
}

func (l LifeCycle) String() string {
	switch {
	case l == 0:
		return "no information"
	case l == 1:
		return "creation"
	case l == 3:
		return "initialisation"
	case l.Activated():
		return "operational activated"
	case l.Operational():
		return "operational deactivated"
	case l.Terminated():
		return "terminated"
	default:
		return fmt.Sprintf("proprietary (0x%02X)", byte(l))
	}
}

// Usable reports whether the file can be read. A missing status counts as usable.
func (l LifeCycle) Usable() bool {
	return l == 0 || l.Activated()
}

// FCP holds the parsed File Control Parameters of the selected file.
type FCP struct {
	Descriptor      []byte       `tlv:"82"`
	FileID          []byte       `tlv:"83"`
	DFName          []byte       `tlv:"84"`
	Proprietary     []byte       `tlv:"A5"`
	LifeCycle       LifeCycle    `tlv:"8A"`
	SecurityCompact []byte       `tlv:"8C"`
	SecurityRef     []byte       `tlv:"8B"`
	PINStatus       []byte       `tlv:"C6"`
	FileSize        uint32       `tlv:"80"`
	TotalFileSize   uint32       `tlv:"81"`
	ShortFileID     []byte       `tlv:"88"`
	Unknown         []bertlv.TLV `tlv:",unknown"`
}

// ParseFCP decodes a SELECT response into an FCP. The template tag '62' is mandatory.
func ParseFCP(data []byte) (*FCP, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty FCP")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	for _, p := range packets {
		if strings.EqualFold(p.Tag, "62") {
			fcp := &FCP{}
			if err := tlv.UnmarshalFromPackets(p.TLVs, fcp); err != nil {
				return nil, fmt.Errorf("FCP unmarshal failed: %w", err)
			}
			return fcp, nil
		}
	}

	return nil, fmt.Errorf("mandatory tag '62' not found")
}

// Structure returns the file structure from the descriptor byte.
func (f *FCP) Structure() FileStructure {
	if len(f.Descriptor) == 0 {
		return StructureUnknown
	}
	d := f.Descriptor[0]
	if d == 0x38 || d == 0x78 {
		return StructureDF
	}
	switch bits.GetRange(d, 3, 1) {
	case 1:
		return StructureTransparent
	case 2:
		return StructureLinearFixed
	case 6:
		return StructureCyclic
	default:
		return StructureUnknown
	}
}

// RecordLength returns the record size of a record-based EF.
func (f *FCP) RecordLength() (int, bool) {
	if len(f.Descriptor) < 4 {
		return 0, false
	}
	return int(f.Descriptor[2])<<8 | int(f.Descriptor[3]), true
}

// RecordCount returns the number of records of a record-based EF.
func (f *FCP) RecordCount() (int, bool) {
	if len(f.Descriptor) < 5 {
		return 0, false
	}
	return int(f.Descriptor[4]), true
}

// Size returns the EF body size in bytes. For record EFs without tag '80' it is
// derived from the record geometry.
func (f *FCP) Size() int {
	if f.FileSize > 0 {
		return int(f.FileSize)
	}
	length, okLen := f.RecordLength()
	count, okCount := f.RecordCount()
	if okLen && okCount {
		return length * count
	}
	return 0
}
