package uicc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/modem-core/pkg/tlv"
)

// ErrEmptyRecord is returned by ParseDirRecord for an unused (all 'FF') record.
var ErrEmptyRecord = errors.New("uicc: empty EF_DIR record")

// Registered application providers and the PIX prefixes of their applications
// (ETSI TS 101 220 Annex E).
var aidPrefixes = []struct {
	prefix string
	app    AppType
}{
	{"A0000000871002", AppTypeUSIM},
	{"A0000000871004", AppTypeISIM},
	{"A0000003431002", AppTypeCSIM},
	{"A0000000090001", AppTypeSIM},
}

// AppTypeFromAID classifies an application by the RID and PIX prefix of its AID.
func AppTypeFromAID(aid []byte) AppType {
	h := strings.ToUpper(hex.EncodeToString(aid))
	for _, p := range aidPrefixes {
		if strings.HasPrefix(h, p.prefix) {
			return p.app
		}
	}
	return AppTypeUnknown
}

type dirRecord struct {
	Template dirTemplate `tlv:"61"`
}

type dirTemplate struct {
	AID   []byte `tlv:"4F"`
	Label string `tlv:"50" fmt:"ascii"`
}

// ParseDirRecord decodes one EF_DIR record (application template '61' holding
// AID '4F' and label '50') into a detected application.
func ParseDirRecord(data []byte) (AppStatus, error) {
	end := len(data)
	for end > 0 && data[end-1] == 0xFF {
		end--
	}
	body := data[:end]
	if len(body) == 0 {
		return AppStatus{}, ErrEmptyRecord
	}

	var rec dirRecord
	if err := tlv.Unmarshal(body, &rec); err != nil {
		return AppStatus{}, fmt.Errorf("EF_DIR record: %w", err)
	}
	aid := rec.Template.AID
	if len(aid) < 5 || len(aid) > 16 {
		return AppStatus{}, fmt.Errorf("EF_DIR record: AID length %d out of range (5-16)", len(aid))
	}

	return AppStatus{
		Type:  AppTypeFromAID(aid),
		State: AppStateDetected,
		AID:   strings.ToUpper(hex.EncodeToString(aid)),
		Label: rec.Template.Label,
	}, nil
}
