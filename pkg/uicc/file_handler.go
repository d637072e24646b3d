package uicc

import (
	"context"
	"fmt"
	"io"

	"github.com/gregLibert/modem-core/pkg/iso7816"
)

// FileHandler reads elementary files of a card. path lists the DFs from the MF
// down to the parent of fileID; nil means the MF.
type FileHandler interface {
	ReadTransparent(ctx context.Context, path []uint16, fileID uint16) ([]byte, error)
	ReadLinearFixed(ctx context.Context, path []uint16, fileID uint16, record int) ([]byte, error)
	RecordCount(ctx context.Context, path []uint16, fileID uint16) (int, error)
	Close() error
}

// PinProber queries the state of a PIN without presenting it.
type PinProber interface {
	// PinStatus selects aid when non-empty, then sends an empty VERIFY for pinRef
	// and returns the card's status word.
	PinStatus(ctx context.Context, aid []byte, pinRef byte) (iso7816.StatusWord, error)
}

// ISOFileHandler implements FileHandler and PinProber over an APDU client.
type ISOFileHandler struct {
	client *iso7816.Client
	cla    iso7816.Class
	aid    []byte
	closer io.Closer
}

// NewISOFileHandler returns a handler sending commands with cla. When a path
// goes through the current ADF (7FFF), aid is selected first. closer, if
// non-nil, is closed by Close.
func NewISOFileHandler(client *iso7816.Client, cla iso7816.Class, aid []byte, closer io.Closer) *ISOFileHandler {
	return &ISOFileHandler{client: client, cla: cla, aid: aid, closer: closer}
}

func (h *ISOFileHandler) selectEF(ctx context.Context, path []uint16, fileID uint16) (*iso7816.FCP, error) {
	if len(h.aid) > 0 && throughADF(path) {
		if _, err := h.client.Do(ctx, iso7816.SelectByAID(h.cla, h.aid)); err != nil {
			return nil, fmt.Errorf("select ADF %X: %w", h.aid, err)
		}
	}

	fids := append(append([]uint16(nil), path...), fileID)
	data, err := h.client.Do(ctx, iso7816.SelectByPath(h.cla, iso7816.Path(fids...)))
	if err != nil {
		return nil, fmt.Errorf("select %04X: %w", fileID, err)
	}
	fcp, err := iso7816.ParseFCP(data)
	if err != nil {
		return nil, fmt.Errorf("select %04X: %w", fileID, err)
	}
	if !fcp.LifeCycle.Usable() {
		return nil, fmt.Errorf("EF %04X is %s", fileID, fcp.LifeCycle)
	}
	return fcp, nil
}

func throughADF(path []uint16) bool {
	for _, fid := range path {
		if fid == iso7816.FID_ADF {
			return true
		}
	}
	return false
}

// ReadTransparent selects a transparent EF and reads its whole body.
func (h *ISOFileHandler) ReadTransparent(ctx context.Context, path []uint16, fileID uint16) ([]byte, error) {
	fcp, err := h.selectEF(ctx, path, fileID)
	if err != nil {
		return nil, err
	}
	if s := fcp.Structure(); s != iso7816.StructureTransparent {
		return nil, fmt.Errorf("EF %04X is %s, not transparent", fileID, s)
	}

	size := fcp.Size()
	out := make([]byte, 0, size)
	for offset := 0; offset < size; {
		n := min(size-offset, iso7816.MaxShortLe)
		cmd, err := iso7816.ReadBinary(h.cla, uint16(offset), n)
		if err != nil {
			return nil, err
		}
		chunk, err := h.client.Do(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("read %04X at %d: %w", fileID, offset, err)
		}
		if len(chunk) == 0 {
			break
		}
		out = append(out, chunk...)
		offset += len(chunk)
	}
	return out, nil
}

// ReadLinearFixed selects a record EF and reads record (1-based).
func (h *ISOFileHandler) ReadLinearFixed(ctx context.Context, path []uint16, fileID uint16, record int) ([]byte, error) {
	if record < 1 || record > 254 {
		return nil, fmt.Errorf("record number %d out of range", record)
	}
	fcp, err := h.selectEF(ctx, path, fileID)
	if err != nil {
		return nil, err
	}
	length, ok := fcp.RecordLength()
	if !ok {
		return nil, fmt.Errorf("EF %04X has no record length", fileID)
	}
	cmd, err := iso7816.ReadRecord(h.cla, byte(record), length)
	if err != nil {
		return nil, err
	}
	data, err := h.client.Do(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("read %04X record %d: %w", fileID, record, err)
	}
	return data, nil
}

// RecordCount selects a record EF and returns its number of records.
func (h *ISOFileHandler) RecordCount(ctx context.Context, path []uint16, fileID uint16) (int, error) {
	fcp, err := h.selectEF(ctx, path, fileID)
	if err != nil {
		return 0, err
	}
	n, ok := fcp.RecordCount()
	if !ok {
		return 0, fmt.Errorf("EF %04X has no record count", fileID)
	}
	return n, nil
}

// PinStatus implements PinProber. Without an aid the MF is made current, so
// the query runs outside any application.
func (h *ISOFileHandler) PinStatus(ctx context.Context, aid []byte, pinRef byte) (iso7816.StatusWord, error) {
	if len(aid) > 0 {
		if _, err := h.client.Do(ctx, iso7816.SelectByAID(h.cla, aid)); err != nil {
			return 0, fmt.Errorf("select ADF %X: %w", aid, err)
		}
	} else if _, err := h.client.Do(ctx, iso7816.SelectByID(h.cla, iso7816.FID_MF)); err != nil {
		return 0, fmt.Errorf("select MF: %w", err)
	}
	trace, err := h.client.Send(ctx, iso7816.VerifyStatus(h.cla, pinRef))
	if err != nil {
		return 0, err
	}
	return trace.Status(), nil
}

// Close closes the underlying connection if one was given.
func (h *ISOFileHandler) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

var (
	_ FileHandler = (*ISOFileHandler)(nil)
	_ PinProber   = (*ISOFileHandler)(nil)
)
