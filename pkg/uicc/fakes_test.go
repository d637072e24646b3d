package uicc

import (
	"context"
	"sync"

	"github.com/gregLibert/modem-core/pkg/iso7816"
)

// fakeFiles serves file bodies keyed by file id.
type fakeFiles struct {
	mu          sync.Mutex
	transparent map[uint16][]byte
	records     map[uint16][][]byte
	closed      int
	closeErr    error
}

func (f *fakeFiles) ReadTransparent(_ context.Context, _ []uint16, fid uint16) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data, ok := f.transparent[fid]; ok {
		return data, nil
	}
	return nil, &iso7816.StatusError{Instruction: iso7816.INS_SELECT, Status: iso7816.SW_ERR_FILE_NOT_FOUND}
}

func (f *fakeFiles) ReadLinearFixed(_ context.Context, _ []uint16, fid uint16, record int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, ok := f.records[fid]
	if !ok {
		return nil, &iso7816.StatusError{Instruction: iso7816.INS_SELECT, Status: iso7816.SW_ERR_FILE_NOT_FOUND}
	}
	if record < 1 || record > len(recs) {
		return nil, &iso7816.StatusError{Instruction: iso7816.INS_READ_RECORD, Status: iso7816.SW_ERR_RECORD_NOT_FOUND}
	}
	return recs[record-1], nil
}

func (f *fakeFiles) RecordCount(_ context.Context, _ []uint16, fid uint16) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, ok := f.records[fid]
	if !ok {
		return 0, &iso7816.StatusError{Instruction: iso7816.INS_SELECT, Status: iso7816.SW_ERR_FILE_NOT_FOUND}
	}
	return len(recs), nil
}

func (f *fakeFiles) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeFiles) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakePins answers PIN status queries from a table keyed by AID hex and reference.
type fakePins struct {
	answers map[string]iso7816.StatusWord
	err     error
}

func pinKey(aid []byte, ref byte) string {
	return string(aid) + string([]byte{ref})
}

func (p *fakePins) PinStatus(_ context.Context, aid []byte, ref byte) (iso7816.StatusWord, error) {
	if p.err != nil {
		return 0, p.err
	}
	if sw, ok := p.answers[pinKey(aid, ref)]; ok {
		return sw, nil
	}
	return iso7816.SW_ERR_REF_DATA_NOT_FOUND, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	states   []CardState
	disposed map[AppType]int
	notified int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{disposed: map[AppType]int{}}
}

func (r *countingRecorder) CardStateChanged(state CardState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *countingRecorder) RecordsDisposed(app AppType, subscribers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed[app]++
	r.notified += subscribers
}
