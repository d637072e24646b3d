package uicc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gregLibert/modem-core/pkg/iso7816"
	"github.com/gregLibert/modem-core/pkg/tlv"
)

func TestRecords_DisposeNotifiesEachRegistrantOnce(t *testing.T) {
	fh := &fakeFiles{}
	rec := newCountingRecorder()
	r := NewRecords(nil, AppStatus{Type: AppTypeUSIM, AID: "A0"}, fh, WithRecorder(rec))

	var calls [4]atomic.Int32
	regs := make([]*Registrant, len(calls))
	for i := range regs {
		regs[i] = NewRegistrant(func() { calls[i].Add(1) })
	}
	for _, reg := range regs[:3] {
		r.RegisterForUnavailable(reg)
	}
	// Registering twice keeps a single subscription.
	r.RegisterForUnavailable(regs[0])

	r.Dispose()
	r.RegisterForUnavailable(regs[3])
	r.Dispose()

	for i := 0; i < 3; i++ {
		if n := calls[i].Load(); n != 1 {
			t.Errorf("registrant %d notified %d times, want 1", i, n)
		}
	}
	if n := calls[3].Load(); n != 0 {
		t.Errorf("registrant added after disposal notified %d times", n)
	}
	if !r.Disposed() {
		t.Error("Disposed() = false")
	}
	if fh.closeCount() != 1 {
		t.Errorf("file handler closed %d times, want 1", fh.closeCount())
	}
	if rec.disposed[AppTypeUSIM] != 1 || rec.notified != 3 {
		t.Errorf("recorder disposed=%d notified=%d", rec.disposed[AppTypeUSIM], rec.notified)
	}
}

func TestRecords_Unregister(t *testing.T) {
	r := NewRecords(nil, AppStatus{}, nil)

	var notified bool
	reg := NewRegistrant(func() { notified = true })
	r.RegisterForUnavailable(reg)
	r.UnregisterForUnavailable(reg)
	r.UnregisterForUnavailable(reg)
	r.UnregisterForUnavailable(NewRegistrant(nil))
	r.UnregisterForUnavailable(nil)
	r.RegisterForUnavailable(nil)

	r.Dispose()
	if notified {
		t.Error("unregistered registrant was notified")
	}
	// Safe after disposal too.
	r.UnregisterForUnavailable(reg)
}

func TestRecords_RegistrantMayUnregisterDuringNotify(t *testing.T) {
	r := NewRecords(nil, AppStatus{}, nil)

	var reg *Registrant
	reg = NewRegistrant(func() { r.UnregisterForUnavailable(reg) })
	r.RegisterForUnavailable(reg)

	r.Dispose()
}

func TestRecords_ConcurrentRegisterAndDispose(t *testing.T) {
	r := NewRecords(nil, AppStatus{}, &fakeFiles{})

	var notified atomic.Int32
	var registered atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RegisterForUnavailable(NewRegistrant(func() { notified.Add(1) }))
			registered.Add(1)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Dispose()
	}()
	wg.Wait()

	if n := notified.Load(); n > registered.Load() {
		t.Errorf("notified %d registrants, only %d registered", n, registered.Load())
	}
	before := notified.Load()
	r.Dispose()
	if notified.Load() != before {
		t.Error("second Dispose notified again")
	}
}

func TestRecords_ReadICCID(t *testing.T) {
	fh := &fakeFiles{transparent: map[uint16][]byte{
		iso7816.FID_ICCID: tlv.Hex("98 94 20 10 32 54 76 98 10 F2"),
	}}
	r := NewRecords(nil, AppStatus{}, fh)

	iccid, err := r.ReadICCID(context.Background())
	if err != nil {
		t.Fatalf("ReadICCID: %v", err)
	}
	if iccid != "8949020123456789012" {
		t.Errorf("ICCID = %q", iccid)
	}
}

// stallingFiles blocks transparent reads until release is closed.
type stallingFiles struct {
	fakeFiles
	entered chan struct{}
	release chan struct{}
}

func (f *stallingFiles) ReadTransparent(ctx context.Context, path []uint16, fid uint16) ([]byte, error) {
	close(f.entered)
	<-f.release
	return f.fakeFiles.ReadTransparent(ctx, path, fid)
}

func TestRecords_DisposeDuringRead(t *testing.T) {
	fh := &stallingFiles{
		fakeFiles: fakeFiles{transparent: map[uint16][]byte{
			iso7816.FID_ICCID: tlv.Hex("98 94 20 10 32 54 76 98 10 F2"),
		}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewRecords(nil, AppStatus{Type: AppTypeUSIM, AID: "A0"}, fh)

	type result struct {
		iccid string
		err   error
	}
	read := make(chan result, 1)
	go func() {
		iccid, err := r.ReadICCID(context.Background())
		read <- result{iccid, err}
	}()
	<-fh.entered

	var notified atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.RegisterForUnavailable(NewRegistrant(func() { notified.Add(1) }))
		r.Dispose()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		close(fh.release)
		t.Fatal("Register/Dispose blocked behind an in-flight read")
	}

	if notified.Load() != 1 {
		t.Errorf("notified %d times, want 1", notified.Load())
	}
	if n := fh.closeCount(); n != 0 {
		t.Errorf("handler closed %d times while a read was in flight", n)
	}
	if _, err := r.ReadIMSI(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Errorf("read after Dispose = %v, want ErrDisposed", err)
	}

	close(fh.release)
	res := <-read
	if res.err != nil || res.iccid != "8949020123456789012" {
		t.Errorf("in-flight read = %q, %v", res.iccid, res.err)
	}
	if n := fh.closeCount(); n != 1 {
		t.Errorf("handler closed %d times after the read drained, want 1", n)
	}
}

func TestRecords_ReadIMSI(t *testing.T) {
	fh := &fakeFiles{transparent: map[uint16][]byte{
		iso7816.FID_IMSI: tlv.Hex("08 39 01 62 10 32 54 76 98"),
	}}
	r := NewRecords(nil, AppStatus{}, fh)

	imsi, err := r.ReadIMSI(context.Background())
	if err != nil {
		t.Fatalf("ReadIMSI: %v", err)
	}
	if imsi != "310260123456789" {
		t.Errorf("IMSI = %q", imsi)
	}
}

func TestRecords_ReadErrors(t *testing.T) {
	ctx := context.Background()

	missing := NewRecords(nil, AppStatus{}, &fakeFiles{})
	_, err := missing.ReadICCID(ctx)
	var se *iso7816.StatusError
	if !errors.As(err, &se) || se.Status != iso7816.SW_ERR_FILE_NOT_FOUND {
		t.Errorf("missing file error = %v, want 6A82 StatusError", err)
	}

	noHandler := NewRecords(nil, AppStatus{}, nil)
	if _, err := noHandler.ReadIMSI(ctx); !errors.Is(err, ErrNoFileHandler) {
		t.Errorf("no handler error = %v", err)
	}

	disposed := NewRecords(nil, AppStatus{}, &fakeFiles{})
	disposed.Dispose()
	if _, err := disposed.ReadICCID(ctx); !errors.Is(err, ErrDisposed) {
		t.Errorf("disposed error = %v, want ErrDisposed", err)
	}
}

func TestDecodeIMSI(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantErr bool
	}{
		{"15 digits", tlv.Hex("08 39 01 62 10 32 54 76 98"), "310260123456789", false},
		{"padded file", tlv.Hex("08 29 80 01 00 00 00 00 10 FF"), "208100000000001", false},
		{"too short", tlv.Hex("08"), "", true},
		{"length beyond data", tlv.Hex("09 39 01"), "", true},
		{"zero length", tlv.Hex("00 39 01"), "", true},
		{"unprogrammed", tlv.Hex("08 FF FF FF FF FF FF FF FF"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeIMSI(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeIMSI() error = %v; wantErr %t", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeIMSI() = %q, want %q", got, tt.want)
			}
		})
	}
}
