package uicc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gregLibert/modem-core/pkg/bits"
	"github.com/gregLibert/modem-core/pkg/iso7816"
)

var (
	// ErrDisposed is returned by file reads on a disposed coordinator.
	ErrDisposed = errors.New("uicc: records disposed")
	// ErrNoFileHandler is returned by file reads on a coordinator built without a handler.
	ErrNoFileHandler = errors.New("uicc: no file handler")
)

// Registrant is a subscription to a coordinator's unavailability. Identity is
// the pointer: the same Registrant registered twice is notified once.
type Registrant struct {
	fn func()
}

// NewRegistrant wraps fn, which is called once when the records become unavailable.
func NewRegistrant(fn func()) *Registrant {
	return &Registrant{fn: fn}
}

func (r *Registrant) notify() {
	if r.fn != nil {
		r.fn()
	}
}

// Records coordinates access to the files of one card application.
type Records struct {
	mu          sync.Mutex
	card        *Card
	app         AppStatus
	fh          FileHandler
	disposed    bool
	reading     int // reads using fh outside the lock
	registrants map[*Registrant]struct{}

	cfg config
}

// NewRecords builds a coordinator for app. The coordinator takes ownership of
// fh and closes it on Dispose. card is a back-reference and may be nil.
func NewRecords(card *Card, app AppStatus, fh FileHandler, opts ...Option) *Records {
	return &Records{
		card:        card,
		app:         app,
		fh:          fh,
		registrants: make(map[*Registrant]struct{}),
		cfg:         newConfig(opts),
	}
}

// Card returns the owning card.
func (r *Records) Card() *Card {
	return r.card
}

// App returns the latest status of the application behind this coordinator.
func (r *Records) App() AppStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.app
}

// setApp refreshes the application status. The AID never changes.
func (r *Records) setApp(app AppStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.app = app
}

// Disposed reports whether Dispose has been called.
func (r *Records) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// RegisterForUnavailable subscribes reg. It is a no-op after disposal.
func (r *Records) RegisterForUnavailable(reg *Registrant) {
	if reg == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.registrants[reg] = struct{}{}
}

// UnregisterForUnavailable removes reg. Unknown registrants are ignored.
func (r *Records) UnregisterForUnavailable(reg *Registrant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registrants, reg)
}

// Dispose marks the records unavailable and notifies every registrant once,
// outside the lock and in no particular order. The file handler is closed
// right away when no read is using it, otherwise by the last read to finish.
// Later calls do nothing.
func (r *Records) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	regs := make([]*Registrant, 0, len(r.registrants))
	for reg := range r.registrants {
		regs = append(regs, reg)
	}
	clear(r.registrants)
	app := r.app
	var fh FileHandler
	if r.reading == 0 {
		fh, r.fh = r.fh, nil
	}
	r.mu.Unlock()

	r.closeHandler(fh, app.AID)

	r.cfg.logger.Debug("records disposed",
		slog.String("app", app.Type.String()),
		slog.String("aid", app.AID),
		slog.Int("subscribers", len(regs)),
	)
	for _, reg := range regs {
		reg.notify()
	}
	if r.cfg.recorder != nil {
		r.cfg.recorder.RecordsDisposed(app.Type, len(regs))
	}
}

func (r *Records) closeHandler(fh FileHandler, aid string) {
	if fh == nil {
		return
	}
	if err := fh.Close(); err != nil {
		r.cfg.logger.Warn("closing file handler failed",
			slog.String("aid", aid),
			slog.Any("error", err),
		)
	}
}

// withHandler runs fn with the file handler outside the lock. The handler
// stays open until every read started before Dispose has returned.
func (r *Records) withHandler(fn func(FileHandler) ([]byte, error)) ([]byte, error) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil, ErrDisposed
	}
	fh := r.fh
	if fh == nil {
		r.mu.Unlock()
		return nil, ErrNoFileHandler
	}
	r.reading++
	r.mu.Unlock()

	defer r.release()
	return fn(fh)
}

func (r *Records) release() {
	r.mu.Lock()
	r.reading--
	var fh FileHandler
	if r.disposed && r.reading == 0 {
		fh, r.fh = r.fh, nil
	}
	aid := r.app.AID
	r.mu.Unlock()

	r.closeHandler(fh, aid)
}

// ReadICCID reads EF_ICCID under the MF.
func (r *Records) ReadICCID(ctx context.Context) (string, error) {
	data, err := r.withHandler(func(fh FileHandler) ([]byte, error) {
		return fh.ReadTransparent(ctx, nil, iso7816.FID_ICCID)
	})
	if err != nil {
		return "", fmt.Errorf("read EF_ICCID: %w", err)
	}
	return bits.SwappedBCD(data), nil
}

// ReadIMSI reads EF_IMSI under the application ADF.
func (r *Records) ReadIMSI(ctx context.Context) (string, error) {
	data, err := r.withHandler(func(fh FileHandler) ([]byte, error) {
		return fh.ReadTransparent(ctx, []uint16{iso7816.FID_MF, iso7816.FID_ADF}, iso7816.FID_IMSI)
	})
	if err != nil {
		return "", fmt.Errorf("read EF_IMSI: %w", err)
	}
	return DecodeIMSI(data)
}

// DecodeIMSI decodes the EF_IMSI body: a length byte, then swapped BCD whose
// first nibble is the parity indicator.
func DecodeIMSI(data []byte) (string, error) {
	if len(data) < 2 {
		return "", fmt.Errorf("EF_IMSI too short: %d bytes", len(data))
	}
	n := int(data[0])
	if n < 1 || n > len(data)-1 {
		return "", fmt.Errorf("EF_IMSI length byte %d invalid for %d bytes", n, len(data))
	}
	digits := bits.SwappedBCD(data[1 : 1+n])
	if len(digits) < 2 {
		return "", fmt.Errorf("EF_IMSI holds no digits")
	}
	return digits[1:], nil
}
