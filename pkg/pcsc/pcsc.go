// Package pcsc connects the UICC stack to a PC/SC smart card reader.
package pcsc

import (
	"errors"
	"fmt"

	"github.com/ebfe/scard"

	"github.com/gregLibert/modem-core/pkg/uicc"
)

// ErrNoCard is returned by Transmit when no card was inserted at Open.
var ErrNoCard = errors.New("pcsc: no card in reader")

// CardStateFromFlags maps a PC/SC reader state to a card slot state.
func CardStateFromFlags(f scard.StateFlag) uicc.CardState {
	switch {
	case f&(scard.StateUnknown|scard.StateUnavailable) != 0:
		return uicc.CardStateError
	case f&scard.StatePresent == 0:
		return uicc.CardStateAbsent
	case f&(scard.StateMute|scard.StateUnpowered) != 0:
		return uicc.CardStateError
	case f&scard.StateExclusive != 0:
		return uicc.CardStateRestricted
	default:
		return uicc.CardStatePresent
	}
}

// Reader is one PC/SC reader and the card connected in it, if any.
// It implements iso7816.Transmitter and io.Closer.
type Reader struct {
	Name string

	ctx  *scard.Context
	card *scard.Card
}

// Readers lists the reader names known to the PC/SC service.
func Readers() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return readers, nil
}

// Open connects to the reader at readerIndex. An empty reader is not an
// error: the returned Reader reports CardStateAbsent.
func Open(readerIndex int) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("list readers: %w", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("reader index %d out of range (%d readers)", readerIndex, len(readers))
	}

	r := &Reader{Name: readers[readerIndex], ctx: ctx}

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors.
	card, err := ctx.Connect(r.Name, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	switch {
	case err == nil:
		r.card = card
	case errors.Is(err, scard.ErrNoSmartcard), errors.Is(err, scard.ErrRemovedCard):
	default:
		ctx.Release()
		return nil, fmt.Errorf("connect %q: %w", r.Name, err)
	}
	return r, nil
}

// Transmit sends one APDU to the card.
func (r *Reader) Transmit(cmd []byte) ([]byte, error) {
	if r.card == nil {
		return nil, ErrNoCard
	}
	return r.card.Transmit(cmd)
}

// CardState polls the reader once and maps its state.
func (r *Reader) CardState() (uicc.CardState, error) {
	if r.ctx == nil {
		return uicc.CardStateAbsent, nil
	}
	rs := []scard.ReaderState{{Reader: r.Name, CurrentState: scard.StateUnaware}}
	if err := r.ctx.GetStatusChange(rs, 0); err != nil {
		return uicc.CardStateError, fmt.Errorf("reader status %q: %w", r.Name, err)
	}
	return CardStateFromFlags(rs[0].EventState), nil
}

// Close disconnects the card, leaving it powered, and releases the context.
func (r *Reader) Close() error {
	var errs []error
	if r.card != nil {
		if err := r.card.Disconnect(scard.LeaveCard); err != nil {
			errs = append(errs, fmt.Errorf("disconnect card: %w", err))
		}
		r.card = nil
	}
	if r.ctx != nil {
		if err := r.ctx.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release context: %w", err))
		}
		r.ctx = nil
	}
	return errors.Join(errs...)
}
