package uicc

import (
	"fmt"
	"log/slog"
	"sync"
)

// Card owns one Records coordinator per application AID and keeps them in
// step with the card status snapshots it is given.
type Card struct {
	mu      sync.Mutex
	status  CardStatus
	records map[string]*Records

	// emitMu orders recorder calls; recorded is the last state reported.
	emitMu   sync.Mutex
	recorded CardState

	cfg  config
	opts []Option
}

// NewCard returns a card in the absent state. opts also apply to every
// coordinator the card creates.
func NewCard(opts ...Option) *Card {
	return &Card{
		status:   NewCardStatus(CardStateAbsent, PinStateUnknown),
		records:  make(map[string]*Records),
		recorded: CardStateAbsent,
		cfg:      newConfig(opts),
		opts:     opts,
	}
}

// Update installs status. Every coordinator whose application is gone, or all
// of them when the card is not present, is disposed after the card lock is
// released. Applications seen for the first time get a coordinator owning the
// handler returned by newHandler, which must not call back into the Card.
// Coordinators of applications still present get the new application status.
// An invalid status is rejected and leaves the card unchanged.
func (c *Card) Update(status CardStatus, newHandler func(AppStatus) FileHandler) error {
	if err := status.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	prevState := c.status.State
	c.status = status

	keep := make(map[string]AppStatus)
	if status.State == CardStatePresent {
		for _, app := range status.apps {
			if _, dup := keep[app.AID]; !dup {
				keep[app.AID] = app
			}
		}
	}

	var stale []*Records
	for aid, r := range c.records {
		if _, ok := keep[aid]; !ok {
			stale = append(stale, r)
			delete(c.records, aid)
		}
	}

	var added int
	for aid, app := range keep {
		if r, ok := c.records[aid]; ok {
			r.setApp(app)
			continue
		}
		var fh FileHandler
		if newHandler != nil {
			fh = newHandler(app)
		}
		c.records[aid] = NewRecords(c, app, fh, c.opts...)
		added++
	}
	c.mu.Unlock()

	for _, r := range stale {
		r.Dispose()
	}

	if prevState != status.State {
		c.cfg.logger.Info("card state changed",
			slog.String("from", prevState.String()),
			slog.String("to", status.State.String()),
		)
		c.recordState()
	}
	if added > 0 || len(stale) > 0 {
		c.cfg.logger.Debug("card applications reconciled",
			slog.Int("added", added),
			slog.Int("disposed", len(stale)),
		)
	}
	return nil
}

// recordState reports the current state, not the one this Update installed,
// so concurrent updates cannot leave the recorder on an older state.
func (c *Card) recordState() {
	if c.cfg.recorder == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	state := c.Status().State
	if state == c.recorded {
		return
	}
	c.recorded = state
	c.cfg.recorder.CardStateChanged(state)
}

// Status returns the last installed snapshot.
func (c *Card) Status() CardStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Records returns the coordinator of the application aid.
func (c *Card) Records(aid string) (*Records, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[aid]
	return r, ok
}

// SubscriptionRecords returns the coordinator behind the GSM/UMTS subscription.
func (c *Card) SubscriptionRecords() (*Records, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	app, ok := c.status.GsmUmtsApp()
	if !ok {
		return nil, fmt.Errorf("no GSM/UMTS application on card (%s)", c.status.State)
	}
	r, ok := c.records[app.AID]
	if !ok {
		return nil, fmt.Errorf("no records for %s", app.AID)
	}
	return r, nil
}

// Dispose disposes every coordinator and marks the card absent.
func (c *Card) Dispose() {
	// An absent status is always valid.
	_ = c.Update(NewCardStatus(CardStateAbsent, PinStateUnknown), nil)
}
