package uicc

import (
	"testing"
)

func presentStatus(apps ...AppStatus) CardStatus {
	s := NewCardStatus(CardStatePresent, PinStateDisabled, apps...)
	if len(apps) > 0 {
		s.GsmUmtsIndex = 0
	}
	return s
}

func TestCard_UpdateCreatesAndDisposes(t *testing.T) {
	rec := newCountingRecorder()
	card := NewCard(WithRecorder(rec))
	usim := AppStatus{Type: AppTypeUSIM, AID: "A0000000871002"}
	isim := AppStatus{Type: AppTypeISIM, AID: "A0000000871004"}

	handlers := map[string]*fakeFiles{}
	newHandler := func(app AppStatus) FileHandler {
		fh := &fakeFiles{}
		handlers[app.AID] = fh
		return fh
	}

	if err := card.Update(presentStatus(usim, isim), newHandler); err != nil {
		t.Fatalf("Update: %v", err)
	}
	usimRecords, ok := card.Records(usim.AID)
	if !ok {
		t.Fatal("no records for USIM")
	}
	isimRecords, ok := card.Records(isim.AID)
	if !ok {
		t.Fatal("no records for ISIM")
	}
	if usimRecords.Card() != card {
		t.Error("records back-reference does not point at the card")
	}

	var isimGone int
	isimRecords.RegisterForUnavailable(NewRegistrant(func() { isimGone++ }))

	// ISIM disappears, USIM stays with the same coordinator.
	if err := card.Update(presentStatus(usim), newHandler); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if again, _ := card.Records(usim.AID); again != usimRecords {
		t.Error("USIM coordinator replaced although the app stayed")
	}
	if _, ok := card.Records(isim.AID); ok {
		t.Error("ISIM coordinator still present")
	}
	if !isimRecords.Disposed() || isimGone != 1 {
		t.Errorf("ISIM disposed=%t notified=%d", isimRecords.Disposed(), isimGone)
	}
	if handlers[isim.AID].closeCount() != 1 {
		t.Error("ISIM file handler not closed")
	}
	if usimRecords.Disposed() {
		t.Error("USIM coordinator disposed")
	}
	if rec.disposed[AppTypeISIM] != 1 {
		t.Errorf("recorder disposed = %v", rec.disposed)
	}
}

func TestCard_LeavingPresentDisposesAll(t *testing.T) {
	card := NewCard()
	usim := AppStatus{Type: AppTypeUSIM, AID: "A0000000871002"}
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}
	r, _ := card.Records(usim.AID)

	var notified int
	r.RegisterForUnavailable(NewRegistrant(func() { notified++ }))

	// An error state keeps the app list but the card is unusable.
	errStatus := presentStatus(usim)
	errStatus.State = CardStateError
	if err := card.Update(errStatus, nil); err != nil {
		t.Fatal(err)
	}
	if notified != 1 || !r.Disposed() {
		t.Errorf("notified=%d disposed=%t", notified, r.Disposed())
	}
	if _, ok := card.Records(usim.AID); ok {
		t.Error("records still reachable for a card in error")
	}
	if card.Status().State != CardStateError {
		t.Errorf("Status().State = %s", card.Status().State)
	}

	// Back to present: a fresh coordinator.
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}
	fresh, ok := card.Records(usim.AID)
	if !ok || fresh == r || fresh.Disposed() {
		t.Error("no fresh coordinator after the card came back")
	}
}

func TestCard_UpdateRejectsInvalid(t *testing.T) {
	card := NewCard()
	usim := AppStatus{Type: AppTypeUSIM, AID: "A0"}
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}

	bad := presentStatus(usim)
	bad.ImsIndex = MaxApps
	if err := card.Update(bad, nil); err == nil {
		t.Fatal("invalid status accepted")
	}
	if card.Status().ImsIndex != NoApp {
		t.Error("invalid status was installed")
	}
	if _, ok := card.Records(usim.AID); !ok {
		t.Error("invalid status disposed existing records")
	}
}

func TestCard_StateChangesRecorded(t *testing.T) {
	rec := newCountingRecorder()
	card := NewCard(WithRecorder(rec))

	_ = card.Update(presentStatus(), nil)
	_ = card.Update(presentStatus(), nil)
	card.Dispose()

	want := []CardState{CardStatePresent, CardStateAbsent}
	if len(rec.states) != len(want) || rec.states[0] != want[0] || rec.states[1] != want[1] {
		t.Errorf("recorded states = %v, want %v", rec.states, want)
	}
}

func TestCard_SubscriptionRecords(t *testing.T) {
	card := NewCard()
	if _, err := card.SubscriptionRecords(); err == nil {
		t.Error("SubscriptionRecords on an absent card returned nil error")
	}

	usim := AppStatus{Type: AppTypeUSIM, AID: "A0000000871002"}
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}
	r, err := card.SubscriptionRecords()
	if err != nil {
		t.Fatalf("SubscriptionRecords: %v", err)
	}
	if r.App().AID != usim.AID {
		t.Errorf("subscription app = %s", r.App().AID)
	}
}

func TestCard_UpdateRefreshesAppStatus(t *testing.T) {
	card := NewCard()
	usim := AppStatus{Type: AppTypeUSIM, State: AppStatePin, AID: "A0000000871002", PIN1: PinStateEnabledNotVerified}
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}
	r, _ := card.Records(usim.AID)

	usim.State, usim.PIN1 = AppStateReady, PinStateEnabledVerified
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}
	if again, _ := card.Records(usim.AID); again != r {
		t.Fatal("coordinator replaced on a state change")
	}
	if got := r.App(); got.State != AppStateReady || got.PIN1 != PinStateEnabledVerified {
		t.Errorf("App() = %s, want ready with PIN1 verified", got)
	}
}

func TestCard_RecorderEndsOnLatestState(t *testing.T) {
	rec := newCountingRecorder()
	card := NewCard(WithRecorder(rec))
	usim := AppStatus{Type: AppTypeUSIM, AID: "A0000000871002"}
	if err := card.Update(presentStatus(usim), nil); err != nil {
		t.Fatal(err)
	}

	// The first update stalls in a disposal callback, after installing its
	// state and before reporting it.
	stalled := make(chan struct{})
	resume := make(chan struct{})
	r, _ := card.Records(usim.AID)
	r.RegisterForUnavailable(NewRegistrant(func() {
		close(stalled)
		<-resume
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = card.Update(NewCardStatus(CardStateError, PinStateUnknown), nil)
	}()
	<-stalled

	if err := card.Update(presentStatus(), nil); err != nil {
		t.Fatal(err)
	}
	close(resume)
	<-done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if last := rec.states[len(rec.states)-1]; last != CardStatePresent {
		t.Errorf("recorded states = %v, last want %s", rec.states, CardStatePresent)
	}
}
