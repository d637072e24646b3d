package uicc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCardStatus_Validate(t *testing.T) {
	apps := []AppStatus{{Type: AppTypeUSIM, AID: "A0"}, {Type: AppTypeISIM, AID: "A1"}}

	tests := []struct {
		name    string
		mutate  func(*CardStatus)
		apps    []AppStatus
		wantErr bool
	}{
		{"no apps, no indexes", func(*CardStatus) {}, nil, false},
		{"valid indexes", func(s *CardStatus) { s.GsmUmtsIndex, s.ImsIndex = 0, 1 }, apps, false},
		{"index at MaxApps", func(s *CardStatus) { s.CdmaIndex = MaxApps }, apps, true},
		{"negative index", func(s *CardStatus) { s.ImsIndex = -2 }, apps, true},
		{"index beyond apps", func(s *CardStatus) { s.GsmUmtsIndex = 5 }, apps, true},
		{"too many apps", func(*CardStatus) {}, make([]AppStatus, MaxApps+1), true},
		{"MaxApps apps", func(s *CardStatus) { s.GsmUmtsIndex = MaxApps - 1 }, make([]AppStatus, MaxApps), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCardStatus(CardStatePresent, PinStateUnknown, tt.apps...)
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v; wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestCardStatus_SubscriptionApps(t *testing.T) {
	usim := AppStatus{Type: AppTypeUSIM, AID: "A0000000871002"}
	isim := AppStatus{Type: AppTypeISIM, AID: "A0000000871004"}
	s := NewCardStatus(CardStatePresent, PinStateDisabled, usim, isim)
	s.GsmUmtsIndex, s.ImsIndex = 0, 1

	if got, ok := s.GsmUmtsApp(); !ok || got.AID != usim.AID {
		t.Errorf("GsmUmtsApp() = %v, %t", got, ok)
	}
	if got, ok := s.ImsApp(); !ok || got.AID != isim.AID {
		t.Errorf("ImsApp() = %v, %t", got, ok)
	}
	if _, ok := s.CdmaApp(); ok {
		t.Error("CdmaApp() found an app for NoApp")
	}
}

func TestCardStatus_AppsIsCopy(t *testing.T) {
	in := []AppStatus{{Type: AppTypeUSIM, Label: "orig"}}
	s := NewCardStatus(CardStatePresent, PinStateUnknown, in...)

	in[0].Label = "caller"
	out := s.Apps()
	out[0].Label = "reader"

	got, _ := s.App(0)
	if got.Label != "orig" {
		t.Errorf("snapshot label = %q, want orig", got.Label)
	}
	if s.NumApps() != 1 {
		t.Errorf("NumApps() = %d", s.NumApps())
	}
}

func TestNewCardStatus_Defaults(t *testing.T) {
	s := NewCardStatus(CardStateAbsent, PinStateUnknown)
	want := []int{NoApp, NoApp, NoApp}
	if diff := cmp.Diff(want, []int{s.GsmUmtsIndex, s.CdmaIndex, s.ImsIndex}); diff != "" {
		t.Errorf("indexes mismatch (-want +got):\n%s", diff)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAppStatus_PersoSubState(t *testing.T) {
	ready := AppStatus{Type: AppTypeUSIM, State: AppStateReady}
	if _, ok := ready.PersoSubState(); ok {
		t.Error("PersoSubState reported outside the perso state")
	}

	locked := ready.WithPerso(PersoSimNetwork)
	sub, ok := locked.PersoSubState()
	if !ok || sub != PersoSimNetwork {
		t.Errorf("PersoSubState() = %s, %t; want sim_network, true", sub, ok)
	}
	if locked.State != AppStateSubscriptionPerso {
		t.Errorf("State = %s", locked.State)
	}

	// Leaving the perso state hides the substate again.
	locked.State = AppStateReady
	if _, ok := locked.PersoSubState(); ok {
		t.Error("PersoSubState visible after leaving the perso state")
	}
	if _, ok := ready.PersoSubState(); ok {
		t.Error("WithPerso modified the receiver")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{CardStateRestricted.String(), "restricted"},
		{CardState(9).String(), "CardState(9)"},
		{PinStateEnabledPermBlocked.String(), "enabled_perm_blocked"},
		{AppTypeCSIM.String(), "CSIM"},
		{AppStateSubscriptionPerso.String(), "subscription_perso"},
		{PersoRuimRuimPuk.String(), "ruim_ruim_puk"},
		{PersoSubState(-1).String(), "PersoSubState(-1)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
