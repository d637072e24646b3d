package uicc

import (
	"errors"
	"fmt"
)

const (
	// MaxApps is the number of application slots a card status can describe.
	MaxApps = 8
	// NoApp marks a subscription index with no application behind it.
	NoApp = -1
)

// CardState is the physical state of the card slot.
type CardState int

const (
	CardStateAbsent CardState = iota
	CardStatePresent
	CardStateError
	CardStateRestricted
)

func (s CardState) String() string {
	switch s {
	case CardStateAbsent:
		return "absent"
	case CardStatePresent:
		return "present"
	case CardStateError:
		return "error"
	case CardStateRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("CardState(%d)", int(s))
	}
}

// PinState is the state of a PIN as reported by the card.
type PinState int

const (
	PinStateUnknown PinState = iota
	PinStateEnabledNotVerified
	PinStateEnabledVerified
	PinStateDisabled
	PinStateEnabledBlocked
	PinStateEnabledPermBlocked
)

func (s PinState) String() string {
	switch s {
	case PinStateUnknown:
		return "unknown"
	case PinStateEnabledNotVerified:
		return "enabled_not_verified"
	case PinStateEnabledVerified:
		return "enabled_verified"
	case PinStateDisabled:
		return "disabled"
	case PinStateEnabledBlocked:
		return "enabled_blocked"
	case PinStateEnabledPermBlocked:
		return "enabled_perm_blocked"
	default:
		return fmt.Sprintf("PinState(%d)", int(s))
	}
}

// AppType is the kind of application found on the card.
type AppType int

const (
	AppTypeUnknown AppType = iota
	AppTypeSIM
	AppTypeUSIM
	AppTypeRUIM
	AppTypeCSIM
	AppTypeISIM
)

func (t AppType) String() string {
	switch t {
	case AppTypeUnknown:
		return "unknown"
	case AppTypeSIM:
		return "SIM"
	case AppTypeUSIM:
		return "USIM"
	case AppTypeRUIM:
		return "RUIM"
	case AppTypeCSIM:
		return "CSIM"
	case AppTypeISIM:
		return "ISIM"
	default:
		return fmt.Sprintf("AppType(%d)", int(t))
	}
}

// AppState is the lifecycle state of an application.
type AppState int

const (
	AppStateUnknown AppState = iota
	AppStateDetected
	AppStatePin
	AppStatePuk
	AppStateSubscriptionPerso
	AppStateReady
)

func (s AppState) String() string {
	switch s {
	case AppStateUnknown:
		return "unknown"
	case AppStateDetected:
		return "detected"
	case AppStatePin:
		return "pin"
	case AppStatePuk:
		return "puk"
	case AppStateSubscriptionPerso:
		return "subscription_perso"
	case AppStateReady:
		return "ready"
	default:
		return fmt.Sprintf("AppState(%d)", int(s))
	}
}

// PersoSubState is the network personalisation step an application is locked in.
type PersoSubState int

const (
	PersoUnknown PersoSubState = iota
	PersoInProgress
	PersoReady
	PersoSimNetwork
	PersoSimNetworkSubset
	PersoSimCorporate
	PersoSimServiceProvider
	PersoSimSim
	PersoSimNetworkPuk
	PersoSimNetworkSubsetPuk
	PersoSimCorporatePuk
	PersoSimServiceProviderPuk
	PersoSimSimPuk
	PersoRuimNetwork1
	PersoRuimNetwork2
	PersoRuimHrpd
	PersoRuimCorporate
	PersoRuimServiceProvider
	PersoRuimRuim
	PersoRuimNetwork1Puk
	PersoRuimNetwork2Puk
	PersoRuimHrpdPuk
	PersoRuimCorporatePuk
	PersoRuimServiceProviderPuk
	PersoRuimRuimPuk
)

var persoNames = [...]string{
	"unknown", "in_progress", "ready",
	"sim_network", "sim_network_subset", "sim_corporate", "sim_service_provider", "sim_sim",
	"sim_network_puk", "sim_network_subset_puk", "sim_corporate_puk", "sim_service_provider_puk", "sim_sim_puk",
	"ruim_network1", "ruim_network2", "ruim_hrpd", "ruim_corporate", "ruim_service_provider", "ruim_ruim",
	"ruim_network1_puk", "ruim_network2_puk", "ruim_hrpd_puk", "ruim_corporate_puk", "ruim_service_provider_puk", "ruim_ruim_puk",
}

func (s PersoSubState) String() string {
	if s >= 0 && int(s) < len(persoNames) {
		return persoNames[s]
	}
	return fmt.Sprintf("PersoSubState(%d)", int(s))
}

// AppStatus describes one application of the card.
type AppStatus struct {
	Type  AppType
	State AppState

	// AID is the upper-case hex application identifier, empty for a 2G SIM.
	AID          string
	Label        string
	PIN1Replaced bool
	PIN1         PinState
	PIN2         PinState

	perso PersoSubState
}

// WithPerso returns a copy of a locked in personalisation step sub.
func (a AppStatus) WithPerso(sub PersoSubState) AppStatus {
	a.State = AppStateSubscriptionPerso
	a.perso = sub
	return a
}

// PersoSubState returns the personalisation step. ok is false unless the
// application is in AppStateSubscriptionPerso.
func (a AppStatus) PersoSubState() (sub PersoSubState, ok bool) {
	if a.State != AppStateSubscriptionPerso {
		return PersoUnknown, false
	}
	return a.perso, true
}

func (a AppStatus) String() string {
	s := fmt.Sprintf("%s %s aid=%s label=%q pin1=%s pin2=%s", a.Type, a.State, a.AID, a.Label, a.PIN1, a.PIN2)
	if sub, ok := a.PersoSubState(); ok {
		s += " perso=" + sub.String()
	}
	if a.PIN1Replaced {
		s += " pin1_replaced"
	}
	return s
}

// CardStatus is an immutable snapshot of the card and its applications.
type CardStatus struct {
	State        CardState
	UniversalPIN PinState

	// Subscription indexes into the application list, or NoApp.
	GsmUmtsIndex int
	CdmaIndex    int
	ImsIndex     int

	apps []AppStatus
}

// NewCardStatus builds a snapshot holding a copy of apps. Every subscription
// index starts at NoApp.
func NewCardStatus(state CardState, universalPIN PinState, apps ...AppStatus) CardStatus {
	return CardStatus{
		State:        state,
		UniversalPIN: universalPIN,
		GsmUmtsIndex: NoApp,
		CdmaIndex:    NoApp,
		ImsIndex:     NoApp,
		apps:         append([]AppStatus(nil), apps...),
	}
}

// Apps returns a copy of the application list.
func (s CardStatus) Apps() []AppStatus {
	return append([]AppStatus(nil), s.apps...)
}

// NumApps returns the number of applications.
func (s CardStatus) NumApps() int {
	return len(s.apps)
}

// App returns the application at index i.
func (s CardStatus) App(i int) (AppStatus, bool) {
	if i < 0 || i >= len(s.apps) {
		return AppStatus{}, false
	}
	return s.apps[i], true
}

// GsmUmtsApp returns the application of the GSM/UMTS subscription.
func (s CardStatus) GsmUmtsApp() (AppStatus, bool) { return s.App(s.GsmUmtsIndex) }

// CdmaApp returns the application of the CDMA subscription.
func (s CardStatus) CdmaApp() (AppStatus, bool) { return s.App(s.CdmaIndex) }

// ImsApp returns the application of the IMS subscription.
func (s CardStatus) ImsApp() (AppStatus, bool) { return s.App(s.ImsIndex) }

// Validate checks the application count and every subscription index.
func (s CardStatus) Validate() error {
	var errs []error
	if len(s.apps) > MaxApps {
		errs = append(errs, fmt.Errorf("%d applications, at most %d allowed", len(s.apps), MaxApps))
	}
	for _, idx := range []struct {
		name  string
		value int
	}{
		{"gsm/umts", s.GsmUmtsIndex},
		{"cdma", s.CdmaIndex},
		{"ims", s.ImsIndex},
	} {
		switch {
		case idx.value == NoApp:
		case idx.value < 0 || idx.value >= MaxApps:
			errs = append(errs, fmt.Errorf("%s index %d out of range", idx.name, idx.value))
		case idx.value >= len(s.apps):
			errs = append(errs, fmt.Errorf("%s index %d has no application", idx.name, idx.value))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid card status: %w", errors.Join(errs...))
	}
	return nil
}

func (s CardStatus) String() string {
	return fmt.Sprintf("card=%s upin=%s apps=%d gsm=%d cdma=%d ims=%d",
		s.State, s.UniversalPIN, len(s.apps), s.GsmUmtsIndex, s.CdmaIndex, s.ImsIndex)
}
