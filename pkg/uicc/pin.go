package uicc

import "github.com/gregLibert/modem-core/pkg/iso7816"

// PinStateFromStatus maps the answer to an empty VERIFY. retries is set for a
// '63CX' answer and is -1 otherwise. A card answering 9000 does not say
// whether the PIN is disabled or already verified; both read as verified.
func PinStateFromStatus(sw iso7816.StatusWord) (state PinState, retries int) {
	switch {
	case sw == iso7816.SW_NO_ERROR:
		return PinStateEnabledVerified, -1
	case sw.IsCounter():
		n, _ := sw.Retries()
		if n == 0 {
			return PinStateEnabledBlocked, 0
		}
		return PinStateEnabledNotVerified, n
	case sw == iso7816.SW_ERR_AUTH_METHOD_BLOCKED:
		return PinStateEnabledBlocked, -1
	case sw == iso7816.SW_ERR_REF_DATA_NOT_USABLE:
		return PinStateEnabledPermBlocked, -1
	default:
		return PinStateUnknown, -1
	}
}

// appStateFromPin derives the state of an application from its PIN1.
func appStateFromPin(pin PinState) AppState {
	switch pin {
	case PinStateEnabledVerified, PinStateDisabled:
		return AppStateReady
	case PinStateEnabledNotVerified:
		return AppStatePin
	case PinStateEnabledBlocked:
		return AppStatePuk
	default:
		return AppStateDetected
	}
}
