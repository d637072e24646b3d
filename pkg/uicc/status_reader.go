package uicc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gregLibert/modem-core/pkg/iso7816"
)

// ReadCardStatus builds a snapshot of a card in the given slot state. For a
// present card it enumerates EF_DIR, assigns the subscription indexes by
// application type (first match wins) and queries the universal PIN and each
// application's PIN1 and PIN2. A card without EF_DIR is reported as one 2G SIM.
// pins may be nil, in which case every PIN state is unknown.
func ReadCardStatus(ctx context.Context, fh FileHandler, pins PinProber, state CardState) (CardStatus, error) {
	if state != CardStatePresent {
		return NewCardStatus(state, PinStateUnknown), nil
	}

	apps, err := readDir(ctx, fh)
	if err != nil {
		return CardStatus{}, err
	}

	upin := PinStateUnknown
	if pins != nil {
		if upin, err = probePin(ctx, pins, nil, iso7816.PINRefUniversal); err != nil {
			return CardStatus{}, fmt.Errorf("universal PIN: %w", err)
		}
		for i := range apps {
			if apps[i].AID == "" {
				continue
			}
			aid, _ := hex.DecodeString(apps[i].AID)
			pin1, err := probePin(ctx, pins, aid, iso7816.PINRefApp1)
			if err != nil {
				return CardStatus{}, fmt.Errorf("PIN1 of %s: %w", apps[i].AID, err)
			}
			pin2, err := probePin(ctx, pins, aid, iso7816.PINRefApp2)
			if err != nil {
				return CardStatus{}, fmt.Errorf("PIN2 of %s: %w", apps[i].AID, err)
			}
			apps[i].PIN1 = pin1
			apps[i].PIN2 = pin2
			apps[i].State = appStateFromPin(pin1)
		}
	}

	status := NewCardStatus(state, upin, apps...)
	for i, app := range apps {
		switch app.Type {
		case AppTypeUSIM, AppTypeSIM:
			if status.GsmUmtsIndex == NoApp {
				status.GsmUmtsIndex = i
			}
		case AppTypeCSIM, AppTypeRUIM:
			if status.CdmaIndex == NoApp {
				status.CdmaIndex = i
			}
		case AppTypeISIM:
			if status.ImsIndex == NoApp {
				status.ImsIndex = i
			}
		}
	}
	return status, nil
}

func readDir(ctx context.Context, fh FileHandler) ([]AppStatus, error) {
	count, err := fh.RecordCount(ctx, nil, iso7816.FID_EF_DIR)
	if isFileNotFound(err) {
		return []AppStatus{{Type: AppTypeSIM, State: AppStateDetected}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("EF_DIR: %w", err)
	}

	var apps []AppStatus
	for rec := 1; rec <= count && len(apps) < MaxApps; rec++ {
		data, err := fh.ReadLinearFixed(ctx, nil, iso7816.FID_EF_DIR, rec)
		if err != nil {
			return nil, fmt.Errorf("EF_DIR record %d: %w", rec, err)
		}
		app, err := ParseDirRecord(data)
		if errors.Is(err, ErrEmptyRecord) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("EF_DIR record %d: %w", rec, err)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// probePin maps card-side refusals (unknown reference, wrong parameters) to
// PinStateUnknown. Only transport failures are returned.
func probePin(ctx context.Context, pins PinProber, aid []byte, ref byte) (PinState, error) {
	sw, err := pins.PinStatus(ctx, aid, ref)
	var se *iso7816.StatusError
	if errors.As(err, &se) {
		return PinStateUnknown, nil
	}
	if err != nil {
		return PinStateUnknown, err
	}
	state, _ := PinStateFromStatus(sw)
	return state, nil
}

func isFileNotFound(err error) bool {
	var se *iso7816.StatusError
	return errors.As(err, &se) && se.Status == iso7816.SW_ERR_FILE_NOT_FOUND
}
