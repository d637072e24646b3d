// Package uicc models the state of a UICC: a CardStatus snapshot of the card
// and its applications, one Records coordinator per application, and the Card
// that reconciles coordinators against each new snapshot.
//
// A Records coordinator owns the FileHandler used to read the application's
// elementary files. When the application disappears from the card, or the
// card leaves the present state, the coordinator is disposed: its handler is
// closed and every registrant for unavailability is notified exactly once.
package uicc
