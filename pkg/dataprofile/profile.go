package dataprofile

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNilConnection is returned when SetAsActive is given no connection.
var ErrNilConnection = errors.New("dataprofile: nil data connection")

// ConflictError reports that SetAsActive replaced a connection that was still
// attached for the same IP version.
type ConflictError struct {
	Profile  string
	Version  IPVersion
	Previous DataConnection
	Current  DataConnection
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dataprofile: %s already active on %s with %s, replaced by %s",
		e.Profile, e.Version, connID(e.Previous), connID(e.Current))
}

// Profile is implemented by every data profile kind.
type Profile interface {
	IsWorking(v IPVersion) bool
	SetWorking(working bool, v IPVersion)

	IsActive(v IPVersion) bool
	IsActiveAny() bool
	ActiveConnection(v IPVersion) DataConnection
	SetAsActive(v IPVersion, conn DataConnection) error
	SetAsInactive(v IPVersion)

	CanSupportIPVersion(v IPVersion) bool
	CanHandleServiceType(t ServiceType) bool
	CanHandleType(apnType string) bool
	Type() ProfileType

	Hash() string
	ShortString() string
	String() string
}

// Recorder observes profile state changes. Calls are made outside the profile lock.
type Recorder interface {
	ProfileActivated(v IPVersion)
	ProfileDeactivated(v IPVersion)
	ActivationConflict(v IPVersion)
	WorkingChanged(v IPVersion, working bool)
}

// Option configures a profile at construction.
type Option func(*Base)

// WithLogger sets the logger used for invariant diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder attaches a state-change recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Base) {
		b.recorder = r
	}
}

// Base holds the per-IP-version working and activation state shared by all
// profile kinds. Concrete kinds embed it and must be built by their constructors.
type Base struct {
	mu      sync.Mutex
	working [2]bool
	conns   [2]DataConnection

	logger   *slog.Logger
	recorder Recorder
	name     func() string
}

func (b *Base) init(name func() string, opts []Option) {
	b.working = [2]bool{true, true}
	b.logger = slog.Default()
	b.name = name
	for _, opt := range opts {
		opt(b)
	}
}

// IsWorking reports whether the network last accepted the profile on v.
// Unknown versions report false.
func (b *Base) IsWorking(v IPVersion) bool {
	if !v.valid() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.working[v]
}

// SetWorking overwrites the working flag for v.
func (b *Base) SetWorking(working bool, v IPVersion) {
	if !v.valid() {
		return
	}
	b.mu.Lock()
	b.working[v] = working
	b.mu.Unlock()

	if b.recorder != nil {
		b.recorder.WorkingChanged(v, working)
	}
}

// IsActive reports whether a connection is attached on v.
func (b *Base) IsActive(v IPVersion) bool {
	return b.ActiveConnection(v) != nil
}

// IsActiveAny reports whether a connection is attached on either version.
func (b *Base) IsActiveAny() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns[IPv4] != nil || b.conns[IPv6] != nil
}

// ActiveConnection returns the connection attached on v, or nil.
func (b *Base) ActiveConnection(v IPVersion) DataConnection {
	if !v.valid() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns[v]
}

// SetAsActive attaches conn on v. If another connection was attached it is
// replaced, and the returned *ConflictError names it.
func (b *Base) SetAsActive(v IPVersion, conn DataConnection) error {
	if !v.valid() {
		return fmt.Errorf("dataprofile: invalid IP version %d", int(v))
	}
	if conn == nil {
		return ErrNilConnection
	}

	b.mu.Lock()
	prev := b.conns[v]
	b.conns[v] = conn
	b.mu.Unlock()

	if prev == nil {
		if b.recorder != nil {
			b.recorder.ProfileActivated(v)
		}
		return nil
	}

	conflict := &ConflictError{Profile: b.describe(), Version: v, Previous: prev, Current: conn}
	b.log().Warn("data profile already active, replacing connection",
		slog.String("profile", conflict.Profile),
		slog.String("ip_version", v.String()),
		slog.String("previous_conn", connID(prev)),
		slog.String("new_conn", connID(conn)),
	)
	if b.recorder != nil {
		b.recorder.ActivationConflict(v)
	}
	return conflict
}

// SetAsInactive detaches the connection on v. It is a no-op when none is attached.
func (b *Base) SetAsInactive(v IPVersion) {
	if !v.valid() {
		return
	}
	b.mu.Lock()
	prev := b.conns[v]
	b.conns[v] = nil
	b.mu.Unlock()

	if prev != nil && b.recorder != nil {
		b.recorder.ProfileDeactivated(v)
	}
}

// reset clears both activations and marks both versions working.
func (b *Base) reset() {
	for _, v := range IPVersions {
		b.SetAsInactive(v)
	}
	b.mu.Lock()
	b.working = [2]bool{true, true}
	b.mu.Unlock()
}

func (b *Base) log() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

func (b *Base) describe() string {
	if b.name == nil {
		return "<unnamed profile>"
	}
	return b.name()
}

// StateString renders the working and activation state of both versions.
// It is kept out of String so that Hash stays stable across activations.
func (b *Base) StateString() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("v4{working=%t conn=%s} v6{working=%t conn=%s}",
		b.working[IPv4], connID(b.conns[IPv4]), b.working[IPv6], connID(b.conns[IPv6]))
}
