package dataprofile

import "sync"

// Store holds the profiles known for the current subscription. Profiles are
// never removed during a session, only reset.
type Store struct {
	mu       sync.Mutex
	profiles []Profile
	byHash   map[string]Profile
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byHash: make(map[string]Profile)}
}

// Add inserts p unless a profile with the same Hash is already stored. It
// returns the stored profile and whether p was inserted.
func (s *Store) Add(p Profile) (Profile, bool) {
	h := p.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byHash[h]; ok {
		return existing, false
	}
	s.byHash[h] = p
	s.profiles = append(s.profiles, p)
	return p, true
}

// Len returns the number of stored profiles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// Profiles returns the stored profiles in insertion order.
func (s *Store) Profiles() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Profile(nil), s.profiles...)
}

// Find returns the profiles that handle t and support v. Profiles still
// working on v come first; insertion order is kept within each group.
func (s *Store) Find(t ServiceType, v IPVersion) []Profile {
	var working, failed []Profile
	for _, p := range s.Profiles() {
		if !p.CanHandleServiceType(t) || !p.CanSupportIPVersion(v) {
			continue
		}
		if p.IsWorking(v) {
			working = append(working, p)
		} else {
			failed = append(failed, p)
		}
	}
	return append(working, failed...)
}

// Active returns the profiles with a connection attached on either version.
func (s *Store) Active() []Profile {
	var out []Profile
	for _, p := range s.Profiles() {
		if p.IsActiveAny() {
			out = append(out, p)
		}
	}
	return out
}

type resetter interface {
	reset()
}

// Reset detaches every connection and marks every profile working again.
func (s *Store) Reset() {
	for _, p := range s.Profiles() {
		if r, ok := p.(resetter); ok {
			r.reset()
			continue
		}
		for _, v := range IPVersions {
			p.SetAsInactive(v)
			p.SetWorking(true, v)
		}
	}
}
