package cache

import "sync"

// forkingEntryStore imitates a get-or-create primitive without per-key atomicity.
//
// The first forks lookups of every fingerprint each get a fresh entry, replacing the
// mapped one, as if they all raced past the "load" step before anybody stored.
type forkingEntryStore struct {
	entries   map[string]*Entry
	lookups   map[string]int
	forks     int
	cacheLock sync.Mutex
}

func (s *forkingEntryStore) GetOrCreate(fingerprint string) *Entry {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()

	s.lookups[fingerprint]++

	entry, ok := s.entries[fingerprint]
	if ok && s.lookups[fingerprint] > s.forks {
		return entry
	}

	entry = NewEntry()
	s.entries[fingerprint] = entry
	return entry
}

func (s *forkingEntryStore) Invalidate(fingerprint string) {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()

	delete(s.entries, fingerprint)
}

func (s *forkingEntryStore) Len() int {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()

	return len(s.entries)
}

func (s *forkingEntryStore) Close() {
}

func NewForkingEntryStore(forks int) *forkingEntryStore {
	return &forkingEntryStore{
		entries: make(map[string]*Entry),
		lookups: make(map[string]int),
		forks:   forks,
	}
}
