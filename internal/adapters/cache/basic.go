package cache

import "sync"

type basicEntryStore struct {
	entries map[string]*Entry
	lock    sync.Mutex
}

func (s *basicEntryStore) GetOrCreate(fingerprint string) *Entry {
	s.lock.Lock()
	defer s.lock.Unlock()

	if entry, ok := s.entries[fingerprint]; ok {
		return entry
	}

	entry := NewEntry()
	s.entries[fingerprint] = entry
	return entry
}

func (s *basicEntryStore) Invalidate(fingerprint string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.entries, fingerprint)
}

func (s *basicEntryStore) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.entries)
}

func (s *basicEntryStore) Close() {
}

func NewBasicEntryStore() *basicEntryStore {
	return &basicEntryStore{
		entries: make(map[string]*Entry),
	}
}
