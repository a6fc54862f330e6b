package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type ttlEntryStore struct {
	cache            *ttlcache.Cache[string, *Entry]
	stopEvictionHook func()
}

func (s *ttlEntryStore) GetOrCreate(fingerprint string) *Entry {
	// ttlcache holds its lock across the lookup and insert, so only one entry
	// can win for a fingerprint
	item, _ := s.cache.GetOrSet(fingerprint, NewEntry())
	return item.Value()
}

func (s *ttlEntryStore) Invalidate(fingerprint string) {
	s.cache.Delete(fingerprint)
}

func (s *ttlEntryStore) Len() int {
	return s.cache.Len()
}

func (s *ttlEntryStore) Close() {
	s.stopEvictionHook()
	s.cache.Stop()
}

// NewTTLEntryStore creates an EntryStore backed by ttlcache.
//
// lifetime bounds how long any entry may stay mapped, counted from its creation.
// Entries are normally invalidated long before that by the finalizer, so the
// lifetime only matters for entries whose producer never finished. It must be
// longer than any TTL used with the store. A lifetime <= 0 disables it.
func NewTTLEntryStore(lifetime time.Duration) *ttlEntryStore {
	if lifetime <= 0 {
		lifetime = ttlcache.NoTTL
	}

	entryCache := ttlcache.New[string, *Entry](
		ttlcache.WithTTL[string, *Entry](lifetime),
		ttlcache.WithDisableTouchOnHit[string, *Entry](),
	)

	stopEvictionHook := entryCache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Entry]) {
		recordEviction(ctx, evictionReasonName(reason), item.Value().State())
	})

	go entryCache.Start()

	return &ttlEntryStore{
		cache:            entryCache,
		stopEvictionHook: stopEvictionHook,
	}
}

func evictionReasonName(reason ttlcache.EvictionReason) string {
	switch reason {
	case ttlcache.EvictionReasonDeleted:
		return "invalidated"
	case ttlcache.EvictionReasonExpired:
		return "lifetime_exceeded"
	case ttlcache.EvictionReasonCapacityReached:
		return "capacity_reached"
	}
	return "unknown"
}
