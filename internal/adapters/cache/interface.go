package cache

// EntryStore maps fingerprints to entries.
//
// GetOrCreate must return the same entry to every caller for a fingerprint until the
// fingerprint is invalidated. A store built on a primitive without a per-key atomic
// get-or-create may occasionally hand two concurrent callers distinct entries. Both
// callers then win their claim and compute the response, and whichever entry is
// mapped last is served until it is invalidated. That costs a duplicate computation
// but never corrupts an entry, so it is tolerated.
//
// Invalidate removes the mapping if present. Entries already handed out are not
// affected.
type EntryStore interface {
	GetOrCreate(fingerprint string) *Entry
	Invalidate(fingerprint string)
	Len() int
	Close()
}
