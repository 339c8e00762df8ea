// Package store implements the Cache Store (component A, spec.md §4.1):
// an in-memory table of (url, cache_key) -> PlaceholderRecord, tracking
// pending-write state across the Transform Engine's two passes.
//
// Adapted from the teacher's Cache in cache.go: that Cache serialized
// every read/write through a goroutine-owned map via channels. spec.md
// §5 explicitly allows "a coarse lock is acceptable; operations are
// short", so here the same responsibilities (concurrent put/has from
// many in-flight tasks, a frozen read-only view once the barrier
// passes) are implemented with a plain sync.Mutex instead of an actor
// goroutine — simpler, and matches the spec's stated concurrency
// discipline more directly than re-deriving it from channels.
package store

import (
	"strconv"
	"sync"

	"github.com/akzhy/nocojs/internal/options"
	"github.com/akzhy/nocojs/internal/xlib"
)

// WriteState tracks whether a record still needs to be persisted.
type WriteState int

const (
	Clean WriteState = iota
	Insert
	Update
)

// PlaceholderRecord is one cached rendering of one URL (spec.md §3).
type PlaceholderRecord struct {
	ID             int64
	URL            string
	CacheKey       string
	Placeholder    string
	PreviewType    string
	OriginalWidth  uint32
	OriginalHeight uint32
	Cache          bool
	WriteState     WriteState
}

func key(url, cacheKey string) string { return url + "\x00" + cacheKey }

// Store is the shared, mutex-guarded map described in spec.md §4.1.
type Store struct {
	mu      sync.Mutex
	records map[string]PlaceholderRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string]PlaceholderRecord)}
}

// LoadFrom bulk-inserts rows read from the Persistent Cache as Clean
// records, per spec.md "load_from(rows)".
func (s *Store) LoadFrom(rows []PlaceholderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		r.WriteState = Clean
		r.Cache = true
		s.records[key(r.URL, r.CacheKey)] = r
	}
}

// Has reports whether a record exists for (url, cache_key(o)).
func (s *Store) Has(url string, o options.RenderOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[key(url, options.CacheKey(o))]
	return ok
}

// Get returns the record for (url, cache_key(o)), if any.
func (s *Store) Get(url string, o options.RenderOptions) (PlaceholderRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[key(url, options.CacheKey(o))]
	return r, ok
}

// Put upserts a record produced by the Placeholder Pipeline. If a record
// with the same (url, cache_key) exists its WriteState becomes Update and
// its ID is preserved; otherwise a new Insert record is created with no
// ID yet, per spec.md §4.1 "put(...)".
func (s *Store) Put(url, placeholder string, originalW, originalH uint32, o options.RenderOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(url, options.CacheKey(o))
	existing, ok := s.records[k]

	rec := PlaceholderRecord{
		URL:            url,
		CacheKey:       options.CacheKey(o),
		Placeholder:    placeholder,
		PreviewType:    o.OutputKind.String(),
		OriginalWidth:  originalW,
		OriginalHeight: originalH,
		Cache:          o.Cache,
	}
	if ok {
		rec.ID = existing.ID
		rec.WriteState = Update
	} else {
		rec.WriteState = Insert
	}
	s.records[k] = rec
}

// Dirty reports whether any record is not Clean.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.WriteState != Clean {
			return true
		}
	}
	return false
}

// DrainDirty returns the records to insert and update, excluding any
// record with Cache=false, and marks every returned record Clean in
// place (mirroring the Persistent Cache's flush having committed them).
// Per spec.md §8, the union of the two lists equals exactly the set of
// non-Clean, cacheable records.
func (s *Store) DrainDirty() (inserts, updates []PlaceholderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.records {
		if !r.Cache || r.WriteState == Clean {
			continue
		}
		switch r.WriteState {
		case Insert:
			inserts = append(inserts, r)
		case Update:
			updates = append(updates, r)
		}
		r.WriteState = Clean
		s.records[k] = r
	}
	return inserts, updates
}

// Report renders a one-line diagnostic summary of the store's contents,
// adapted from the teacher's info.go status page into a plain string
// suitable for a CLI/log line (SPEC_FULL.md §12.4).
func (s *Store) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := 0
	for _, r := range s.records {
		size += len(r.Placeholder)
	}
	sizeText := strconv.Itoa(size) + " B"
	if size >= 1024 {
		sizeText = xlib.FmtByteSize(size, 3)
	}
	return sizeText + " across " + strconv.Itoa(len(s.records)) + " cached placeholders"
}
