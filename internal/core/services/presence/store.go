package presence

import (
	"fmt"
	"sync"
	"time"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

// Entry is one active raw identity as returned by ActiveSet. Seq is the
// record's first-insertion sequence number; callers rely on it for
// deterministic tie-breaking, so it is explicit rather than an accident of
// map iteration.
type Entry struct {
	RawID string
	Seq   uint64
	Attrs domain.DeviceAttributes
}

type record struct {
	seq        uint64
	timestamps []time.Time
	attrs      domain.DeviceAttributes
}

// Store tracks sighting timestamps per raw identity inside a sliding window.
// All mutation and read paths take the mutex because the scanner adapter may
// deliver sightings on a different goroutine than the reporting tick.
type Store struct {
	mu         sync.Mutex
	window     time.Duration
	minSamples int
	records    map[string]*record
	order      []string // raw ids in first-insertion order; rebuilt on prune
	nextSeq    uint64
}

// NewStore creates a presence store. Window and minSamples are validated
// here; there are no runtime failure modes beyond that.
func NewStore(window time.Duration, minSamples int) (*Store, error) {
	if window <= 0 {
		return nil, fmt.Errorf("presence: window must be positive, got %s", window)
	}
	if minSamples < 1 {
		return nil, fmt.Errorf("presence: minSamples must be >= 1, got %d", minSamples)
	}
	return &Store{
		window:     window,
		minSamples: minSamples,
		records:    make(map[string]*record),
	}, nil
}

// Record appends now to the identity's timestamp sequence, creating the
// record on first sight, and overwrites the attribute snapshot. Timestamps
// are assumed non-decreasing per caller wall clock; out-of-order values are
// accepted as-is and never reordered.
func (s *Store) Record(rawID string, attrs domain.DeviceAttributes, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[rawID]
	if !ok {
		rec = &record{seq: s.nextSeq}
		s.nextSeq++
		s.records[rawID] = rec
		s.order = append(s.order, rawID)
	}
	rec.timestamps = append(rec.timestamps, now)
	rec.attrs = attrs
}

// prune drops timestamps that have aged out of the window and deletes
// emptied records. A sighting at t is visible for now in [t, t+window) and
// gone at exactly t+window. Caller holds the mutex.
func (s *Store) prune(now time.Time) {
	cutoff := now.Add(-s.window)
	deleted := false

	for id, rec := range s.records {
		i := 0
		for i < len(rec.timestamps) && !rec.timestamps[i].After(cutoff) {
			i++
		}
		if i > 0 {
			rec.timestamps = rec.timestamps[i:]
		}
		if len(rec.timestamps) == 0 {
			delete(s.records, id)
			deleted = true
		}
	}

	if deleted {
		kept := s.order[:0]
		for _, id := range s.order {
			if _, ok := s.records[id]; ok {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
}

// ActiveSet prunes, then returns every record with at least minSamples
// sightings in the window, in first-insertion order.
func (s *Store) ActiveSet(now time.Time) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(now)

	var active []Entry
	for _, id := range s.order {
		rec := s.records[id]
		if len(rec.timestamps) >= s.minSamples {
			active = append(active, Entry{RawID: id, Seq: rec.seq, Attrs: rec.attrs})
		}
	}
	return active
}

// Snapshot prunes, then returns the active set and the total tracked count
// from one locked read, so both describe the same instant. Reporting uses
// this instead of separate ActiveSet/TotalTrackedCount calls, which could
// interleave with a concurrent Record.
func (s *Store) Snapshot(now time.Time) ([]Entry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(now)

	var active []Entry
	for _, id := range s.order {
		rec := s.records[id]
		if len(rec.timestamps) >= s.minSamples {
			active = append(active, Entry{RawID: id, Seq: rec.seq, Attrs: rec.attrs})
		}
	}
	return active, len(s.records)
}

// ActiveCount prunes, then counts records passing the minSamples gate.
func (s *Store) ActiveCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(now)

	count := 0
	for _, rec := range s.records {
		if len(rec.timestamps) >= s.minSamples {
			count++
		}
	}
	return count
}

// TotalTrackedCount prunes, then counts all records in the window regardless
// of the minSamples gate.
func (s *Store) TotalTrackedCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(now)
	return len(s.records)
}

// Clear wipes all in-memory state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*record)
	s.order = nil
}
