// Package memory contains the in-memory implementation of the record store.
// It is the single source of truth for which annotations currently exist.
package memory

import (
	"sync"

	"github.com/carjohnson/annosync/internal/core/annotation"
)

// RecordStore implements secondary.RecordStore with a mutex-guarded map.
// Arrival order is tracked so validation and alerting see records in the
// order the user created them; an upsert keeps the original position.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]annotation.Record
	order   map[string]int
	nextPos int
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: map[string]annotation.Record{},
		order:   map[string]int{},
	}
}

// Upsert inserts or replaces the record keyed by its UID.
func (s *RecordStore) Upsert(rec annotation.Record) {
	if rec.UID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.order[rec.UID]; !exists {
		s.order[rec.UID] = s.nextPos
		s.nextPos++
	}
	s.records[rec.UID] = rec.Clone()
}

// Remove deletes the record with the given UID, if present.
func (s *RecordStore) Remove(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, uid)
	delete(s.order, uid)
}

// Get returns a copy of the record with the given UID.
func (s *RecordStore) Get(uid string) (annotation.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[uid]
	if !ok {
		return annotation.Record{}, false
	}
	return rec.Clone(), true
}

// List returns copies of all records in arrival order.
func (s *RecordStore) List() []annotation.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(annotation.Record) bool { return true })
}

// ListBySeries returns copies of the records owned by a series, in arrival order.
func (s *RecordStore) ListBySeries(seriesUID string) []annotation.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(rec annotation.Record) bool {
		return rec.SeriesUID == seriesUID
	})
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *RecordStore) listLocked(keep func(annotation.Record) bool) []annotation.Record {
	out := make([]annotation.Record, 0, len(s.records))
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	// insertion sort by arrival position; sessions hold tens of records
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && s.order[out[j].UID] < s.order[out[j-1].UID]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
