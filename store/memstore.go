package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemStore keeps records in memory. Each stream is a slice ordered by Seq
// where the record at index i has Seq i+1.
type MemStore struct {
	mu      sync.RWMutex
	streams map[string][]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{streams: make(map[string][]Record)}
}

func (s *MemStore) Append(_ context.Context, record Record) (uint64, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.streams[record.Stream]
	record.Seq = uint64(len(records)) + 1
	s.streams[record.Stream] = append(records, record)
	return record.Seq, nil
}

func (s *MemStore) List(_ context.Context, stream string, afterSeq uint64, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.streams[stream]
	if afterSeq >= uint64(len(records)) {
		return nil, nil
	}
	records = records[afterSeq:]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return slices.Clone(records), nil
}

func (s *MemStore) LatestSeq(_ context.Context, stream string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.streams[stream])), nil
}

func (s *MemStore) Streams(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.streams)), nil
}

var _ EventStore = (*MemStore)(nil)
