package repository

import (
	"context"
	"sync"

	"github.com/foxseedlab/bateponto/internal/repository"
)

// MemoryStore keeps records in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*repository.UserRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*repository.UserRecord)}
}

func (s *MemoryStore) LoadUserRecord(_ context.Context, userID string) (*repository.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[userID].Clone(), nil
}

func (s *MemoryStore) SaveUserRecord(_ context.Context, userID string, record *repository.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		s.order = append(s.order, userID)
	}
	s.records[userID] = record.Clone()
	return nil
}

func (s *MemoryStore) ListUserRecords(_ context.Context) ([]repository.UserRecordEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.UserRecordEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, repository.UserRecordEntry{UserID: id, Record: s.records[id].Clone()})
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
