package memory

import (
	"context"
	"sync"

	"github.com/smarvasti/haftify/internal/domain"
)

// ProgressStore is an in-memory implementation of quiz.ProgressRepository,
// keyed by (user, catalog, question) with overwrite semantics.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressSet // user/catalog -> questionID -> Progress
	rollups map[string]domain.Rollup
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records: make(map[string]domain.ProgressSet),
		rollups: make(map[string]domain.Rollup),
	}
}

func (s *ProgressStore) LoadCatalogProgress(_ context.Context, userID, catalogID string) (domain.ProgressSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.ProgressSet)
	for id, p := range s.records[key(userID, catalogID)] {
		out[id] = p
	}
	return out, nil
}

func (s *ProgressStore) SaveProgress(_ context.Context, userID, catalogID string, p domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(userID, catalogID)
	if s.records[k] == nil {
		s.records[k] = make(domain.ProgressSet)
	}
	s.records[k][p.QuestionID] = p
	return nil
}

func (s *ProgressStore) ResetProgress(_ context.Context, userID, catalogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key(userID, catalogID))
	return nil
}

func (s *ProgressStore) UpdateCatalogRollup(_ context.Context, userID, catalogID string, r domain.Rollup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollups[key(userID, catalogID)] = r
	return nil
}

// Rollup returns the stored rollup, for tests and the dashboard endpoint.
func (s *ProgressStore) Rollup(userID, catalogID string) (domain.Rollup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rollups[key(userID, catalogID)]
	return r, ok
}

func key(userID, catalogID string) string {
	return userID + "/" + catalogID
}
