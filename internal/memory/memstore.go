package memory

import (
	"context"
	"sync"
	"time"

	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// MemStore is a mutex-guarded in-memory Store plus document registry. It
// backs tests and the database-less mode; state there lives only for the
// process lifetime.
type MemStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
	facts map[string]map[string]string
	docs  map[string]map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{
		turns: map[string][]Turn{},
		facts: map[string]map[string]string{},
		docs:  map[string]map[string]int{},
	}
}

// UpsertDocument records (or replaces) a document's registry row.
func (s *MemStore) UpsertDocument(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[doc.TenantID] == nil {
		s.docs[doc.TenantID] = map[string]int{}
	}
	s.docs[doc.TenantID][doc.ID] = doc.ChunkCount
	return nil
}

func (s *MemStore) CountDocuments(_ context.Context, tenantID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[tenantID]), nil
}

func (s *MemStore) DeleteDocument(_ context.Context, tenantID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[tenantID], documentID)
	return nil
}

func (s *MemStore) SaveTurn(_ context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.turns[turn.TenantID] = append(s.turns[turn.TenantID], turn)
	return nil
}

func (s *MemStore) RecentTurns(_ context.Context, tenantID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.turns[tenantID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Turn, len(all))
	copy(out, all)
	return out, nil
}

func (s *MemStore) CountTurns(_ context.Context, tenantID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := len(s.turns[tenantID])
	successful := 0
	for _, t := range s.turns[tenantID] {
		if t.Successful {
			successful++
		}
	}
	return total, successful, nil
}

func (s *MemStore) ClearTurns(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, tenantID)
	return nil
}

func (s *MemStore) SetFact(_ context.Context, tenantID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.facts[tenantID] == nil {
		s.facts[tenantID] = map[string]string{}
	}
	s.facts[tenantID][key] = value
	return nil
}

func (s *MemStore) GetFacts(_ context.Context, tenantID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.facts[tenantID]))
	for k, v := range s.facts[tenantID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) DeleteFact(_ context.Context, tenantID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.facts[tenantID], key)
	return nil
}

func (s *MemStore) ClearFacts(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.facts, tenantID)
	return nil
}
