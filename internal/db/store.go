package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/balashankar-d/PolicyPilot/internal/helper"
	"github.com/balashankar-d/PolicyPilot/internal/memory"
	"github.com/balashankar-d/PolicyPilot/internal/models"
)

// Store adapts the bun database to the persistence contracts the pipeline
// consumes (memory.Store plus the document registry).
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- document registry ----

func (s *Store) UpsertDocument(ctx context.Context, doc models.Document) error {
	rec := &DocumentRecord{
		ID:         doc.ID,
		TenantID:   doc.TenantID,
		SourceName: doc.SourceName,
		ChunkCount: doc.ChunkCount,
	}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("chunk_count = EXCLUDED.chunk_count").
		Set("source_name = EXCLUDED.source_name").
		Exec(ctx)
	return err
}

func (s *Store) CountDocuments(ctx context.Context, tenantID string) (int, error) {
	return s.db.NewSelect().
		Model((*DocumentRecord)(nil)).
		Where("tenant_id = ?", tenantID).
		Count(ctx)
}

func (s *Store) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	_, err := s.db.NewDelete().
		Model((*DocumentRecord)(nil)).
		Where("tenant_id = ? AND id = ?", tenantID, documentID).
		Exec(ctx)
	return err
}

// ---- conversation history ----

func (s *Store) SaveTurn(ctx context.Context, turn memory.Turn) error {
	id := turn.ID
	if id == "" {
		var err error
		id, err = helper.GenerateUUID()
		if err != nil {
			return err
		}
	}
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	rec := &TurnRecord{
		ID:         id,
		TenantID:   turn.TenantID,
		Question:   turn.Question,
		Answer:     turn.Answer,
		Sources:    turn.Sources,
		Successful: turn.Successful,
		CreatedAt:  createdAt,
	}
	_, err := s.db.NewInsert().Model(rec).Exec(ctx)
	return err
}

func (s *Store) RecentTurns(ctx context.Context, tenantID string, limit int) ([]memory.Turn, error) {
	var recs []TurnRecord
	err := s.db.NewSelect().
		Model(&recs).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	// chronological order for prompt building
	turns := make([]memory.Turn, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		turns = append(turns, memory.Turn{
			ID:         r.ID,
			TenantID:   r.TenantID,
			Question:   r.Question,
			Answer:     r.Answer,
			Sources:    r.Sources,
			Successful: r.Successful,
			CreatedAt:  r.CreatedAt,
		})
	}
	return turns, nil
}

func (s *Store) CountTurns(ctx context.Context, tenantID string) (int, int, error) {
	total, err := s.db.NewSelect().
		Model((*TurnRecord)(nil)).
		Where("tenant_id = ?", tenantID).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	successful, err := s.db.NewSelect().
		Model((*TurnRecord)(nil)).
		Where("tenant_id = ? AND successful", tenantID).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return total, successful, nil
}

func (s *Store) ClearTurns(ctx context.Context, tenantID string) error {
	_, err := s.db.NewDelete().
		Model((*TurnRecord)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	return err
}

// ---- key/value facts ----

func (s *Store) SetFact(ctx context.Context, tenantID, key, value string) error {
	rec := &FactRecord{
		TenantID:  tenantID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (tenant_id, memory_key) DO UPDATE").
		Set("memory_value = EXCLUDED.memory_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetFacts(ctx context.Context, tenantID string) (map[string]string, error) {
	var recs []FactRecord
	err := s.db.NewSelect().
		Model(&recs).
		Where("tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	facts := make(map[string]string, len(recs))
	for _, r := range recs {
		facts[r.Key] = r.Value
	}
	return facts, nil
}

func (s *Store) DeleteFact(ctx context.Context, tenantID, key string) error {
	_, err := s.db.NewDelete().
		Model((*FactRecord)(nil)).
		Where("tenant_id = ? AND memory_key = ?", tenantID, key).
		Exec(ctx)
	return err
}

func (s *Store) ClearFacts(ctx context.Context, tenantID string) error {
	_, err := s.db.NewDelete().
		Model((*FactRecord)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	return err
}
