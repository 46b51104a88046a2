// Package memory holds the per-tenant conversational state: durable
// key/value facts and the rolling history of question/answer turns.
package memory

import (
	"context"
	"time"
)

// Turn is one question/answer exchange. Turns are append-only per tenant.
type Turn struct {
	ID         string
	TenantID   string
	Question   string
	Answer     string
	Sources    []string
	Successful bool
	CreatedAt  time.Time
}

// Fact is a durable key/value memory entry. Keys are unique per tenant and
// overwritten on re-set.
type Fact struct {
	TenantID  string
	Key       string
	Value     string
	UpdatedAt time.Time
}

// ConversationStore persists turns and serves the recent-history window
// and the counters behind tenant stats.
type ConversationStore interface {
	SaveTurn(ctx context.Context, turn Turn) error
	// RecentTurns returns up to limit turns in chronological order.
	RecentTurns(ctx context.Context, tenantID string, limit int) ([]Turn, error)
	CountTurns(ctx context.Context, tenantID string) (total, successful int, err error)
	ClearTurns(ctx context.Context, tenantID string) error
}

// FactStore persists key/value facts.
type FactStore interface {
	SetFact(ctx context.Context, tenantID, key, value string) error
	GetFacts(ctx context.Context, tenantID string) (map[string]string, error)
	DeleteFact(ctx context.Context, tenantID, key string) error
	ClearFacts(ctx context.Context, tenantID string) error
}

// Store combines both persistence surfaces; the bun and in-memory
// implementations satisfy it.
type Store interface {
	ConversationStore
	FactStore
}
