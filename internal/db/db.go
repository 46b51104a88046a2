// Package db is the Postgres-backed persistence for documents, chat
// history, and user memories, built on bun.
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// DocumentRecord tracks one ingested document per tenant.
type DocumentRecord struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string    `bun:"id,pk"`
	TenantID      string    `bun:"tenant_id,notnull"`
	SourceName    string    `bun:"source_name,notnull"`
	ChunkCount    int       `bun:"chunk_count,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// TurnRecord is one stored question/answer exchange.
type TurnRecord struct {
	bun.BaseModel `bun:"table:chat_history,alias:ch"`
	ID            string    `bun:"id,pk"`
	TenantID      string    `bun:"tenant_id,notnull"`
	Question      string    `bun:"question,notnull"`
	Answer        string    `bun:"answer,notnull"`
	Sources       []string  `bun:"sources,array"`
	Successful    bool      `bun:"successful,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// FactRecord is one key/value memory entry, unique per (tenant, key).
type FactRecord struct {
	bun.BaseModel `bun:"table:user_memories,alias:um"`
	TenantID      string    `bun:"tenant_id,pk"`
	Key           string    `bun:"memory_key,pk"`
	Value         string    `bun:"memory_value,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func ConnectDB(dsn string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{
		(*DocumentRecord)(nil),
		(*TurnRecord)(nil),
		(*FactRecord)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
