// Package store keeps an audit trail of corpus index builds in PostgreSQL.
// Rows are never read back to restore an index; every process builds its
// own index from the corpus directory.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
)

const schema = `CREATE TABLE IF NOT EXISTS index_builds (
    id              BIGSERIAL PRIMARY KEY,
    index_id        UUID NOT NULL,
    index_name      TEXT NOT NULL,
    corpus_dir      TEXT NOT NULL,
    documents       INTEGER NOT NULL,
    vocabulary_size INTEGER NOT NULL,
    total_tokens    BIGINT NOT NULL,
    build_ms        BIGINT NOT NULL,
    built_at        TIMESTAMPTZ NOT NULL
)`

const insertBuild = `INSERT INTO index_builds
    (index_id, index_name, corpus_dir, documents, vocabulary_size, total_tokens, build_ms, built_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// BuildStore records index build summaries.
type BuildStore struct {
	db     Execer
	logger *slog.Logger
}

func New(db Execer) *BuildStore {
	return &BuildStore{
		db:     db,
		logger: slog.Default().With("component", "build-store"),
	}
}

// EnsureSchema creates the index_builds table if it does not exist.
func (s *BuildStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating index_builds table: %w", err)
	}
	return nil
}

// RecordBuild inserts one row for a successful build.
func (s *BuildStore) RecordBuild(ctx context.Context, stats index.Stats) error {
	_, err := s.db.ExecContext(ctx, insertBuild,
		stats.ID,
		stats.Name,
		stats.Dir,
		stats.Documents,
		stats.VocabularySize,
		stats.TotalTokens,
		stats.BuildDuration.Milliseconds(),
		stats.BuiltAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving index build %s: %w", stats.ID, err)
	}
	s.logger.Info("index build recorded",
		"index_id", stats.ID,
		"documents", stats.Documents,
	)
	return nil
}
