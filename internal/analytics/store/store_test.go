package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
)

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, f.err
}

func TestRecordBuild(t *testing.T) {
	db := &fakeExecer{}
	s := New(db)
	builtAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	err := s.RecordBuild(context.Background(), index.Stats{
		ID:             "0b8f6c1e-3f5d-4b43-9d43-1f4f4b0f1a2b",
		Name:           "books",
		Dir:            "/data",
		Documents:      3,
		VocabularySize: 40,
		TotalTokens:    120,
		BuildDuration:  1500 * time.Millisecond,
		BuiltAt:        builtAt,
	})
	require.NoError(t, err)

	require.Len(t, db.calls, 1)
	assert.True(t, strings.HasPrefix(db.calls[0].query, "INSERT INTO index_builds"))
	args := db.calls[0].args
	require.Len(t, args, 8)
	assert.Equal(t, "books", args[1])
	assert.Equal(t, int64(1500), args[6])
	assert.Equal(t, builtAt.UTC(), args[7])
}

func TestRecordBuildError(t *testing.T) {
	s := New(&fakeExecer{err: errors.New("connection reset")})

	err := s.RecordBuild(context.Background(), index.Stats{ID: "abc"})

	assert.ErrorContains(t, err, "saving index build abc")
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeExecer{}

	require.NoError(t, New(db).EnsureSchema(context.Background()))

	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].query, "CREATE TABLE IF NOT EXISTS index_builds")
}
