package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
)

type fakeRecorder struct {
	stats []index.Stats
	err   error
}

func (f *fakeRecorder) RecordBuild(_ context.Context, stats index.Stats) error {
	f.stats = append(f.stats, stats)
	return f.err
}

func corpusConfig(t *testing.T) config.CorpusConfig {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("apple apple"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("apple banana"), 0o644))
	return config.CorpusConfig{Dir: dir, Name: "fruit", MissingFiles: "empty", Workers: 2}
}

func TestEngineBuild(t *testing.T) {
	cfg := corpusConfig(t)
	m := metrics.New(prometheus.NewRegistry())
	rec := &fakeRecorder{}
	e := NewEngine(cfg, m, rec)

	_, err := e.Index()
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
	assert.False(t, e.Ready())

	built, err := e.Build(context.Background())
	require.NoError(t, err)

	active, err := e.Index()
	require.NoError(t, err)
	assert.Same(t, built, active)
	assert.True(t, e.Ready())
	assert.Equal(t, 2, active.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CorpusDocuments))
	require.Len(t, rec.stats, 1)
	assert.Equal(t, "fruit", rec.stats[0].Name)
}

func TestEngineRebuildSwapsIndex(t *testing.T) {
	cfg := corpusConfig(t)
	e := NewEngine(cfg, nil, nil)

	first, err := e.Build(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "c.txt"), []byte("cherry"), 0o644))
	second, err := e.Build(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 3, second.Len())
	active, _ := e.Index()
	assert.Same(t, second, active)
}

func TestEngineFailedBuildKeepsPrevious(t *testing.T) {
	cfg := corpusConfig(t)
	m := metrics.New(prometheus.NewRegistry())
	e := NewEngine(cfg, m, nil)
	first, err := e.Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(cfg.Dir, "sub"), 0o755))
	e.cfg.MissingFiles = "error"
	_, err = e.Build(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrDocumentRead)
	assert.ErrorContains(t, err, "fruit")
	active, _ := e.Index()
	assert.Same(t, first, active)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("error")))
}

func TestEngineRecorderErrorIsNotFatal(t *testing.T) {
	e := NewEngine(corpusConfig(t), nil, &fakeRecorder{err: errors.New("db down")})

	_, err := e.Build(context.Background())

	assert.NoError(t, err)
	assert.True(t, e.Ready())
}
