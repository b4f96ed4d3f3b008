package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
)

// BuildRecorder receives the stats of every successful build.
type BuildRecorder interface {
	RecordBuild(ctx context.Context, stats index.Stats) error
}

// Engine owns the active corpus index. A rebuild constructs a complete new
// index and swaps it in; readers keep whatever index they already loaded.
type Engine struct {
	current  atomic.Pointer[index.Index]
	cfg      config.CorpusConfig
	metrics  *metrics.Metrics
	recorder BuildRecorder
	logger   *slog.Logger
}

// NewEngine creates an Engine without building anything. m and recorder may
// be nil.
func NewEngine(cfg config.CorpusConfig, m *metrics.Metrics, recorder BuildRecorder) *Engine {
	return &Engine{
		cfg:      cfg,
		metrics:  m,
		recorder: recorder,
		logger:   slog.Default().With("component", "indexer"),
	}
}

// Build indexes the configured corpus directory and makes it active. On
// failure the previously active index, if any, stays in place.
func (e *Engine) Build(ctx context.Context) (*index.Index, error) {
	start := time.Now()
	ix, err := index.Build(ctx, e.cfg.Dir, e.cfg.Name, index.Options{
		MissingFiles: document.MissingFilePolicy(e.cfg.MissingFiles),
		Workers:      e.cfg.Workers,
		Logger:       e.logger,
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("building corpus index %q: %w", e.cfg.Name, err)
	}
	prev := e.current.Swap(ix)
	if e.metrics != nil {
		e.metrics.IndexBuildsTotal.WithLabelValues("success").Inc()
		e.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
		e.metrics.DocsIndexedTotal.Add(float64(ix.Len()))
		e.metrics.CorpusDocuments.Set(float64(ix.Len()))
		e.metrics.VocabularySize.Set(float64(ix.VocabularySize()))
	}
	if prev != nil {
		e.logger.Info("active index replaced",
			"previous_id", prev.ID(),
			"index_id", ix.ID(),
		)
	}
	if e.recorder != nil {
		if err := e.recorder.RecordBuild(ctx, ix.Stats()); err != nil {
			e.logger.Warn("recording index build failed", "index_id", ix.ID(), "error", err)
		}
	}
	return ix, nil
}

// Index returns the active index, or ErrIndexNotReady before the first
// successful build.
func (e *Engine) Index() (*index.Index, error) {
	ix := e.current.Load()
	if ix == nil {
		return nil, apperrors.ErrIndexNotReady
	}
	return ix, nil
}

// Ready reports whether an index is active.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}
