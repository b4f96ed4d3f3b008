package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/middleware"
)

type SearchExecutor interface {
	Term(token string) (*executor.TermStats, error)
	Search(ctx context.Context, ix *index.Index, token string, limit int) (*executor.SearchResult, error)
}

type IndexProvider interface {
	Index() (*index.Index, error)
}

// Tracker is implemented by *analytics.Collector.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Options struct {
	Cache        *cache.QueryCache
	Tracker      Tracker
	Metrics      *metrics.Metrics
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor SearchExecutor
	provider IndexProvider
	opts     Options
	logger   *slog.Logger
}

type documentInfo struct {
	DocID       string    `json:"doc_id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	State       string    `json:"state"`
	TotalTokens int       `json:"total_tokens"`
	Distinct    int       `json:"distinct_terms"`
	CreatedAt   time.Time `json:"created_at"`
}

func New(exec SearchExecutor, provider IndexProvider, opts Options) *Handler {
	return &Handler{
		executor: exec,
		provider: provider,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/idf", h.IDF)
	mux.HandleFunc("GET /api/v1/documents", h.Documents)
	mux.HandleFunc("GET /api/v1/index", h.IndexInfo)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	token := r.URL.Query().Get("q")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, err := h.parseLimit(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	ix, err := h.provider.Index()
	if err == nil {
		// The cache key and the ranking must come from the same index.
		if h.opts.Cache != nil {
			result, cacheHit, err = h.opts.Cache.GetOrCompute(ctx, ix.ID().String(), token, limit, func() (*executor.SearchResult, error) {
				return h.executor.Search(ctx, ix, token, limit)
			})
		} else {
			result, err = h.executor.Search(ctx, ix, token, limit)
		}
	}
	if err != nil {
		h.observe("error", cacheHit, start, 0)
		log.Error("search execution failed", "query", token, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), publicMessage(err))
		return
	}

	latency := time.Since(start)
	resultType := "hit"
	if result.Matches == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheHit, start, result.Matches)
	log.Info("search completed",
		"query", token,
		"matches", result.Matches,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.opts.Tracker != nil {
		h.opts.Tracker.Track(newEvent(ctx, result, cacheHit, latency))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) IDF(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'token' is required")
		return
	}
	stats, err := h.executor.Term(token)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), publicMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	ix, err := h.provider.Index()
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), publicMessage(err))
		return
	}
	docs := ix.Documents()
	out := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentInfo{
			DocID:       d.ID().String(),
			Name:        d.Name(),
			Path:        d.Path(),
			State:       d.State().String(),
			TotalTokens: d.TotalTokens(),
			Distinct:    d.DistinctTerms(),
			CreatedAt:   d.CreatedAt(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"index_id":  ix.ID().String(),
		"documents": out,
	})
}

func (h *Handler) IndexInfo(w http.ResponseWriter, r *http.Request) {
	ix, err := h.provider.Index()
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), publicMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, ix.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.opts.Cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.opts.Cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) parseLimit(r *http.Request) (int, error) {
	limit := h.opts.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return 0, errors.New("limit must be a non-negative integer")
		}
		limit = parsed
	}
	if h.opts.MaxResults > 0 && (limit == 0 || limit > h.opts.MaxResults) {
		limit = h.opts.MaxResults
	}
	return limit, nil
}

func (h *Handler) observe(resultType string, cacheHit bool, start time.Time, matches int) {
	m := h.opts.Metrics
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	status := "miss"
	if cacheHit {
		status = "hit"
		m.CacheHitsTotal.Inc()
	} else if h.opts.Cache != nil {
		m.CacheMissesTotal.Inc()
	}
	m.SearchLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		m.SearchResultsCount.Observe(float64(matches))
	}
}

func newEvent(ctx context.Context, result *executor.SearchResult, cacheHit bool, latency time.Duration) analytics.SearchEvent {
	eventType := analytics.EventCacheMiss
	switch {
	case result.Matches == 0:
		eventType = analytics.EventZeroResult
	case cacheHit:
		eventType = analytics.EventCacheHit
	}
	var top string
	if result.Matches > 0 && len(result.Results) > 0 {
		top = result.Results[0].Path
	}
	return analytics.SearchEvent{
		Type:      eventType,
		Query:     result.Query,
		IndexID:   result.IndexID,
		IndexName: result.IndexName,
		Matches:   result.Matches,
		Returned:  len(result.Results),
		TopDoc:    top,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	}
}

// publicMessage hides internal error detail from clients.
func publicMessage(err error) string {
	switch apperrors.HTTPStatusCode(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusServiceUnavailable:
		if errors.Is(err, apperrors.ErrIndexNotReady) {
			return "index not ready"
		}
		return "service unavailable"
	default:
		return "search failed"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
