package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// IndexProvider hands out the currently active index.
type IndexProvider interface {
	Index() (*index.Index, error)
}

type ScoredDoc struct {
	DocID         string  `json:"doc_id"`
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	Score         float64 `json:"score"`
	TermFrequency float64 `json:"term_frequency"`
}

type SearchResult struct {
	Query             string      `json:"query"`
	IndexID           string      `json:"index_id"`
	IndexName         string      `json:"index_name"`
	IDF               float64     `json:"idf"`
	DocumentFrequency int         `json:"document_frequency"`
	TotalDocs         int         `json:"total_docs"`
	Matches           int         `json:"matches"`
	Results           []ScoredDoc `json:"results"`
}

type TermStats struct {
	Token             string  `json:"token"`
	IndexID           string  `json:"index_id"`
	DocumentFrequency int     `json:"document_frequency"`
	TotalDocs         int     `json:"total_docs"`
	IDF               float64 `json:"idf"`
}

type Executor struct {
	provider IndexProvider
	logger   *slog.Logger
}

func New(provider IndexProvider) *Executor {
	return &Executor{
		provider: provider,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Execute ranks every document of the active index against token and
// returns the first limit entries; limit <= 0 returns the whole ranking.
func (e *Executor) Execute(ctx context.Context, token string, limit int) (*SearchResult, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty query token", apperrors.ErrInvalidInput)
	}
	ix, err := e.provider.Index()
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, ix, token, limit)
}

// Search is Execute against a specific index. Callers that key anything on
// the index ID resolve the index once and pass it here. Scores are the raw
// TF-IDF values; Matches counts exactly the results with a positive score.
func (e *Executor) Search(ctx context.Context, ix *index.Index, token string, limit int) (*SearchResult, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty query token", apperrors.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked := ix.Rank(token)
	matches := 0
	for _, p := range ranked {
		if p.Priority > 0 {
			matches++
		}
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	results := make([]ScoredDoc, 0, len(ranked))
	for _, p := range ranked {
		doc := p.Payload
		results = append(results, ScoredDoc{
			DocID:         doc.ID().String(),
			Name:          doc.Name(),
			Path:          doc.Path(),
			Score:         p.Priority,
			TermFrequency: doc.TermFrequency(token),
		})
	}
	e.logger.Debug("query executed",
		"index_id", ix.ID(),
		"query", token,
		"matches", matches,
		"returned", len(results),
	)
	return &SearchResult{
		Query:             token,
		IndexID:           ix.ID().String(),
		IndexName:         ix.Name(),
		IDF:               ix.IDF(token),
		DocumentFrequency: ix.DocumentFrequency(token),
		TotalDocs:         ix.Len(),
		Matches:           matches,
		Results:           results,
	}, nil
}

// Term reports document frequency and IDF for token.
func (e *Executor) Term(token string) (*TermStats, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", apperrors.ErrInvalidInput)
	}
	ix, err := e.provider.Index()
	if err != nil {
		return nil, err
	}
	return &TermStats{
		Token:             token,
		IndexID:           ix.ID().String(),
		DocumentFrequency: ix.DocumentFrequency(token),
		TotalDocs:         ix.Len(),
		IDF:               ix.IDF(token),
	}, nil
}
