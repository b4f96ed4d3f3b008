// Package index aggregates documents into a corpus and scores them against a
// query token with TF-IDF. An Index is immutable once built, so concurrent
// readers need no locking.
package index

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// State mirrors document.State at corpus level. Build only ever returns a
// Ready index; the remaining values are reserved for an asynchronous build.
type State int

const (
	StateInitializing State = iota
	StateUpdating
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUpdating:
		return "updating"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options controls how documents are read during Build.
type Options struct {
	MissingFiles document.MissingFilePolicy
	// Workers bounds parallel document construction. Values below 2 build
	// sequentially.
	Workers   int
	Tokenizer *tokenizer.Tokenizer
	Logger    *slog.Logger
}

// ScoredDocument is one entry of a ranking.
type ScoredDocument = ranker.ScorePair[*document.Document]

// Stats summarises a built index.
type Stats struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Dir            string        `json:"dir"`
	State          string        `json:"state"`
	Documents      int           `json:"documents"`
	VocabularySize int           `json:"vocabulary_size"`
	TotalTokens    int64         `json:"total_tokens"`
	BuiltAt        time.Time     `json:"built_at"`
	BuildDuration  time.Duration `json:"build_duration"`
}

// Index is an immutable TF-IDF corpus.
type Index struct {
	id        uuid.UUID
	name      string
	dir       string
	state     State
	documents map[string]*document.Document
	docFreq   map[string]int
	builtAt   time.Time
	buildTime time.Duration
}

// Build reads every entry of dir (non-recursively) into a Document and
// aggregates document frequencies. Any single failure aborts the whole
// build; no partial index is returned.
func Build(ctx context.Context, dir, name string, opts Options) (*Index, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "corpus-index")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorpusRead, err, "listing %s", dir)
	}

	docOpts := []document.Option{
		document.WithMissingFilePolicy(opts.MissingFiles),
		document.WithTokenizer(opts.Tokenizer),
		document.WithLogger(logger),
	}
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = filepath.Join(dir, entry.Name())
	}
	docs := make([]*document.Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 1 {
		g.SetLimit(opts.Workers)
	} else {
		g.SetLimit(1)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("building %s: %w", path, err)
			}
			doc, err := document.New(path, docOpts...)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", path, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("index build failed", "dir", dir, "name", name, "error", err)
		return nil, err
	}

	byPath := make(map[string]*document.Document, len(docs))
	for i, doc := range docs {
		byPath[paths[i]] = doc
	}
	ix := newIndex(name, dir, byPath)
	ix.buildTime = time.Since(start)
	logger.Info("index built",
		"index_id", ix.id,
		"name", name,
		"dir", dir,
		"documents", len(byPath),
		"vocabulary", len(ix.docFreq),
		"duration", ix.buildTime,
	)
	return ix, nil
}

// FromDocuments builds an index over already constructed documents keyed by
// source path.
func FromDocuments(name string, documents map[string]*document.Document) *Index {
	docs := make(map[string]*document.Document, len(documents))
	for path, doc := range documents {
		docs[path] = doc
	}
	return newIndex(name, "", docs)
}

func newIndex(name, dir string, docs map[string]*document.Document) *Index {
	return &Index{
		id:        uuid.New(),
		name:      name,
		dir:       dir,
		state:     StateReady,
		documents: docs,
		docFreq:   documentFrequencies(docs),
		builtAt:   time.Now(),
	}
}

// documentFrequencies counts, per token, how many documents contain it.
func documentFrequencies(docs map[string]*document.Document) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		for term := range doc.Terms() {
			df[term]++
		}
	}
	return df
}

func (ix *Index) ID() uuid.UUID { return ix.id }
func (ix *Index) Name() string  { return ix.name }
func (ix *Index) Dir() string   { return ix.dir }
func (ix *Index) State() State  { return ix.state }

// Len is the number of documents in the corpus.
func (ix *Index) Len() int { return len(ix.documents) }

// VocabularySize is the number of distinct tokens in the corpus.
func (ix *Index) VocabularySize() int { return len(ix.docFreq) }

// Document returns the document built from path.
func (ix *Index) Document(path string) (*document.Document, bool) {
	doc, ok := ix.documents[path]
	return doc, ok
}

// Documents returns all documents ordered by path.
func (ix *Index) Documents() []*document.Document {
	out := make([]*document.Document, 0, len(ix.documents))
	for _, doc := range ix.documents {
		out = append(out, doc)
	}
	slices.SortFunc(out, func(a, b *document.Document) int {
		return cmp.Compare(a.Path(), b.Path())
	})
	return out
}

// DocumentFrequency returns the number of documents containing token.
func (ix *Index) DocumentFrequency(token string) int {
	return ix.docFreq[token]
}

// IDF returns the entropy -log2(p) of the smoothed probability
// p = (1+df)/(1+N). Unseen tokens get the corpus maximum log2(1+N).
func (ix *Index) IDF(token string) float64 {
	n := float64(len(ix.documents))
	df := float64(ix.docFreq[token])
	return math.Log2((1 + n) / (1 + df))
}

// Rank scores every document against token with TF x IDF and returns all of
// them, highest score first. Documents without the token score zero and
// trail the result. Equal scores are ordered by name, then path.
func (ix *Index) Rank(token string) []ScoredDocument {
	idf := ix.IDF(token)
	r := ranker.NewRanking(compareDocuments)
	for _, doc := range ix.documents {
		r.Insert(ranker.NewScorePair(doc.TermFrequency(token)*idf, doc))
	}
	return r.Sorted()
}

func compareDocuments(a, b *document.Document) int {
	if c := cmp.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	return cmp.Compare(a.Path(), b.Path())
}

// Stats reports corpus-level counters.
func (ix *Index) Stats() Stats {
	var total int64
	for _, doc := range ix.documents {
		total += int64(doc.TotalTokens())
	}
	return Stats{
		ID:             ix.id.String(),
		Name:           ix.name,
		Dir:            ix.dir,
		State:          ix.state.String(),
		Documents:      len(ix.documents),
		VocabularySize: len(ix.docFreq),
		TotalTokens:    total,
		BuiltAt:        ix.builtAt,
		BuildDuration:  ix.buildTime,
	}
}
