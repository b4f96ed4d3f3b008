// Package document builds the per-document term-frequency table that backs
// TF-IDF scoring.
package document

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// State is the lifecycle position of a document. Construction is currently
// synchronous, so a returned Document is always StateIndexed; the other
// values are reserved for an asynchronous build.
type State int

const (
	StatePending State = iota
	StateIndexing
	StateIndexed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateIndexing:
		return "indexing"
	case StateIndexed:
		return "indexed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MissingFilePolicy decides what happens when a path is not a regular file.
type MissingFilePolicy string

const (
	// MissingAsEmpty turns a missing or non-regular path into an empty
	// document.
	MissingAsEmpty MissingFilePolicy = "empty"
	// MissingAsError fails construction instead.
	MissingAsError MissingFilePolicy = "error"
)

// Valid reports whether p is a known policy.
func (p MissingFilePolicy) Valid() bool {
	return p == MissingAsEmpty || p == MissingAsError
}

type options struct {
	missing   MissingFilePolicy
	tokenizer *tokenizer.Tokenizer
	logger    *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithMissingFilePolicy overrides the default MissingAsEmpty policy.
func WithMissingFilePolicy(p MissingFilePolicy) Option {
	return func(o *options) {
		if p.Valid() {
			o.missing = p
		}
	}
}

// WithTokenizer replaces the default ASCII-letter tokenizer.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(o *options) {
		if t != nil {
			o.tokenizer = t
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Document is an immutable term-frequency table for one source file.
type Document struct {
	id        uuid.UUID
	name      string
	path      string
	createdAt time.Time
	updatedAt time.Time
	state     State
	tf        map[string]int
	total     int
}

// New reads and tokenizes the file at path. The display name is the last
// path element; a path without one fails with ErrMalformedPath.
func New(path string, opts ...Option) (*Document, error) {
	o := options{
		missing:   MissingAsEmpty,
		tokenizer: tokenizer.Default(),
		logger:    slog.Default().With("component", "document"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	name, err := displayName(path)
	if err != nil {
		return nil, err
	}
	tf, total, err := computeTF(path, o)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	doc := &Document{
		id:        uuid.New(),
		name:      name,
		path:      path,
		createdAt: now,
		updatedAt: now,
		state:     StateIndexed,
		tf:        tf,
		total:     total,
	}
	o.logger.Debug("document indexed",
		"doc_id", doc.id,
		"path", path,
		"distinct_terms", len(tf),
		"token_count", total,
	)
	return doc, nil
}

func displayName(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", apperrors.ErrMalformedPath)
	}
	base := filepath.Base(filepath.Clean(path))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: no file name in %q", apperrors.ErrMalformedPath, path)
	}
	return base, nil
}

func computeTF(path string, o options) (map[string]int, int, error) {
	tf := make(map[string]int)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		if o.missing == MissingAsError {
			if err == nil {
				err = fmt.Errorf("not a regular file (mode %s)", info.Mode().Type())
			}
			return nil, 0, apperrors.Wrap(apperrors.ErrDocumentRead, err, "stat %s", path)
		}
		o.logger.Debug("treating non-regular path as empty document", "path", path)
		return tf, 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDocumentRead, err, "opening %s", path)
	}
	defer f.Close()

	tokens, err := o.tokenizer.Tokenize(f)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDocumentRead, err, "reading %s", path)
	}
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf, len(tokens), nil
}

func (d *Document) ID() uuid.UUID        { return d.id }
func (d *Document) Name() string         { return d.name }
func (d *Document) Path() string         { return d.path }
func (d *Document) State() State         { return d.state }
func (d *Document) CreatedAt() time.Time { return d.createdAt }
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// TotalTokens is the sum of all counts in the term-frequency table.
func (d *Document) TotalTokens() int { return d.total }

// DistinctTerms is the number of entries in the term-frequency table.
func (d *Document) DistinctTerms() int { return len(d.tf) }

// Count returns the raw number of occurrences of token.
func (d *Document) Count(token string) int { return d.tf[token] }

// Contains reports whether token occurs at least once.
func (d *Document) Contains(token string) bool {
	_, ok := d.tf[token]
	return ok
}

// TermFrequency returns Count(token)/TotalTokens, or 0 for an empty document.
func (d *Document) TermFrequency(token string) float64 {
	if d.total == 0 {
		return 0
	}
	return float64(d.tf[token]) / float64(d.total)
}

// Terms iterates the term-frequency table in unspecified order.
func (d *Document) Terms() iter.Seq2[string, int] {
	return maps.All(d.tf)
}
