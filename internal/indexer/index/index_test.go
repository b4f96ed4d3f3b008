package index

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func buildFruit(t *testing.T) (*Index, string) {
	t.Helper()
	dir := writeCorpus(t, map[string]string{
		"a.txt": "apple apple apple",
		"b.txt": "apple banana",
	})
	ix, err := Build(context.Background(), dir, "fruit", Options{})
	require.NoError(t, err)
	return ix, dir
}

func TestBuildTwoDocumentScenario(t *testing.T) {
	ix, dir := buildFruit(t)

	assert.Equal(t, "fruit", ix.Name())
	assert.Equal(t, dir, ix.Dir())
	assert.Equal(t, StateReady, ix.State())
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, 2, ix.VocabularySize())
	assert.Equal(t, 2, ix.DocumentFrequency("apple"))
	assert.Equal(t, 1, ix.DocumentFrequency("banana"))
	assert.Equal(t, 0, ix.DocumentFrequency("cherry"))

	_, ok := ix.Document(filepath.Join(dir, "a.txt"))
	assert.True(t, ok)

	apple := ix.Rank("apple")
	require.Len(t, apple, 2)
	for _, p := range apple {
		assert.Greater(t, p.Priority, 0.0, p.Payload.Name())
	}
	// a.txt has tf 1.0 versus 0.5 for b.txt
	assert.Equal(t, "a.txt", apple[0].Payload.Name())

	banana := ix.Rank("banana")
	require.Len(t, banana, 2)
	assert.Equal(t, "b.txt", banana[0].Payload.Name())
	assert.Greater(t, banana[0].Priority, 0.0)
	assert.Equal(t, "a.txt", banana[1].Payload.Name())
	assert.Equal(t, 0.0, banana[1].Priority)
}

func TestIDF(t *testing.T) {
	ix, _ := buildFruit(t)

	assert.InDelta(t, math.Log2(3), ix.IDF("cherry"), 1e-12)
	assert.InDelta(t, math.Log2(3.0/2.0), ix.IDF("banana"), 1e-12)
	assert.InDelta(t, 0.0, ix.IDF("apple"), 1e-12)
	assert.Greater(t, ix.IDF("cherry"), ix.IDF("banana"))
	assert.Greater(t, ix.IDF("banana"), ix.IDF("apple"))
}

func TestIDFMonotonicInDocumentFrequency(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 6; i++ {
		content := ""
		for k := 0; k <= i; k++ {
			content += fmt.Sprintf("t%c ", 'a'+k)
		}
		files[fmt.Sprintf("d%d.txt", i)] = content
	}
	ix, err := Build(context.Background(), writeCorpus(t, files), "mono", Options{})
	require.NoError(t, err)

	// "ta" is in all 6 documents, "tf" only in one
	prev := math.Inf(-1)
	for _, tok := range []string{"ta", "tb", "tc", "td", "te", "tf"} {
		assert.LessOrEqual(t, ix.DocumentFrequency(tok), ix.Len())
		idf := ix.IDF(tok)
		assert.GreaterOrEqual(t, idf, 0.0)
		assert.Greater(t, idf, prev, tok)
		prev = idf
	}
	assert.Less(t, prev, ix.IDF("missing"))
	assert.InDelta(t, math.Log2(7), ix.IDF("missing"), 1e-12)
}

func TestRankIsPermutationInDescendingOrder(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"1.txt": "go go go rust",
		"2.txt": "go rust rust rust",
		"3.txt": "python",
		"4.txt": "",
		"5.txt": "go",
	})
	ix, err := Build(context.Background(), dir, "langs", Options{})
	require.NoError(t, err)

	ranked := ix.Rank("go")

	require.Len(t, ranked, ix.Len())
	seen := make(map[string]bool)
	for i, p := range ranked {
		assert.False(t, seen[p.Payload.Path()], "duplicate %s", p.Payload.Path())
		seen[p.Payload.Path()] = true
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Priority, p.Priority)
		}
		want := p.Payload.TermFrequency("go") * ix.IDF("go")
		assert.InDelta(t, want, p.Priority, 1e-12)
	}
	assert.Equal(t, "5.txt", ranked[0].Payload.Name())
	// zero scores tie-break by name
	assert.Equal(t, "3.txt", ranked[3].Payload.Name())
	assert.Equal(t, "4.txt", ranked[4].Payload.Name())
}

func TestRankIsIdempotent(t *testing.T) {
	ix, _ := buildFruit(t)

	assert.Equal(t, ix.Rank("apple"), ix.Rank("apple"))
}

func TestRankUnknownTokenScoresZero(t *testing.T) {
	ix, _ := buildFruit(t)

	ranked := ix.Rank("durian")

	require.Len(t, ranked, 2)
	for _, p := range ranked {
		assert.Equal(t, 0.0, p.Priority)
	}
}

func TestBuildEmptyDirectory(t *testing.T) {
	ix, err := Build(context.Background(), t.TempDir(), "empty", Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Rank("anything"))
	assert.Equal(t, 0.0, ix.IDF("anything"))
}

func TestBuildMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	ix, err := Build(context.Background(), dir, "x", Options{})

	assert.Nil(t, ix)
	assert.ErrorIs(t, err, apperrors.ErrCorpusRead)
	assert.Contains(t, err.Error(), dir)
}

func TestBuildSubdirectoryPolicy(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "hello"})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	ix, err := Build(context.Background(), dir, "lenient", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	nested, ok := ix.Document(filepath.Join(dir, "nested"))
	require.True(t, ok)
	assert.Equal(t, 0, nested.TotalTokens())

	ix, err = Build(context.Background(), dir, "strict", Options{MissingFiles: document.MissingAsError})
	assert.Nil(t, ix)
	assert.ErrorIs(t, err, apperrors.ErrDocumentRead)
	assert.Contains(t, err.Error(), "nested")
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 40; i++ {
		files[fmt.Sprintf("doc%02d.txt", i)] = fmt.Sprintf("common w%d w%d rare%d", i%5, i%3, i)
	}
	dir := writeCorpus(t, files)

	seq, err := Build(context.Background(), dir, "seq", Options{Workers: 1})
	require.NoError(t, err)
	par, err := Build(context.Background(), dir, "par", Options{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, seq.Len(), par.Len())
	assert.Equal(t, seq.VocabularySize(), par.VocabularySize())
	for _, tok := range []string{"common", "w0", "w2", "rare7", "none"} {
		assert.Equal(t, seq.DocumentFrequency(tok), par.DocumentFrequency(tok), tok)
		s, p := seq.Rank(tok), par.Rank(tok)
		require.Len(t, p, len(s))
		for i := range s {
			assert.Equal(t, s[i].Payload.Path(), p[i].Payload.Path())
			assert.InDelta(t, s[i].Priority, p[i].Priority, 1e-12)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "x", "b.txt": "y"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, err := Build(ctx, dir, "cancelled", Options{})

	assert.Nil(t, ix)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocumentFrequencyMatchesDocuments(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"x.txt": "red green blue red",
		"y.txt": "green Green",
		"z.txt": "blue",
	})
	ix, err := Build(context.Background(), dir, "colors", Options{})
	require.NoError(t, err)

	docs := ix.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "x.txt", docs[0].Name())
	for _, doc := range docs {
		for term := range doc.Terms() {
			want := 0
			for _, other := range docs {
				if other.Contains(term) {
					want++
				}
			}
			assert.Equal(t, want, ix.DocumentFrequency(term), term)
		}
	}
}

func TestFromDocuments(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "one two", "b.txt": "two"})
	a, err := document.New(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	b, err := document.New(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)

	ix := FromDocuments("manual", map[string]*document.Document{a.Path(): a, b.Path(): b})

	assert.Equal(t, 2, ix.DocumentFrequency("two"))
	assert.Equal(t, 1, ix.DocumentFrequency("one"))
	assert.Equal(t, "", ix.Dir())
}

func TestStats(t *testing.T) {
	ix, dir := buildFruit(t)

	stats := ix.Stats()

	assert.Equal(t, ix.ID().String(), stats.ID)
	assert.Equal(t, "fruit", stats.Name)
	assert.Equal(t, dir, stats.Dir)
	assert.Equal(t, "ready", stats.State)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.VocabularySize)
	assert.Equal(t, int64(5), stats.TotalTokens)
	assert.False(t, stats.BuiltAt.IsZero())
}

func TestUniqueIndexIDs(t *testing.T) {
	a, _ := buildFruit(t)
	b, _ := buildFruit(t)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "updating", StateUpdating.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "error", StateError.String())
}
