// Package tokenizer splits raw text into tokens. A token is a maximal run of
// ASCII letters; everything else is a delimiter. Case is preserved and no
// stemming or stop-word removal is applied.
package tokenizer

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// DelimiterPattern matches one or more non-alphabetic characters.
const DelimiterPattern = `[^a-zA-Z]+`

// Tokenizer splits lines of text on a delimiter pattern.
type Tokenizer struct {
	delim *regexp.Regexp
}

var defaultTokenizer = MustNew(DelimiterPattern)

// New compiles pattern as the delimiter between tokens.
func New(pattern string) (*Tokenizer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPatternCompile, err, "compiling %q", pattern)
	}
	return &Tokenizer{delim: re}, nil
}

// MustNew is like New but panics if the pattern does not compile.
func MustNew(pattern string) *Tokenizer {
	t, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the shared tokenizer for DelimiterPattern.
func Default() *Tokenizer {
	return defaultTokenizer
}

// Tokenize reads r line by line with the default delimiter pattern.
func Tokenize(r io.Reader) ([]string, error) {
	return defaultTokenizer.Tokenize(r)
}

// Tokenize reads r line by line and returns every non-empty token in order.
// Tokens never span a line break.
func (t *Tokenizer) Tokenize(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	tokens := make([]string, 0, 64)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			tokens = t.appendLine(tokens, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return tokens, nil
			}
			return nil, err
		}
	}
}

// TokenizeString is a convenience wrapper for in-memory text.
func (t *Tokenizer) TokenizeString(text string) []string {
	// strings.Reader never fails
	tokens, _ := t.Tokenize(strings.NewReader(text))
	return tokens
}

func (t *Tokenizer) appendLine(tokens []string, line string) []string {
	for _, tok := range t.delim.Split(line, -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
