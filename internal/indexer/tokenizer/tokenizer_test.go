package tokenizer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "punctuation and line break",
			input:    "Test; testing!\nThis is another sentence; with tokens.",
			expected: []string{"Test", "testing", "This", "is", "another", "sentence", "with", "tokens"},
		},
		{
			name:     "case preserved",
			input:    "Test test TEST",
			expected: []string{"Test", "test", "TEST"},
		},
		{
			name:     "digits are delimiters",
			input:    "abc123def 42",
			expected: []string{"abc", "def"},
		},
		{
			name:     "word split across lines",
			input:    "hyph\nenated",
			expected: []string{"hyph", "enated"},
		},
		{
			name:     "crlf line endings",
			input:    "one\r\ntwo\r\n",
			expected: []string{"one", "two"},
		},
		{
			name:     "non ascii letters delimit",
			input:    "café naïve",
			expected: []string{"caf", "na", "ve"},
		},
		{
			name:     "duplicates kept",
			input:    "apple apple apple",
			expected: []string{"apple", "apple", "apple"},
		},
		{
			name:     "no trailing newline",
			input:    "last",
			expected: []string{"last"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "only delimiters",
			input:    "  ;;; 123 \n\n !!",
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestTokenizeLongLine(t *testing.T) {
	line := strings.Repeat("word ", 100_000)

	tokens, err := Tokenize(strings.NewReader(line))

	require.NoError(t, err)
	assert.Len(t, tokens, 100_000)
}

func TestTokenizeReadError(t *testing.T) {
	readErr := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("partial line"), iotest.ErrReader(readErr))

	tokens, err := Tokenize(r)

	assert.ErrorIs(t, err, readErr)
	assert.Nil(t, tokens)
}

func TestNewInvalidPattern(t *testing.T) {
	_, err := New(`[^a-z`)

	assert.ErrorIs(t, err, apperrors.ErrPatternCompile)
}

func TestMustNewPanicsOnInvalidPattern(t *testing.T) {
	assert.Panics(t, func() { MustNew(`(`) })
}

func TestTokenizeString(t *testing.T) {
	tok := MustNew(`[^a-z]+`)

	assert.Equal(t, []string{"ab", "cd"}, tok.TokenizeString("abXcd"))
}
