package debate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCompactShortTextVerbatim(t *testing.T) {
	assert.Equal(t, "hello world", compact("hello world", 200))
	assert.Equal(t, "", compact("", 200))
}

func TestCompactCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", compact("  a\n\tb   c \n", 200))
}

func TestCompactExactLimit(t *testing.T) {
	text := strings.Repeat("x", 200)
	assert.Equal(t, text, compact(text, 200))
}

func TestCompactTruncatesWithEllipsis(t *testing.T) {
	for _, length := range []int{201, 250, 1000} {
		text := strings.Repeat("x", length)
		got := compact(text, 200)
		assert.LessOrEqual(t, len(got), 200)
		assert.True(t, strings.HasSuffix(got, "..."), "expected ellipsis suffix, got %q", got)
	}
}

func TestCompactCountsRunesNotBytes(t *testing.T) {
	// 150 characters but 300 bytes: within the limit, returned verbatim.
	short := strings.Repeat("é", 150)
	assert.Equal(t, short, compact(short, 200))

	// Truncation must cut on rune boundaries and count runes, not bytes.
	long := strings.Repeat("日", 300)
	got := compact(long, 200)
	assert.True(t, utf8.ValidString(got), "truncated preview must be valid UTF-8")
	assert.Equal(t, 200, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestCompactTrimsTrailingSpaceBeforeEllipsis(t *testing.T) {
	// A space at the cut point must not survive in front of the ellipsis.
	text := strings.Repeat("word ", 50)
	got := compact(text, 200)
	assert.NotContains(t, got, " ...")
	assert.LessOrEqual(t, len(got), 200)
}
