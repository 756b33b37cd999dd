package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijkl", 10))
	assert.Equal(t, "anything", Truncate("anything", 0))
}

func TestTruncate_NeverExceedsMax(t *testing.T) {
	long := strings.Repeat("é", 1000)
	for _, max := range []int{4, 50, 200, 400} {
		out := Truncate(long, max)
		assert.Equal(t, max, utf8.RuneCountInString(out))
		assert.True(t, strings.HasSuffix(out, Ellipsis))
		assert.True(t, utf8.ValidString(out))
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  {\"a\":1} "))
}

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nli.system.txt"), []byte("  custom prompt \n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.system.txt"), []byte("   "), 0o600))

	assert.Equal(t, "custom prompt", LoadSystemPrompt(dir, "nli", "default"))
	assert.Equal(t, "default", LoadSystemPrompt(dir, "blank", "default"))
	assert.Equal(t, "default", LoadSystemPrompt(dir, "missing", "default"))
	assert.Equal(t, "default", LoadSystemPrompt("", "nli", "default"))
}
