package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

// wordCounter treats every whitespace-separated field as one token.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// runeCounter approximates four runes per token, like the heuristic
// fallback. Useful for separator-free inputs where word counting collapses.
type runeCounter struct{}

func (runeCounter) CountTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}

func wordsText(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("word%03d", i))
	}
	return strings.Join(parts, " ")
}

func TestChunkTextRejectsEmptyInput(t *testing.T) {
	c := New(wordCounter{}, Options{ChunkSize: 100, Overlap: 10, MinChunkSize: 5})
	_, err := c.ChunkText("")
	require.ErrorIs(t, err, appErr.ErrEmptyDocument)
	_, err = c.ChunkText("   \n\t  ")
	require.ErrorIs(t, err, appErr.ErrEmptyDocument)
}

func TestChunkTextSingleChunkShortcut(t *testing.T) {
	c := New(wordCounter{}, Options{ChunkSize: 100, Overlap: 10, MinChunkSize: 5})
	text := wordsText(40)
	chunks, err := c.ChunkText(text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 0, chunks[0].Index)
	require.Equal(t, 1, chunks[0].TotalChunks)
	require.Equal(t, 0, chunks[0].StartOffset)
	require.Equal(t, len([]rune(text)), chunks[0].EndOffset)
	require.Equal(t, 40, chunks[0].TokenCount)
	require.Equal(t, text, chunks[0].Content)
}

func TestChunkTextWindowsAndOverlap(t *testing.T) {
	c := New(wordCounter{}, Options{ChunkSize: 50, Overlap: 10, MinChunkSize: 5})
	text := wordsText(300)
	chunks, err := c.ChunkText(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	require.Equal(t, 0, chunks[0].StartOffset)
	require.Equal(t, len([]rune(text)), chunks[len(chunks)-1].EndOffset)

	for i, ch := range chunks {
		require.Equal(t, i, ch.Index)
		require.Equal(t, len(chunks), ch.TotalChunks)
		require.LessOrEqual(t, ch.TokenCount, 50)
		require.Greater(t, ch.TokenCount, 0)
		require.NotEmpty(t, ch.Content)
	}
	for i := 1; i < len(chunks); i++ {
		// coverage: no gaps between consecutive windows
		require.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset)
		// progress: every window advances
		require.Greater(t, chunks[i].StartOffset, chunks[i-1].StartOffset)
	}
	// overlap seams share text with the previous window
	overlapSeen := false
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset < chunks[i-1].EndOffset {
			overlapSeen = true
		}
	}
	require.True(t, overlapSeen)
}

func TestChunkTextPrefersSentenceBoundaries(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "This is sentence number %d. ", i)
	}
	text := strings.TrimSpace(sb.String())

	c := New(wordCounter{}, Options{ChunkSize: 30, Overlap: 5, MinChunkSize: 4})
	chunks, err := c.ChunkText(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks[:len(chunks)-1] {
		require.True(t, strings.HasSuffix(ch.Content, "."),
			"chunk should end at a sentence boundary, got %q", ch.Content[len(ch.Content)-20:])
	}
}

func TestChunkTextNoSeparators(t *testing.T) {
	// one giant token-free blob: forces estimated cuts and exercises the
	// non-progress guard
	text := strings.Repeat("a", 2000)
	c := New(runeCounter{}, Options{ChunkSize: 50, Overlap: 10, MinChunkSize: 5})
	chunks, err := c.ChunkText(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	require.Equal(t, 0, chunks[0].StartOffset)
	require.Equal(t, 2000, chunks[len(chunks)-1].EndOffset)
	for i := 1; i < len(chunks); i++ {
		require.Greater(t, chunks[i].StartOffset, chunks[i-1].StartOffset)
		require.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset)
	}
}

func TestChunkTextKeepsUndersizedFinalChunk(t *testing.T) {
	// 55 words with chunk size 50: the remainder is far below the minimum
	// but must survive as the final chunk
	text := wordsText(55)
	c := New(wordCounter{}, Options{ChunkSize: 50, Overlap: 0, MinChunkSize: 20})
	chunks, err := c.ChunkText(text)
	require.NoError(t, err)
	last := chunks[len(chunks)-1]
	require.Equal(t, len([]rune(text)), last.EndOffset)
	require.True(t, strings.HasSuffix(last.Content, "word054"))
}

func TestChunkTextMultiByteSafe(t *testing.T) {
	text := strings.Repeat("日本語テキスト。", 300)
	c := New(runeCounter{}, Options{ChunkSize: 60, Overlap: 10, MinChunkSize: 5})
	chunks, err := c.ChunkText(text)
	require.NoError(t, err)
	for _, ch := range chunks {
		for _, r := range ch.Content {
			require.NotEqual(t, rune(0xFFFD), r)
		}
	}
}
