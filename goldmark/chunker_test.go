package goldmark_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/refdex/refdex/goldmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_Chunk(t *testing.T) {
	t.Parallel()

	t.Run("returns no chunks for empty input", func(t *testing.T) {
		t.Parallel()

		chunker := goldmark.NewChunker()

		chunks, err := chunker.Chunk("")
		require.NoError(t, err)
		assert.Empty(t, chunks)

		chunks, err = chunker.Chunk("   \n\n  ")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("single paragraph becomes one chunk", func(t *testing.T) {
		t.Parallel()

		chunker := goldmark.NewChunker()

		chunks, err := chunker.Chunk("Just one paragraph of text.")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "0000", chunks[0].ID)
		assert.Equal(t, "Just one paragraph of text.", chunks[0].Text)
		assert.Empty(t, chunks[0].HeadingPath)
	})

	t.Run("cuts at headings and tracks the heading path", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{
			"# A Study",
			"",
			"Introductory text.",
			"",
			"## Methods",
			"",
			"We measured things.",
			"",
			"## Results",
			"",
			"Things were measured.",
		}, "\n")
		chunker := goldmark.NewChunker()

		chunks, err := chunker.Chunk(input)
		require.NoError(t, err)
		require.Len(t, chunks, 3)

		assert.Equal(t, "0000", chunks[0].ID)
		assert.Equal(t, "# A Study\n\nIntroductory text.", chunks[0].Text)
		assert.Equal(t, "A Study", chunks[0].HeadingPath)

		assert.Equal(t, "0001", chunks[1].ID)
		assert.Equal(t, "## Methods\n\nWe measured things.", chunks[1].Text)
		assert.Equal(t, "A Study > Methods", chunks[1].HeadingPath)

		assert.Equal(t, "0002", chunks[2].ID)
		assert.Equal(t, "A Study > Results", chunks[2].HeadingPath)
	})

	t.Run("keeps content before the first heading", func(t *testing.T) {
		t.Parallel()

		chunker := goldmark.NewChunker()

		chunks, err := chunker.Chunk("Preamble text.\n\n# Later\n\nBody.")
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, "Preamble text.", chunks[0].Text)
		assert.Empty(t, chunks[0].HeadingPath)
		assert.Equal(t, "Later", chunks[1].HeadingPath)
	})

	t.Run("sibling headings replace each other in the path", func(t *testing.T) {
		t.Parallel()

		input := "# A\n\n## B\n\ntext b\n\n## C\n\ntext c"
		chunker := goldmark.NewChunker()

		chunks, err := chunker.Chunk(input)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, "A", chunks[0].HeadingPath)
		assert.Equal(t, "A > B", chunks[1].HeadingPath)
		assert.Equal(t, "A > C", chunks[2].HeadingPath)
	})

	t.Run("splits oversized sections at paragraph breaks", func(t *testing.T) {
		t.Parallel()

		para := func(r rune) string { return strings.Repeat(string(r), 30) }
		input := para('a') + "\n\n" + para('b') + "\n\n" + para('c')
		chunker := goldmark.NewChunker(
			goldmark.WithMaxChunkRunes(50),
			goldmark.WithMinChunkRunes(5),
		)

		chunks, err := chunker.Chunk(input)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, para('a'), chunks[0].Text)
		assert.Equal(t, para('b'), chunks[1].Text)
		assert.Equal(t, para('c'), chunks[2].Text)
	})

	t.Run("merges undersized trailing pieces", func(t *testing.T) {
		t.Parallel()

		input := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 10)
		chunker := goldmark.NewChunker(
			goldmark.WithMaxChunkRunes(50),
			goldmark.WithMinChunkRunes(20),
		)

		chunks, err := chunker.Chunk(input)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, input, chunks[0].Text)
	})

	t.Run("measures size in runes, not bytes", func(t *testing.T) {
		t.Parallel()

		input := strings.Repeat("é", 30)
		chunker := goldmark.NewChunker(
			goldmark.WithMaxChunkRunes(12),
			goldmark.WithMinChunkRunes(1),
		)

		chunks, err := chunker.Chunk(input)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), 12)
		}
	})

	t.Run("preserves code blocks", func(t *testing.T) {
		t.Parallel()

		input := "# Code\n\n```go\nfunc main() {}\n```"
		chunker := goldmark.NewChunker()

		chunks, err := chunker.Chunk(input)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0].Text, "```go\nfunc main() {}\n```")
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		input := "# T\n\n" + strings.Repeat("word ", 500) + "\n\n## S\n\nmore text"
		chunker := goldmark.NewChunker(goldmark.WithMaxChunkRunes(200))

		first, err := chunker.Chunk(input)
		require.NoError(t, err)
		second, err := chunker.Chunk(input)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
