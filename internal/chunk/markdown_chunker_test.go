package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateindex/crateindex/internal/tokenbudget"
)

func TestMarkdownChunker_EmptyContent(t *testing.T) {
	c := NewMarkdownChunker()
	chunks, err := c.ExtractChunks("   \n\n  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestMarkdownChunker_SingleSmallSection(t *testing.T) {
	c := NewMarkdownChunker()
	source := "# Title\n\nSome short body text.\n"

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, KindMarkdownSection, chunks[0].Kind)
	assert.Contains(t, chunks[0].Content, "# Title")
	assert.Contains(t, chunks[0].Content, "Some short body text.")
}

func TestMarkdownChunker_MultipleHeadersProduceMultipleSections(t *testing.T) {
	c := NewMarkdownChunker()
	source := "# First\n\nFirst body.\n\n# Second\n\nSecond body.\n"

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "First body.")
	assert.Contains(t, chunks[1].Content, "Second body.")
}

func TestMarkdownChunker_LargeSectionSplitsByParagraph(t *testing.T) {
	c := NewMarkdownChunker()

	var b strings.Builder
	b.WriteString("# Big Section\n\n")
	paragraph := strings.Repeat("word ", 400) + "\n"
	for i := 0; i < 10; i++ {
		b.WriteString(paragraph)
		b.WriteString("\n")
	}

	chunks, err := c.ExtractChunks(b.String())
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, tokenbudget.Count(chunk.Content), markdownMaxTokens)
	}
}

func TestMarkdownChunker_PreservesFencedCodeBlock(t *testing.T) {
	c := NewMarkdownChunker()
	source := "# Example\n\n```go\nfunc main() {\n\n\tfmt.Println(\"hi\")\n}\n```\n"

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "```go")
	assert.Contains(t, chunks[0].Content, "fmt.Println")
}
