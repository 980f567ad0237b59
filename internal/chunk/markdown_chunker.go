package chunk

import (
	"regexp"
	"strings"

	"github.com/crateindex/crateindex/internal/tokenbudget"
)

// MarkdownChunker splits a Markdown document into sections bounded by a
// target token window, similar to what a prose-aware text splitter would
// produce: headers start new sections, and a section that overruns the
// window is broken at paragraph boundaries rather than mid-sentence.
type MarkdownChunker struct {
	minTokens int
	maxTokens int
}

const (
	markdownMinTokens = 1000
	markdownMaxTokens = 1500
)

var markdownHeaderPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// NewMarkdownChunker creates a chunker targeting the default 1000-1500
// token window.
func NewMarkdownChunker() *MarkdownChunker {
	return &MarkdownChunker{minTokens: markdownMinTokens, maxTokens: markdownMaxTokens}
}

// Close is a no-op; MarkdownChunker holds no resources.
func (c *MarkdownChunker) Close() {}

// ExtractChunks splits source into MarkdownSection chunks.
func (c *MarkdownChunker) ExtractChunks(source string) ([]Chunk, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	sections := splitMarkdownSections(source)

	var chunks []Chunk
	for _, sec := range sections {
		chunks = append(chunks, c.chunkSection(sec)...)
	}
	return chunks, nil
}

// markdownSection is a header (or the leading preamble) plus its body text,
// tracked by 0-indexed line offsets into the original source.
type markdownSection struct {
	startLine int
	lines     []string
}

func splitMarkdownSections(source string) []markdownSection {
	lines := strings.Split(source, "\n")

	var sections []markdownSection
	var current *markdownSection

	for i, line := range lines {
		if markdownHeaderPattern.MatchString(line) {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &markdownSection{startLine: i, lines: []string{line}}
			continue
		}
		if current == nil {
			current = &markdownSection{startLine: i, lines: []string{}}
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

func (c *MarkdownChunker) chunkSection(sec markdownSection) []Chunk {
	content := strings.TrimRight(strings.Join(sec.lines, "\n"), "\n")
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if tokenbudget.Count(content) <= c.maxTokens {
		return []Chunk{{
			Kind:      KindMarkdownSection,
			StartLine: sec.startLine + 1,
			EndLine:   sec.startLine + strings.Count(content, "\n") + 1,
			Content:   content,
		}}
	}

	return c.splitByParagraphs(sec)
}

func (c *MarkdownChunker) splitByParagraphs(sec markdownSection) []Chunk {
	paragraphs, paragraphStartLines := splitIntoParagraphs(sec.lines, sec.startLine)

	var chunks []Chunk
	var buf []string
	bufStart := -1

	flush := func(end int) {
		if len(buf) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(buf, "\n\n"))
		if content != "" {
			chunks = append(chunks, Chunk{
				Kind:      KindMarkdownSection,
				StartLine: bufStart + 1,
				EndLine:   end + 1,
				Content:   content,
			})
		}
		buf = nil
		bufStart = -1
	}

	lastEnd := sec.startLine
	for i, para := range paragraphs {
		paraStart := paragraphStartLines[i]
		paraEnd := paraStart + strings.Count(para, "\n")

		candidate := strings.Join(append(append([]string{}, buf...), para), "\n\n")
		if len(buf) > 0 && tokenbudget.Count(candidate) > c.maxTokens {
			flush(lastEnd)
		}
		if bufStart == -1 {
			bufStart = paraStart
		}
		buf = append(buf, para)
		lastEnd = paraEnd
	}
	flush(lastEnd)

	return chunks
}

func splitIntoParagraphs(lines []string, baseLine int) ([]string, []int) {
	var paragraphs []string
	var starts []int

	var buf []string
	bufStart := -1

	flush := func() {
		if len(buf) == 0 {
			return
		}
		trimmed := strings.TrimSpace(strings.Join(buf, "\n"))
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
			starts = append(starts, bufStart)
		}
		buf = nil
		bufStart = -1
	}

	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}

		if strings.TrimSpace(line) == "" && !inFence {
			flush()
			continue
		}

		if bufStart == -1 {
			bufStart = baseLine + i
		}
		buf = append(buf, line)
	}
	flush()

	return paragraphs, starts
}
