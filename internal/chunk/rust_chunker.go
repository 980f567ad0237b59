package chunk

import (
	"context"
	"strings"

	"github.com/crateindex/crateindex/internal/tokenbudget"
)

// rustNodesToIgnore are top-level items that never become their own chunk.
var rustNodesToIgnore = map[string]bool{
	"use_declaration": true,
}

// RustChunker extracts structs, enums, functions, impl blocks and standalone
// comments from a Rust source file, attaching each item's adjacent line
// comments and attributes so a chunk reads the way a developer would read it
// in an editor.
type RustChunker struct {
	parser *Parser
}

// NewRustChunker creates a chunker backed by a fresh tree-sitter parser.
func NewRustChunker() *RustChunker {
	return &RustChunker{parser: NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (c *RustChunker) Close() {
	c.parser.Close()
}

// ExtractChunks parses source as Rust and returns its top-level chunks.
func (c *RustChunker) ExtractChunks(source string) ([]Chunk, error) {
	tree, err := c.parser.Parse(context.Background(), []byte(source), "rust")
	if err != nil {
		return nil, err
	}

	lines := strings.Split(source, "\n")
	processed := make(map[int]bool)
	siblings := tree.Root.Children

	var chunks []Chunk
	for i, child := range siblings {
		if rustNodesToIgnore[child.Type] {
			continue
		}
		if processed[int(child.StartPoint.Row)] {
			continue
		}
		if chunk, ok := processRustNode(siblings, i, lines, processed); ok {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

func processRustNode(siblings []*Node, i int, lines []string, processed map[int]bool) (Chunk, bool) {
	node := siblings[i]
	startLine := int(node.StartPoint.Row)
	endLine := int(node.EndPoint.Row)

	if node.Type == "line_comment" {
		return handleRustComment(siblings, i, lines, startLine, processed)
	}

	if i > 0 && isRustAdjacentDecoration(siblings[i-1], node) {
		startLine = findFirstRustDecoration(siblings, i-1)
	}

	var kind Kind
	switch node.Type {
	case "struct_item":
		kind = KindStruct
	case "enum_item":
		kind = KindEnum
	case "function_item":
		kind = KindFunction
	case "impl_item":
		kind = KindImpl
	default:
		return Chunk{}, false
	}

	markLinesProcessed(startLine, endLine, processed)
	content := extractLines(lines, startLine, endLine)
	content = tokenbudget.Truncate(content, tokenbudget.MaxChunkTokens)

	return Chunk{
		Kind:      kind,
		StartLine: startLine + 1,
		EndLine:   endLine + 1,
		Content:   content,
	}, true
}

func handleRustComment(siblings []*Node, i int, lines []string, startLine int, processed map[int]bool) (Chunk, bool) {
	if isRustCommentBeforeItem(siblings, i) {
		return Chunk{}, false
	}

	endLine := findLastConsecutiveComment(siblings, i, "line_comment")

	markLinesProcessed(startLine, endLine, processed)
	content := extractLines(lines, startLine, endLine)
	content = tokenbudget.Truncate(content, tokenbudget.MaxChunkTokens)

	return Chunk{
		Kind:      KindComment,
		StartLine: startLine + 1,
		EndLine:   endLine + 1,
		Content:   content,
	}, true
}

func isRustCommentBeforeItem(siblings []*Node, i int) bool {
	check := i
	for {
		next := check + 1
		if next >= len(siblings) {
			return false
		}
		switch siblings[next].Type {
		case "struct_item", "enum_item", "function_item", "impl_item":
			return int(siblings[check].EndPoint.Row)+1 >= int(siblings[next].StartPoint.Row)
		case "line_comment", "attribute_item":
			if int(siblings[next].StartPoint.Row) <= int(siblings[check].EndPoint.Row)+1 {
				check = next
				continue
			}
			return false
		default:
			return false
		}
	}
}

func findLastConsecutiveComment(siblings []*Node, i int, commentType string) int {
	endLine := int(siblings[i].EndPoint.Row)
	current := i
	for {
		next := current + 1
		if next >= len(siblings) || siblings[next].Type != commentType ||
			int(siblings[next].StartPoint.Row) > int(siblings[current].EndPoint.Row)+1 {
			return endLine
		}
		endLine = int(siblings[next].EndPoint.Row)
		current = next
	}
}

func isRustAdjacentDecoration(prev, next *Node) bool {
	if prev.Type != "line_comment" && prev.Type != "attribute_item" {
		return false
	}
	return int(prev.EndPoint.Row)+1 >= int(next.StartPoint.Row)
}

func findFirstRustDecoration(siblings []*Node, i int) int {
	startLine := int(siblings[i].StartPoint.Row)
	current := i
	for {
		prev := current - 1
		if prev < 0 || !isRustAdjacentDecoration(siblings[prev], siblings[current]) {
			return startLine
		}
		startLine = int(siblings[prev].StartPoint.Row)
		current = prev
	}
}

func markLinesProcessed(start, end int, processed map[int]bool) {
	for i := start; i <= end; i++ {
		processed[i] = true
	}
}

func extractLines(lines []string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}
