package chunk

import (
	"context"
	"strings"

	"github.com/crateindex/crateindex/internal/tokenbudget"
)

var tsNodesToIgnore = map[string]bool{
	"import_statement": true,
	"import_alias":     true,
}

// TypeScriptChunker extracts classes, interfaces, type aliases, enums,
// functions, exported const/let declarations and standalone comments from a
// TypeScript source file. Decorators are folded into the declaration they
// decorate rather than becoming chunks of their own.
type TypeScriptChunker struct {
	parser *Parser
}

// NewTypeScriptChunker creates a chunker backed by a fresh tree-sitter parser.
func NewTypeScriptChunker() *TypeScriptChunker {
	return &TypeScriptChunker{parser: NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (c *TypeScriptChunker) Close() {
	c.parser.Close()
}

// ExtractChunks parses source as TypeScript and returns its top-level chunks.
func (c *TypeScriptChunker) ExtractChunks(source string) ([]Chunk, error) {
	tree, err := c.parser.Parse(context.Background(), []byte(source), "typescript")
	if err != nil {
		return nil, err
	}

	lines := strings.Split(source, "\n")
	processed := make(map[int]bool)
	siblings := tree.Root.Children

	var chunks []Chunk
	for i, child := range siblings {
		if tsNodesToIgnore[child.Type] {
			continue
		}
		if processed[int(child.StartPoint.Row)] {
			continue
		}

		if child.Type == "decorator" {
			if i+1 < len(siblings) && !processed[int(siblings[i+1].StartPoint.Row)] {
				if chunk, ok := processDecoratedNode(siblings, i, i+1, lines, processed); ok {
					chunks = append(chunks, chunk)
				}
			}
			continue
		}

		if chunk, ok := processTSNode(siblings, i, lines, processed); ok {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

func processTSNode(siblings []*Node, i int, lines []string, processed map[int]bool) (Chunk, bool) {
	node := siblings[i]
	if node.Type == "decorator" {
		return Chunk{}, false
	}

	startLine := int(node.StartPoint.Row)
	endLine := int(node.EndPoint.Row)

	if i > 0 && isTSAdjacentDecoration(siblings[i-1], node) {
		startLine = findFirstTSDecoration(siblings, i-1)
	}

	switch node.Type {
	case "class_declaration":
		return finishTSChunk(KindClass, startLine, endLine, lines, processed)
	case "interface_declaration":
		return finishTSChunk(KindInterface, startLine, endLine, lines, processed)
	case "type_alias_declaration":
		if !isTSExported(node, lines) {
			return Chunk{}, false
		}
		return finishTSChunk(KindTypeAlias, startLine, endLine, lines, processed)
	case "enum_declaration":
		return finishTSChunk(KindEnum, startLine, endLine, lines, processed)
	case "function_declaration", "arrow_function", "method_definition":
		return finishTSChunk(KindFunction, startLine, endLine, lines, processed)
	case "lexical_declaration":
		if !isConstOrExport(node, lines) {
			return Chunk{}, false
		}
		return finishTSChunk(KindConst, startLine, endLine, lines, processed)
	case "export_statement":
		return processTSExport(node, startLine, lines, processed)
	case "comment":
		return handleTSComment(siblings, i, lines, startLine, processed)
	default:
		return Chunk{}, false
	}
}

func processTSExport(node *Node, startLine int, lines []string, processed map[int]bool) (Chunk, bool) {
	endLine := int(node.EndPoint.Row)

	hasDecorators := false
	hasLexical := false
	var declKind Kind
	var hasDecl bool

	for _, child := range node.Children {
		switch child.Type {
		case "decorator":
			hasDecorators = true
		case "lexical_declaration":
			hasLexical = true
		case "class_declaration":
			declKind, hasDecl = KindClass, true
		case "interface_declaration":
			declKind, hasDecl = KindInterface, true
		case "function_declaration":
			declKind, hasDecl = KindFunction, true
		case "type_alias_declaration":
			declKind, hasDecl = KindTypeAlias, true
		case "enum_declaration":
			declKind, hasDecl = KindEnum, true
		}
	}

	if hasDecorators {
		return finishTSChunk(declKindOrDefault(declKind, hasDecl), startLine, endLine, lines, processed)
	}
	if hasLexical {
		return finishTSChunk(KindConst, startLine, endLine, lines, processed)
	}
	if hasDecl {
		return finishTSChunk(declKind, startLine, endLine, lines, processed)
	}
	return Chunk{}, false
}

func declKindOrDefault(k Kind, ok bool) Kind {
	if ok {
		return k
	}
	return KindClass
}

func finishTSChunk(kind Kind, startLine, endLine int, lines []string, processed map[int]bool) (Chunk, bool) {
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

func processDecoratedNode(siblings []*Node, decoratorIdx, nodeIdx int, lines []string, processed map[int]bool) (Chunk, bool) {
	startLine := int(siblings[decoratorIdx].StartPoint.Row)
	if decoratorIdx > 0 && isTSAdjacentDecoration(siblings[decoratorIdx-1], siblings[decoratorIdx]) {
		startLine = findFirstTSDecoration(siblings, decoratorIdx-1)
	}
	endLine := int(siblings[nodeIdx].EndPoint.Row)

	target := siblings[nodeIdx]
	if target.Type == "export_statement" {
		if decl := target.FindChildByType("class_declaration"); decl != nil {
			target = decl
		}
	}

	var kind Kind
	switch target.Type {
	case "class_declaration":
		kind = KindClass
	case "function_declaration":
		kind = KindFunction
	case "interface_declaration":
		kind = KindInterface
	default:
		return Chunk{}, false
	}

	return finishTSChunk(kind, startLine, endLine, lines, processed)
}

func handleTSComment(siblings []*Node, i int, lines []string, startLine int, processed map[int]bool) (Chunk, bool) {
	if isTSCommentBeforeItem(siblings, i) {
		return Chunk{}, false
	}

	endLine := findLastConsecutiveComment(siblings, i, "comment")

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

func isTSCommentBeforeItem(siblings []*Node, i int) bool {
	check := i
	for {
		next := check + 1
		if next >= len(siblings) {
			return false
		}
		switch siblings[next].Type {
		case "class_declaration", "interface_declaration", "type_alias_declaration",
			"enum_declaration", "function_declaration", "lexical_declaration",
			"export_statement", "decorated_definition":
			return int(siblings[check].EndPoint.Row)+1 >= int(siblings[next].StartPoint.Row)
		case "comment", "decorator":
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

func isTSAdjacentDecoration(prev, next *Node) bool {
	if prev.Type != "comment" && prev.Type != "decorator" {
		return false
	}
	return int(prev.EndPoint.Row)+1 >= int(next.StartPoint.Row)
}

func findFirstTSDecoration(siblings []*Node, i int) int {
	startLine := int(siblings[i].StartPoint.Row)
	current := i
	for {
		prev := current - 1
		if prev < 0 || !isTSAdjacentDecoration(siblings[prev], siblings[current]) {
			return startLine
		}
		startLine = int(siblings[prev].StartPoint.Row)
		current = prev
	}
}

func isConstOrExport(node *Node, lines []string) bool {
	text := extractLines(lines, int(node.StartPoint.Row), int(node.StartPoint.Row))
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "export const") || strings.HasPrefix(trimmed, "export let")
}

func isTSExported(node *Node, lines []string) bool {
	text := extractLines(lines, int(node.StartPoint.Row), int(node.StartPoint.Row))
	return strings.HasPrefix(strings.TrimSpace(text), "export ")
}
