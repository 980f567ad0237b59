// Package chunk implements syntax-aware splitting of source and markdown
// files into bounded, context-preserving fragments ready for embedding.
package chunk

// Kind identifies the syntactic role a chunk plays in its originating file.
type Kind string

const (
	KindStruct          Kind = "Struct"
	KindEnum            Kind = "Enum"
	KindFunction        Kind = "Function"
	KindImpl            Kind = "Impl"
	KindComment         Kind = "Comment"
	KindMarkdownSection Kind = "MarkdownSection"
	KindClass           Kind = "Class"
	KindInterface       Kind = "Interface"
	KindTypeAlias       Kind = "TypeAlias"
	KindConst           Kind = "Const"
)

// Chunk is a bounded text fragment extracted from a single file, ready to
// be embedded. StartLine and EndLine are 1-based and inclusive.
type Chunk struct {
	Kind      Kind
	StartLine int
	EndLine   int
	Content   string
}

// FileInput is a single file handed to a Chunker.
type FileInput struct {
	Path    string
	Content []byte
}

// Chunker extracts a sequence of Chunks from one file's source text. Each
// implementation is grammar- or format-specific (Rust, TypeScript,
// Markdown); none retain state across calls.
type Chunker interface {
	ExtractChunks(source string) ([]Chunk, error)
}

// Tree is a parsed syntax tree produced by Parser.Parse.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a single node of a parsed syntax tree, converted from the
// underlying tree-sitter representation into a plain, dependency-free
// shape that chunkers can walk and slice without reaching back into the
// parser library's own types.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a (row, column) position within a source file. Row is 0-indexed
// to match tree-sitter's own convention; callers convert to 1-based line
// numbers when constructing a Chunk.
type Point struct {
	Row    uint32
	Column uint32
}

// LanguageConfig names the file extensions routed to a given grammar.
type LanguageConfig struct {
	Name       string
	Extensions []string
}

// GetContent returns the source slice spanned by n.
func (n *Node) GetContent(source []byte) string {
	if n == nil || int(n.EndByte) > len(source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == nodeType {
			return c
		}
	}
	return nil
}

// Walk visits n and every descendant in depth-first order. The visitor
// returns false to stop descending into a node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// StartLine returns the 1-based line number at which n begins.
func (n *Node) StartLine() int {
	return int(n.StartPoint.Row) + 1
}

// EndLine returns the 1-based line number at which n ends.
func (n *Node) EndLine() int {
	return int(n.EndPoint.Row) + 1
}
