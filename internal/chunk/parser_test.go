package chunk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseRustFile_ReturnsAST(t *testing.T) {
	source := []byte(`struct Point {
    x: i32,
    y: i32,
}

fn distance(a: &Point, b: &Point) -> f64 {
    0.0
}
`)

	parser := NewParser()
	defer parser.Close()

	tree, err := parser.Parse(context.Background(), source, "rust")

	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, "rust", tree.Language)

	structNodes := findNodes(tree.Root, "struct_item")
	fnNodes := findNodes(tree.Root, "function_item")
	assert.Len(t, structNodes, 1)
	assert.Len(t, fnNodes, 1)
}

func TestParser_ParseTypeScript_ReturnsAST(t *testing.T) {
	source := []byte(`interface User {
	name: string;
	age: number;
}

function greet(user: User): string {
	return "Hello, " + user.name;
}

const add = (a: number, b: number): number => a + b;
`)

	parser := NewParser()
	defer parser.Close()

	tree, err := parser.Parse(context.Background(), source, "typescript")

	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, "typescript", tree.Language)

	interfaceNodes := findNodes(tree.Root, "interface_declaration")
	funcNodes := findNodes(tree.Root, "function_declaration")
	arrowNodes := findNodes(tree.Root, "arrow_function")

	assert.Len(t, interfaceNodes, 1, "should find 1 interface declaration")
	assert.Len(t, funcNodes, 1, "should find 1 function declaration")
	assert.Len(t, arrowNodes, 1, "should find 1 arrow function")
}

func TestParser_HandleSyntaxError_ReturnsPartialAST(t *testing.T) {
	source := []byte(`fn broken( {
    // missing closing paren
}
`)

	parser := NewParser()
	defer parser.Close()

	tree, err := parser.Parse(context.Background(), source, "rust")

	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.True(t, tree.Root.HasError, "tree should indicate parse errors")
}

func TestLanguageRegistry_GetByExtension(t *testing.T) {
	tests := []struct {
		name      string
		extension string
		wantLang  string
		wantOK    bool
	}{
		{"Rust file", ".rs", "rust", true},
		{"TypeScript file", ".ts", "typescript", true},
		{"TSX file", ".tsx", "typescript", true},
	}

	registry := NewLanguageRegistry()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, ok := registry.GetByExtension(tt.extension)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantLang, config.Name)
			}
		})
	}
}

func TestLanguageRegistry_UnsupportedLanguage(t *testing.T) {
	extension := ".ex"

	registry := NewLanguageRegistry()
	config, ok := registry.GetByExtension(extension)

	assert.False(t, ok)
	assert.Nil(t, config)
}

func TestParser_Lifecycle_CreateParseClose(t *testing.T) {
	parser := NewParser()

	source := []byte(`fn main() {}`)
	tree, err := parser.Parse(context.Background(), source, "rust")

	require.NoError(t, err)
	require.NotNil(t, tree)

	parser.Close()
}

func TestParser_MultipleParses(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	sources := []struct {
		code     []byte
		language string
	}{
		{[]byte(`fn main() {}`), "rust"},
		{[]byte(`function bar() {}`), "typescript"},
	}

	for _, src := range sources {
		tree, err := parser.Parse(context.Background(), src.code, src.language)
		require.NoError(t, err)
		require.NotNil(t, tree)
		assert.Equal(t, src.language, tree.Language)
	}
}

func TestParser_Performance_Parse1000LOC(t *testing.T) {
	var code string
	for i := 0; i < 150; i++ {
		code += `fn function_` + string(rune('a'+i%26)) + `() {
    let x = 1;
    let y = 2;
    let z = x + y;
    println!("{}", z);
}

`
	}
	source := []byte(code)

	parser := NewParser()
	defer parser.Close()

	start := time.Now()
	tree, err := parser.Parse(context.Background(), source, "rust")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, tree)

	assert.LessOrEqual(t, elapsed.Milliseconds(), int64(50), "parsing 1000+ LOC should take <= 50ms")
}

func findNodes(node *Node, nodeType string) []*Node {
	var result []*Node
	if node == nil {
		return result
	}

	if node.Type == nodeType {
		result = append(result, node)
	}

	for _, child := range node.Children {
		result = append(result, findNodes(child, nodeType)...)
	}

	return result
}
