package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScriptChunker_ExtractsInterfaceAndFunction(t *testing.T) {
	source := `interface User {
	name: string;
}

function greet(user: User): string {
	return "hi " + user.name;
}
`
	c := NewTypeScriptChunker()
	defer c.Close()

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, KindInterface, chunks[0].Kind)
	assert.Equal(t, KindFunction, chunks[1].Kind)
}

func TestTypeScriptChunker_IgnoresImports(t *testing.T) {
	source := `import { readFile } from "fs";

function load() {}
`
	c := NewTypeScriptChunker()
	defer c.Close()

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, KindFunction, chunks[0].Kind)
}

func TestTypeScriptChunker_ExportedClass(t *testing.T) {
	source := `export class Widget {
	render() {}
}
`
	c := NewTypeScriptChunker()
	defer c.Close()

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, KindClass, chunks[0].Kind)
}

func TestTypeScriptChunker_NonExportedTypeAliasSkipped(t *testing.T) {
	source := `type Internal = { id: number };

function use() {}
`
	c := NewTypeScriptChunker()
	defer c.Close()

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, KindFunction, chunks[0].Kind)
}

func TestTypeScriptChunker_ExportedConst(t *testing.T) {
	source := `export const add = (a: number, b: number) => a + b;
`
	c := NewTypeScriptChunker()
	defer c.Close()

	chunks, err := c.ExtractChunks(source)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, KindConst, chunks[0].Kind)
}
