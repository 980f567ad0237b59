package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateindex/crateindex/internal/chunk"
)

type fakeChunker struct {
	kind chunk.Kind
	fail bool
}

func (f *fakeChunker) ExtractChunks(source string) ([]chunk.Chunk, error) {
	if f.fail {
		return nil, assert.AnError
	}
	if source == "" {
		return nil, nil
	}
	return []chunk.Chunk{{Kind: f.kind, StartLine: 1, EndLine: 1, Content: source}}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_DispatchesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib.rs"), "struct Foo;")
	writeFile(t, filepath.Join(root, "README.md"), "# Title\n")
	writeFile(t, filepath.Join(root, "index.ts"), "export const x = 1;")
	writeFile(t, filepath.Join(root, "ignored.txt"), "not dispatched")

	w := New(&fakeChunker{kind: chunk.KindStruct}, &fakeChunker{kind: chunk.KindMarkdownSection}, &fakeChunker{kind: chunk.KindConst})

	results, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestWalk_SkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "vendor", "lib.rs"), "struct Vendored;")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.ts"), "export const y = 2;")
	writeFile(t, filepath.Join(root, "src", "lib.rs"), "struct Real;")

	w := New(&fakeChunker{kind: chunk.KindStruct}, &fakeChunker{kind: chunk.KindMarkdownSection}, &fakeChunker{kind: chunk.KindConst})

	results, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join("src", "lib.rs"), results[0].Path)
}

func TestWalk_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "generated/\n")
	writeFile(t, filepath.Join(root, "generated", "lib.rs"), "struct Generated;")
	writeFile(t, filepath.Join(root, "src", "lib.rs"), "struct Real;")

	w := New(&fakeChunker{kind: chunk.KindStruct}, &fakeChunker{kind: chunk.KindMarkdownSection}, &fakeChunker{kind: chunk.KindConst})

	results, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join("src", "lib.rs"), results[0].Path)
}

func TestWalk_DropsZeroChunkFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.rs"), "")

	w := New(&fakeChunker{kind: chunk.KindStruct}, &fakeChunker{kind: chunk.KindMarkdownSection}, &fakeChunker{kind: chunk.KindConst})

	results, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWalk_PropagatesChunkFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.rs"), "struct Broken;")

	w := New(&fakeChunker{fail: true}, &fakeChunker{kind: chunk.KindMarkdownSection}, &fakeChunker{kind: chunk.KindConst})

	_, err := w.Walk(context.Background(), root)
	assert.Error(t, err)
}
