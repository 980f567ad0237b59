package docgen

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeExec(script string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestRender_LocatesNamespacedDocDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target", "doc", "serde"), 0o755))

	g := &Generator{execCommand: fakeExec("exit 0")}
	docDir, err := g.Render(context.Background(), dir, "serde", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "target", "doc", "serde"), docDir)
}

func TestRender_FallsBackToUnnamespacedDocDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target", "doc"), 0o755))

	g := &Generator{execCommand: fakeExec("exit 0")}
	docDir, err := g.Render(context.Background(), dir, "serde", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "target", "doc"), docDir)
}

func TestRender_PropagatesCargoFailure(t *testing.T) {
	dir := t.TempDir()
	g := &Generator{execCommand: fakeExec("echo 'error: could not compile' >&2; exit 1")}
	_, err := g.Render(context.Background(), dir, "serde", nil)
	assert.Error(t, err)
}
