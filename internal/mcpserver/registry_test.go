package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StartThenComplete(t *testing.T) {
	r := NewRegistry(context.Background())

	op, ctx := r.Start("owner/repo")
	require.NotEmpty(t, op.ID)
	assert.NoError(t, ctx.Err())

	rec, ok := r.Get(op.ID)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, rec.Status)

	r.Progress(op.ID, "chunking files")
	rec, _ = r.Get(op.ID)
	assert.Equal(t, "chunking files", rec.Message)

	r.Complete(op.ID, "repo_owner_repo", 42)
	rec, ok = r.Get(op.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "repo_owner_repo", rec.Collection)
	assert.Equal(t, 42, rec.DocCount)
}

func TestRegistry_TerminalTransitionsAreNoOps(t *testing.T) {
	r := NewRegistry(context.Background())
	op, _ := r.Start("owner/repo")

	r.Complete(op.ID, "repo_owner_repo", 1)
	r.Fail(op.ID, "should not apply")

	rec, _ := r.Get(op.ID)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.NotEqual(t, "should not apply", rec.Message)

	r.Progress(op.ID, "should not apply either")
	rec, _ = r.Get(op.ID)
	assert.NotEqual(t, "should not apply either", rec.Message)
}

func TestRegistry_Fail(t *testing.T) {
	r := NewRegistry(context.Background())
	op, _ := r.Start("serde@1.0.0")

	r.Fail(op.ID, "network unreachable")
	rec, ok := r.Get(op.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "network unreachable", rec.Message)
}

func TestRegistry_Get_UnknownID(t *testing.T) {
	r := NewRegistry(context.Background())
	_, ok := r.Get("does-not-exist")
	assert.False(t, ok)
}

func TestRegistry_FindInProgress(t *testing.T) {
	r := NewRegistry(context.Background())
	op, _ := r.Start("owner/repo")

	rec, ok := r.FindInProgress("owner/repo")
	require.True(t, ok)
	assert.Equal(t, op.ID, rec.ID)

	_, ok = r.FindInProgress("other/repo")
	assert.False(t, ok)

	r.Complete(op.ID, "repo_owner_repo", 1)
	_, ok = r.FindInProgress("owner/repo")
	assert.False(t, ok)
}

func TestRegistry_CancelAll_FiresContexts(t *testing.T) {
	r := NewRegistry(context.Background())
	_, ctx1 := r.Start("owner/repo1")
	_, ctx2 := r.Start("owner/repo2")

	r.CancelAll()

	assert.Error(t, ctx1.Err())
	assert.Error(t, ctx2.Err())
}

func TestRegistry_Complete_IdempotentPath(t *testing.T) {
	r := NewRegistry(context.Background())
	op := r.complete("serde@1.0.0", "serde_v1_0_0", 10)

	rec, ok := r.Get(op.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "already embedded", rec.Message)
	assert.Equal(t, 10, rec.DocCount)
}
