package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_EnsureIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Ensure(ctx, "crate_foo", 4))
	require.NoError(t, s.Ensure(ctx, "crate_foo", 4))

	exists, err := s.Exists(ctx, "crate_foo")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_EnsureRejectsMismatchedVectorSize(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Ensure(ctx, "crate_foo", 4))
	err := s.Ensure(ctx, "crate_foo", 8)
	assert.Error(t, err)
}

func TestMemoryStore_UpsertAndSearch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "crate_foo", 3))

	_, err := s.Upsert(ctx, "crate_foo", "alpha chunk", []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "crate_foo", "beta chunk", []float32{0, 1, 0})
	require.NoError(t, err)

	results, err := s.Search(ctx, "crate_foo", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha chunk", results[0].Content)
}

func TestMemoryStore_SearchExcludesMetadataSentinel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "crate_foo", 3))

	_, err := s.Upsert(ctx, "crate_foo", "real content", []float32{1, 0, 0})
	require.NoError(t, err)
	require.NoError(t, s.WriteMetadata(ctx, "crate_foo", 3, MetadataRecord{
		Target:         "foo",
		EmbeddedAt:     time.Now(),
		EmbeddingModel: "test-model",
		DocCount:       1,
	}))

	results, err := s.Search(ctx, "crate_foo", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "real content", results[0].Content)
}

func TestMemoryStore_ReadMetadataRoundTrips(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "crate_foo", 3))

	record := MetadataRecord{
		Target:         "foo@1.0.0",
		EmbeddingModel: "test-model",
		DocCount:       42,
	}
	require.NoError(t, s.WriteMetadata(ctx, "crate_foo", 3, record))

	got, err := s.ReadMetadata(ctx, "crate_foo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "foo@1.0.0", got.Target)
	assert.Equal(t, 42, got.DocCount)
}

func TestMemoryStore_ReadMetadataMissingIsNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "crate_foo", 3))

	got, err := s.ReadMetadata(ctx, "crate_foo")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ResetClearsExistingPoints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "crate_foo", 3))
	_, err := s.Upsert(ctx, "crate_foo", "stale", []float32{1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, "crate_foo", 3))

	results, err := s.Search(ctx, "crate_foo", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
