// Package store defines the collection-store contract the ingestion and
// query orchestrators depend on, plus a Qdrant-backed implementation.
package store

import (
	"context"
	"time"
)

// MetadataRecord is the sidecar record written once per collection,
// describing what was embedded into it. It is never returned by Search.
type MetadataRecord struct {
	Target         any       `json:"target"`
	EmbeddedAt     time.Time `json:"embedded_at"`
	EmbeddingModel string    `json:"embedding_model"`
	DocCount       int       `json:"doc_count"`
}

// ScoredContent is one search hit: a similarity score and the verbatim
// chunk content stored at upsert time.
type ScoredContent struct {
	Score   float32
	Content string
}

// CollectionStore is the contract the ingestion and query orchestrators use
// to reach the external vector database. A handle is a stateless value
// wrapper (collection name plus a shared client) and may be passed freely
// across goroutines.
type CollectionStore interface {
	// Ensure creates collection with the given vector size and cosine
	// similarity if absent; idempotent no-op if already present with a
	// matching size. Returns StoreFailed if present with a mismatched size.
	Ensure(ctx context.Context, collection string, vectorSize int) error

	// Reset deletes then recreates collection. Not concurrency-safe across
	// multiple writers for the same collection.
	Reset(ctx context.Context, collection string, vectorSize int) error

	// Upsert stores content and its embedding under a fresh positive point
	// id, returning that id.
	Upsert(ctx context.Context, collection string, content string, vector []float32) (uint64, error)

	// Search returns up to limit scored contents ordered by descending
	// similarity. Hits whose payload lacks a content field (the metadata
	// sentinel) are filtered out before returning.
	Search(ctx context.Context, collection string, queryVector []float32, limit int) ([]ScoredContent, error)

	// WriteMetadata writes record as the point-id-0 sentinel, with a zero
	// vector sized to the collection's declared vector size.
	WriteMetadata(ctx context.Context, collection string, vectorSize int, record MetadataRecord) error

	// ReadMetadata fetches the point-id-0 sentinel. Returns (nil, nil) if
	// the collection has no metadata yet.
	ReadMetadata(ctx context.Context, collection string) (*MetadataRecord, error)

	// Exists reports whether collection has been created.
	Exists(ctx context.Context, collection string) (bool, error)

	// ListCollections returns the names of every collection known to the
	// store.
	ListCollections(ctx context.Context) ([]string, error)
}
