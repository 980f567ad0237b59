// Package ingest composes the fetch, walk, embed, and store components into
// the single "embed this target" procedure spec §4.10 names the ingestion
// orchestrator.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/crateindex/crateindex/internal/embedclient"
	"github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/fetch"
	"github.com/crateindex/crateindex/internal/identity"
	"github.com/crateindex/crateindex/internal/store"
	"github.com/crateindex/crateindex/internal/walker"
)

// Result summarizes a completed ingestion run.
type Result struct {
	Collection string
	DocCount   int
}

// Orchestrator wires C5 (fetch) -> C6 (walk+chunk) -> C8 (embed) -> C7
// (store) into the procedure spec §4.10 describes. A single Orchestrator is
// shared across concurrent ingestion runs; none of its fields are mutated
// after construction.
type Orchestrator struct {
	Walker         *walker.Walker
	Embedder       embedclient.Client
	Store          store.CollectionStore
	Resolver       *identity.Resolver
	VectorSize     int
	EmbeddingModel string
}

// New creates an Orchestrator from its collaborators. resolver is used only
// for package targets, to find the repository backing the crate's source.
func New(w *walker.Walker, embedder embedclient.Client, collectionStore store.CollectionStore, resolver *identity.Resolver, vectorSize int, embeddingModel string) *Orchestrator {
	return &Orchestrator{
		Walker:         w,
		Embedder:       embedder,
		Store:          collectionStore,
		Resolver:       resolver,
		VectorSize:     vectorSize,
		EmbeddingModel: embeddingModel,
	}
}

// EmbedTarget runs the full ingestion pipeline for target, per spec §4.10:
// fetch, walk+chunk, ensure+reset the collection, batch-embed and upsert
// every chunk, then write metadata exactly once, after every upsert has
// succeeded. progress, if non-nil, is called after each stage transition so
// callers (the operation registry) can surface a human-readable message.
func (o *Orchestrator) EmbedTarget(ctx context.Context, target identity.Target, progress func(string)) (*Result, error) {
	report := progress
	if report == nil {
		report = func(string) {}
	}

	collection := identity.CanonicalCollection(target)

	var repoURL string
	if target.IsRepository() {
		repoURL = target.Repository
	} else {
		var err error
		repoURL, err = o.repositoryForPackage(ctx, target)
		if err != nil {
			return nil, err
		}
	}

	report("fetching repository")
	fetched, err := fetch.Clone(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	defer fetched.Cleanup()

	report("chunking files")
	fileChunks, err := o.Walker.Walk(ctx, fetched.Path)
	if err != nil {
		return nil, err
	}

	return o.ingestChunks(ctx, target, collection, fileChunks, report)
}

// ingestChunks runs the collection-reset, batch-embed-and-upsert, and
// write-metadata stages of spec §4.10 (steps 4-6) against an already-walked
// file set. Split out from EmbedTarget so it can be exercised directly
// against manufactured chunk lists without a live network clone.
func (o *Orchestrator) ingestChunks(ctx context.Context, target identity.Target, collection string, fileChunks []walker.FileChunks, report func(string)) (*Result, error) {
	if report == nil {
		report = func(string) {}
	}

	var contents []string
	for _, fc := range fileChunks {
		for _, c := range fc.Chunks {
			contents = append(contents, c.Content)
		}
	}

	report("resetting collection")
	if err := o.Store.Ensure(ctx, collection, o.VectorSize); err != nil {
		return nil, err
	}
	if err := o.Store.Reset(ctx, collection, o.VectorSize); err != nil {
		return nil, err
	}

	report(fmt.Sprintf("embedding %d chunks", len(contents)))
	upserted, err := o.embedAndUpsert(ctx, collection, contents)
	if err != nil {
		return nil, err
	}

	report("writing metadata")
	record := store.MetadataRecord{
		Target:         metadataTarget(target),
		EmbeddedAt:     time.Now().UTC(),
		EmbeddingModel: o.EmbeddingModel,
		DocCount:       upserted,
	}
	if err := o.Store.WriteMetadata(ctx, collection, o.VectorSize, record); err != nil {
		return nil, err
	}

	return &Result{Collection: collection, DocCount: upserted}, nil
}

// embedAndUpsert batches contents through the embedding client and upserts
// every resulting vector. Batching/concurrency bounds are enforced inside
// the embedclient.Client implementation (spec §4.8); this loop just pairs
// each returned vector back with its source content and upserts it.
func (o *Orchestrator) embedAndUpsert(ctx context.Context, collection string, contents []string) (int, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	vectors, err := o.Embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(contents) {
		return 0, errors.EmbeddingFailed(fmt.Sprintf("embedding client returned %d vectors for %d chunks", len(vectors), len(contents)), nil)
	}

	for i, content := range contents {
		if _, err := o.Store.Upsert(ctx, collection, content, vectors[i]); err != nil {
			return 0, err
		}
	}
	return len(contents), nil
}

// EmbedLocalDirectory walks an already-present directory and ingests it,
// skipping the fetch stage entirely. This is the path the gen-docs CLI
// command takes once rustdoc has generated a documentation tree: the core
// treats any such directory as an ordinary source tree of markdown files,
// since generating the docs themselves is outside this package's concern.
func (o *Orchestrator) EmbedLocalDirectory(ctx context.Context, target identity.Target, dir string, progress func(string)) (*Result, error) {
	report := progress
	if report == nil {
		report = func(string) {}
	}

	collection := identity.CanonicalCollection(target)

	report("chunking generated documentation")
	fileChunks, err := o.Walker.Walk(ctx, dir)
	if err != nil {
		return nil, err
	}

	return o.ingestChunks(ctx, target, collection, fileChunks, report)
}

// repositoryForPackage resolves the repository URL backing a package
// target, used when the package's own source (not just its registry
// metadata) needs to be fetched and chunked.
func (o *Orchestrator) repositoryForPackage(ctx context.Context, target identity.Target) (string, error) {
	return o.Resolver.ResolveRepository(ctx, target.Package)
}

// metadataTarget renders target into the wire shape spec §6 names for the
// metadata record's "target" field: a plain string for repository targets,
// or a {name, version, features} object for package targets.
func metadataTarget(target identity.Target) any {
	if target.IsRepository() {
		return target.Repository
	}
	return map[string]any{
		"name":     target.Package,
		"version":  target.Version,
		"features": target.Features,
	}
}
