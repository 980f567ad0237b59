package cmd

import (
	"context"
	"fmt"

	"github.com/crateindex/crateindex/internal/chunk"
	"github.com/crateindex/crateindex/internal/config"
	"github.com/crateindex/crateindex/internal/embedclient"
	"github.com/crateindex/crateindex/internal/identity"
	"github.com/crateindex/crateindex/internal/ingest"
	"github.com/crateindex/crateindex/internal/mcpserver"
	"github.com/crateindex/crateindex/internal/query"
	"github.com/crateindex/crateindex/internal/store"
	"github.com/crateindex/crateindex/internal/walker"
)

// app bundles the MCP server's tool logic behind a thin CLI-facing wrapper.
// Every subcommand reuses the exact same target resolution, pre-checks, and
// error mapping the embed/query/status/list/features tools use, rather than
// re-implementing them against the orchestrators directly.
type app struct {
	cfg    *config.Config
	store  *store.QdrantStore
	server *mcpserver.Server
}

// newApp loads configuration from configDir (the project directory, or "."
// for the working directory) and wires every collaborator a command might
// need. Subcommands that only need a subset of the fields still pay the
// full wiring cost, matching the teacher's own "one command, one fully
// wired app" pattern.
func newApp(ctx context.Context, configDir string) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	collectionStore, err := store.NewQdrantStore(cfg.VectorStore.URL, cfg.VectorStore.APIKey)
	if err != nil {
		return nil, fmt.Errorf("connecting to vector store: %w", err)
	}

	resolver := identity.NewResolver(cfg.Registry.BaseURL)
	embedder := embedclient.NewOpenAIClient(cfg.Embeddings.APIKey, cfg.Embeddings.BaseURL, cfg.Embeddings.Model)
	w := walker.New(chunk.NewRustChunker(), chunk.NewMarkdownChunker(), chunk.NewTypeScriptChunker())

	ingestOrch := ingest.New(w, embedder, collectionStore, resolver, cfg.VectorStore.VectorSize, cfg.Embeddings.Model)
	queryOrch := query.New(embedder, collectionStore)

	server := mcpserver.NewServer(ctx, ingestOrch, queryOrch, collectionStore, resolver, cfg)

	return &app{cfg: cfg, store: collectionStore, server: server}, nil
}

// Close releases the app's store connection and cancels the server's root
// scope. Safe to defer immediately after newApp succeeds.
func (a *app) Close() error {
	a.server.Close()
	return a.store.Close()
}
