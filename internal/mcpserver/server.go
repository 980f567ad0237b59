// Package mcpserver exposes the ingestion and query orchestrators as the six
// MCP tools spec §4.12 names: embed, query, status, list, features, and
// shutdown, tracking long-running ingestions in an in-memory operation
// registry.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/crateindex/crateindex/internal/config"
	ciErrors "github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/identity"
	"github.com/crateindex/crateindex/internal/ingest"
	"github.com/crateindex/crateindex/internal/query"
	"github.com/crateindex/crateindex/internal/store"
	"github.com/crateindex/crateindex/pkg/version"
)

// Server is the MCP server fronting crateindex's ingestion and query
// pipeline. A single Server owns the root cancellation scope every
// in-flight embed operation's context derives from.
type Server struct {
	mcp *mcp.Server

	ingest   *ingest.Orchestrator
	query    *query.Orchestrator
	store    store.CollectionStore
	resolver *identity.Resolver
	config   *config.Config
	logger   *slog.Logger

	registry   *Registry
	rootCancel context.CancelFunc
}

// NewServer wires the ingestion and query orchestrators, the collection
// store, and the registry feature resolver into an MCP server. rootCtx is
// the parent every operation's context derives from; cancelling it (or
// calling the shutdown tool) tears down every in-progress embed.
func NewServer(rootCtx context.Context, ingestOrch *ingest.Orchestrator, queryOrch *query.Orchestrator, collectionStore store.CollectionStore, resolver *identity.Resolver, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	root, cancel := context.WithCancel(rootCtx)

	s := &Server{
		ingest:     ingestOrch,
		query:      queryOrch,
		store:      collectionStore,
		resolver:   resolver,
		config:     cfg,
		logger:     slog.Default(),
		registry:   NewRegistry(root),
		rootCancel: cancel,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "crateindex",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Registry exposes the operation registry, primarily for the CLI's status
// subcommand when running embed synchronously in-process.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Serve starts the server with the given transport. Only "stdio" is
// implemented; crateindex is invoked as a subprocess by MCP clients, not
// reached over the network.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport), slog.String("addr", addr))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	case "sse":
		return fmt.Errorf("SSE transport not yet implemented")
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close cancels every in-progress operation and the server's root scope.
func (s *Server) Close() {
	s.registry.CancelAll()
	s.rootCancel()
}

// slogAttrs flattens a FormatForLog field map into slog's alternating
// key-value argument form.
func slogAttrs(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

// registerTools registers the six tools spec §4.12 names with the MCP SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "embed",
		Description: "Clone and embed a repository or package into a vector collection so it can be queried. Returns an operation id; poll status to track progress. Idempotent: calling it again on an already-embedded target with the same features returns success immediately.",
	}, s.mcpEmbedHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query",
		Description: "Semantically search an already-embedded repository or package for the passages most relevant to a natural-language question.",
	}, s.mcpQueryHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "status",
		Description: "Check the status of a background embed operation by its operation id.",
	}, s.mcpStatusHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list",
		Description: "List every collection currently known to the vector store, with its embedding metadata if present.",
	}, s.mcpListHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "features",
		Description: "List the features declared by a package at a given version in the upstream registry.",
	}, s.mcpFeaturesHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "shutdown",
		Description: "Cancel every in-progress embed operation and tear down the server's root cancellation scope.",
	}, s.mcpShutdownHandler)
}

// EmbedInput is the input schema for the embed tool. Target is either a
// repository reference ("owner/repo" or a full URL) or a package name;
// Version and Features only apply to package targets.
type EmbedInput struct {
	Target   string   `json:"target" jsonschema:"repository reference (owner/repo or URL) or package name"`
	Version  string   `json:"version,omitempty" jsonschema:"package version; omitted or * resolves to latest"`
	Features []string `json:"features,omitempty" jsonschema:"requested package features"`
}

// EmbedOutput is the output schema for the embed tool.
type EmbedOutput struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
}

func (s *Server) mcpEmbedHandler(ctx context.Context, _ *mcp.CallToolRequest, input EmbedInput) (*mcp.CallToolResult, EmbedOutput, error) {
	target, err := s.resolveTarget(ctx, input.Target, input.Version, input.Features)
	if err != nil {
		return nil, EmbedOutput{}, MapError(err)
	}

	if rec, ok := s.registry.FindInProgress(target.String()); ok {
		return nil, EmbedOutput{OperationID: rec.ID, Status: string(rec.Status), Message: "embedding already in progress"}, nil
	}

	idempotent, err := s.precheckExisting(ctx, target)
	if err != nil {
		return nil, EmbedOutput{}, MapError(err)
	}
	if idempotent != nil {
		op := s.registry.complete(target.String(), identity.CanonicalCollection(target), idempotent.DocCount)
		return nil, EmbedOutput{OperationID: op.ID, Status: string(op.Status), Message: op.Message}, nil
	}

	op, opCtx := s.registry.Start(target.String())
	go s.runEmbed(opCtx, op.ID, target)

	return nil, EmbedOutput{OperationID: op.ID, Status: string(op.Status)}, nil
}

// runEmbed executes an embed operation in the background and reports the
// outcome back to the registry. It never returns a value; all observation
// happens through the registry's Get/status tool.
func (s *Server) runEmbed(ctx context.Context, opID string, target identity.Target) {
	result, err := s.ingest.EmbedTarget(ctx, target, func(msg string) {
		s.registry.Progress(opID, msg)
	})
	if err != nil {
		if ctx.Err() != nil {
			s.registry.Fail(opID, "Operation cancelled")
			return
		}
		s.logger.Error("embed operation failed", slogAttrs(ciErrors.FormatForLog(err))...)
		s.registry.Fail(opID, err.Error())
		return
	}
	s.registry.Complete(opID, result.Collection, result.DocCount)
}

// precheckExisting implements spec §4.12's pre-checks before spawning an
// embed operation: a repository target is idempotent purely by existing; a
// package target additionally compares requested features against the
// collection's recorded metadata, returning Conflict on a mismatch.
func (s *Server) precheckExisting(ctx context.Context, target identity.Target) (*ingest.Result, error) {
	collection := identity.CanonicalCollection(target)

	exists, err := s.store.Exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	if target.IsRepository() {
		return &ingest.Result{Collection: collection}, nil
	}

	meta, err := s.store.ReadMetadata(ctx, collection)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}

	existing := existingFeatures(meta.Target)
	if !identity.EqualFeatures(existing, target.Features) {
		return nil, ciErrors.Conflict(fmt.Sprintf("collection %s already embedded with different features", collection))
	}

	return &ingest.Result{Collection: collection, DocCount: meta.DocCount}, nil
}

// existingFeatures extracts the feature list from a metadata record's
// Target field, which ingest.metadataTarget wrote as a
// map[string]any{"features": []string, ...} for package targets. The
// underlying store determines its shape: MemoryStore keeps the original
// []string, a Qdrant round-trip through JSON turns it into []any.
func existingFeatures(raw any) []string {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	switch fs := m["features"].(type) {
	case []string:
		return fs
	case []any:
		out := make([]string, 0, len(fs))
		for _, f := range fs {
			if s, ok := f.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// resolveTarget classifies and normalizes a raw tool/CLI target string into
// an identity.Target, resolving a package's latest version and validating
// requested features against the registry. A target containing a "/" is
// treated as a repository reference; anything else is a package name, the
// heuristic original_source/src/target.rs uses to disambiguate a single
// positional argument.
func (s *Server) resolveTarget(ctx context.Context, raw, versionIn string, features []string) (identity.Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return identity.Target{}, ciErrors.InvalidTarget("target is empty", nil)
	}

	if strings.Contains(raw, "/") {
		return identity.ParseRepository(raw)
	}

	version := versionIn
	if identity.IsLatestRequest(version) {
		resolved, err := s.resolver.ResolveLatest(ctx, raw)
		if err != nil {
			return identity.Target{}, err
		}
		version = resolved
	}

	target, err := identity.ParsePackage(raw, version, features)
	if err != nil {
		return identity.Target{}, err
	}

	if len(target.Features) > 0 {
		available, err := s.resolver.Features(ctx, target.Package, target.Version)
		if err != nil {
			return identity.Target{}, err
		}
		for _, f := range target.Features {
			if identity.UnknownFeature(f, available) {
				return identity.Target{}, ciErrors.UnknownFeature(fmt.Sprintf("%q is not a feature of %s@%s", f, target.Package, target.Version), nil)
			}
		}
	}

	return target, nil
}

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Target   string   `json:"target" jsonschema:"repository reference or package name to search within"`
	Version  string   `json:"version,omitempty" jsonschema:"package version; omitted or * resolves to latest"`
	Features []string `json:"features,omitempty" jsonschema:"requested package features, must match the embedded collection"`
	Query    string   `json:"query" jsonschema:"natural-language search query"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Header  string        `json:"header"`
	Results []QueryResult `json:"results"`
}

// QueryResult is one ranked excerpt.
type QueryResult struct {
	Score   float32 `json:"score"`
	Content string  `json:"content"`
}

func (s *Server) mcpQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, QueryOutput{}, MapError(ciErrors.ValidationError("query must not be empty", nil))
	}

	target, err := s.resolveTarget(ctx, input.Target, input.Version, input.Features)
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	hits, err := s.query.Query(ctx, target, input.Query, input.Limit)
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	results := make([]QueryResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, QueryResult{Score: h.Score, Content: h.Content})
	}

	header := fmt.Sprintf("%d result(s) for %q in %s", len(results), input.Query, target.String())
	return nil, QueryOutput{Header: header, Results: results}, nil
}

// StatusInput is the input schema for the status tool.
type StatusInput struct {
	OperationID string `json:"operation_id" jsonschema:"operation id returned by the embed tool"`
}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	OperationID string `json:"operation_id"`
	Target      string `json:"target"`
	Collection  string `json:"collection,omitempty"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	DocCount    int    `json:"doc_count,omitempty"`
}

func (s *Server) mcpStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	rec, ok := s.registry.Get(input.OperationID)
	if !ok {
		return nil, StatusOutput{}, MapError(ciErrors.OperationNotFound(input.OperationID))
	}

	return nil, StatusOutput{
		OperationID: rec.ID,
		Target:      rec.Target,
		Collection:  rec.Collection,
		Status:      string(rec.Status),
		Message:     rec.Message,
		DocCount:    rec.DocCount,
	}, nil
}

// ListInput is the input schema for the list tool. It takes no fields.
type ListInput struct{}

// ListOutput is the output schema for the list tool.
type ListOutput struct {
	Collections []CollectionInfo `json:"collections"`
}

// CollectionInfo describes one collection known to the vector store.
type CollectionInfo struct {
	Name           string `json:"name"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	DocCount       int    `json:"doc_count,omitempty"`
}

func (s *Server) mcpListHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, ListOutput, error) {
	names, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, ListOutput{}, MapError(err)
	}

	out := ListOutput{Collections: make([]CollectionInfo, 0, len(names))}
	for _, name := range names {
		info := CollectionInfo{Name: name}
		if meta, err := s.store.ReadMetadata(ctx, name); err == nil && meta != nil {
			info.EmbeddingModel = meta.EmbeddingModel
			info.DocCount = meta.DocCount
		}
		out.Collections = append(out.Collections, info)
	}

	return nil, out, nil
}

// FeaturesInput is the input schema for the features tool.
type FeaturesInput struct {
	Package string `json:"package" jsonschema:"package name"`
	Version string `json:"version,omitempty" jsonschema:"package version; omitted or * resolves to latest"`
}

// FeaturesOutput is the output schema for the features tool.
type FeaturesOutput struct {
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

func (s *Server) mcpFeaturesHandler(ctx context.Context, _ *mcp.CallToolRequest, input FeaturesInput) (*mcp.CallToolResult, FeaturesOutput, error) {
	version := input.Version
	if identity.IsLatestRequest(version) {
		resolved, err := s.resolver.ResolveLatest(ctx, input.Package)
		if err != nil {
			return nil, FeaturesOutput{}, MapError(err)
		}
		version = resolved
	}

	features, err := s.resolver.Features(ctx, input.Package, version)
	if err != nil {
		return nil, FeaturesOutput{}, MapError(err)
	}

	return nil, FeaturesOutput{Version: version, Features: features}, nil
}

// ShutdownInput is the input schema for the shutdown tool. It takes no
// fields.
type ShutdownInput struct{}

// ShutdownOutput is the output schema for the shutdown tool.
type ShutdownOutput struct {
	Message string `json:"message"`
}

func (s *Server) mcpShutdownHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ShutdownInput) (*mcp.CallToolResult, ShutdownOutput, error) {
	s.Close()
	return nil, ShutdownOutput{Message: "shutdown initiated"}, nil
}

// EmbedAndWait runs the embed tool's full pre-check and ingestion
// synchronously, for the CLI's "embed" subcommand: a one-shot process has
// no later call to poll status with, so it blocks until the operation
// reaches a terminal state and returns the final record. progress, if
// non-nil, receives the same stage messages the background path reports.
func (s *Server) EmbedAndWait(ctx context.Context, rawTarget, version string, features []string, progress func(string)) (Record, error) {
	target, err := s.resolveTarget(ctx, rawTarget, version, features)
	if err != nil {
		return Record{}, err
	}

	idempotent, err := s.precheckExisting(ctx, target)
	if err != nil {
		return Record{}, err
	}
	if idempotent != nil {
		op := s.registry.complete(target.String(), identity.CanonicalCollection(target), idempotent.DocCount)
		return op.snapshot(), nil
	}

	op, opCtx := s.registry.Start(target.String())
	s.runEmbed(opCtx, op.ID, target)

	rec, _ := s.registry.Get(op.ID)
	if rec.Status == StatusFailed {
		return rec, ciErrors.InternalError(rec.Message, nil)
	}
	return rec, nil
}

// ResolveRepository looks up the repository URL backing a package, for the
// CLI's "gen-docs" subcommand to clone before running cargo doc.
func (s *Server) ResolveRepository(ctx context.Context, pkg string) (string, error) {
	return s.resolver.ResolveRepository(ctx, pkg)
}

// EmbedLocalDocs embeds an already-generated documentation directory for a
// package target, for the CLI's "gen-docs" subcommand: rustdoc generation
// is an external collaborator, so this skips the fetch stage and walks dir
// directly rather than cloning a repository.
func (s *Server) EmbedLocalDocs(ctx context.Context, pkg, ver string, features []string, dir string, progress func(string)) (Record, error) {
	target, err := identity.ParsePackage(pkg, ver, features)
	if err != nil {
		return Record{}, err
	}

	op, opCtx := s.registry.Start(target.String())
	result, err := s.ingest.EmbedLocalDirectory(opCtx, target, dir, func(msg string) {
		s.registry.Progress(op.ID, msg)
	})
	if err != nil {
		s.logger.Error("local-docs embed failed", slogAttrs(ciErrors.FormatForLog(err))...)
		s.registry.Fail(op.ID, err.Error())
		rec, _ := s.registry.Get(op.ID)
		return rec, err
	}

	s.registry.Complete(op.ID, result.Collection, result.DocCount)
	rec, _ := s.registry.Get(op.ID)
	return rec, nil
}

// Query runs the query tool's logic directly, for the CLI's "query"
// subcommand.
func (s *Server) Query(ctx context.Context, rawTarget, version string, features []string, q string, limit int) (QueryOutput, error) {
	_, out, err := s.mcpQueryHandler(ctx, nil, QueryInput{Target: rawTarget, Version: version, Features: features, Query: q, Limit: limit})
	return out, err
}

// Status looks up an operation by id, for the CLI's "status" subcommand.
func (s *Server) Status(operationID string) (StatusOutput, error) {
	_, out, err := s.mcpStatusHandler(context.Background(), nil, StatusInput{OperationID: operationID})
	return out, err
}

// ListCollections lists every known collection, for the CLI's "list"
// subcommand.
func (s *Server) ListCollections(ctx context.Context) (ListOutput, error) {
	_, out, err := s.mcpListHandler(ctx, nil, ListInput{})
	return out, err
}

// Features resolves a package's declared features, for the CLI's
// "features" subcommand.
func (s *Server) Features(ctx context.Context, pkg, version string) (FeaturesOutput, error) {
	_, out, err := s.mcpFeaturesHandler(ctx, nil, FeaturesInput{Package: pkg, Version: version})
	return out, err
}
