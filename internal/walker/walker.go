// Package walker enumerates indexable files under a fetched repository root
// and dispatches each to the chunker that understands its extension.
package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/crateindex/crateindex/internal/chunk"
	"github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/gitignore"
)

// defaultExcludeDirs are directory names never descended into, regardless
// of gitignore contents.
var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
}

// FileChunks is one file's extracted chunks, reported relative to root.
type FileChunks struct {
	Path   string
	Chunks []chunk.Chunk
}

// Walker dispatches files to the registered chunker for their extension and
// runs extraction on a bounded worker pool.
type Walker struct {
	chunkers map[string]chunk.Chunker
	workers  int
}

// Option configures a Walker.
type Option func(*Walker)

// WithWorkers overrides the worker pool size. Defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// New creates a Walker wired to the three chunkers this system understands.
func New(rust, markdown, typescript chunk.Chunker, opts ...Option) *Walker {
	w := &Walker{
		chunkers: map[string]chunk.Chunker{
			".rs":  rust,
			".md":  markdown,
			".ts":  typescript,
			".tsx": typescript,
		},
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk enumerates regular files under root, skips conventionally-excluded
// directories and gitignored paths, dispatches each remaining file by
// extension, and runs chunk extraction on a bounded worker pool. Files with
// an unrecognized extension, or that produce zero chunks, are dropped from
// the result. The returned slice order is not guaranteed to match walk
// order, since extraction runs concurrently.
func (w *Walker) Walk(ctx context.Context, root string) ([]FileChunks, error) {
	matcher := loadGitignore(root)

	type candidate struct {
		path    string
		relPath string
		ext     string
	}
	var candidates []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if defaultExcludeDirs[d.Name()] {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.Match(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher != nil && matcher.Match(relPath, false) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := w.chunkers[ext]; !ok {
			return nil
		}

		candidates = append(candidates, candidate{path: path, relPath: relPath, ext: ext})
		return nil
	})
	if err != nil {
		return nil, errors.FetchFailed("repository walk failed", err)
	}

	results := make([]FileChunks, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			source, readErr := os.ReadFile(c.path)
			if readErr != nil {
				return nil
			}

			chunks, chunkErr := w.chunkers[c.ext].ExtractChunks(string(source))
			if chunkErr != nil {
				// ChunkFailed is file-local and non-fatal to the run (spec §7):
				// log and drop the file rather than aborting the whole walk.
				slog.Default().Warn("chunking failed, skipping file",
					"path", c.relPath, "error", errors.ChunkFailed("chunking failed for "+c.relPath, chunkErr))
				return nil
			}
			if len(chunks) == 0 {
				return nil
			}

			results[i] = FileChunks{Path: c.relPath, Chunks: chunks}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r.Path != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// loadGitignore builds a matcher from the root .gitignore, if present.
// A missing or unreadable file yields a nil matcher, which Walk treats as
// "nothing ignored".
func loadGitignore(root string) *gitignore.Matcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	m := gitignore.New()
	if err := m.AddFromFile(path, ""); err != nil {
		return nil
	}
	return m
}
