// Package docgen shells out to cargo doc to render a package's rustdoc
// output, which the gen-docs CLI command then embeds as an ordinary source
// tree; only its markdown files are chunked, and HTML pages are skipped by
// the walker like any other unrecognized extension. Generating the docs
// themselves is treated as
// an external collaborator; this package only drives the subprocess and
// locates its output directory.
package docgen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/fetch"
)

// Result is a generated documentation tree: the directory it was rendered
// into and a cleanup closure removing the scratch checkout it was built
// from.
type Result struct {
	Path    string
	Cleanup func() error
}

// Generator renders cargo doc output against an already-checked-out source
// tree. The exec field is overridable for tests.
type Generator struct {
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New creates a Generator that shells out to the real cargo binary.
func New() *Generator {
	return &Generator{execCommand: exec.CommandContext}
}

// Render runs "cargo doc --no-deps" inside srcDir with the requested
// features and returns the path cargo rendered HTML docs into (the crate's
// target/doc/<crateName> directory, falling back to target/doc if cargo
// didn't namespace it that way).
func (g *Generator) Render(ctx context.Context, srcDir, crateName string, features []string) (string, error) {
	args := []string{"doc", "--no-deps"}
	if len(features) > 0 {
		args = append(args, "--features", strings.Join(features, ","))
	}

	cmd := g.execCommand(ctx, "cargo", args...)
	cmd.Dir = srcDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.InternalError(fmt.Sprintf("cargo doc failed: %s", strings.TrimSpace(string(out))), err)
	}

	docDir := filepath.Join(srcDir, "target", "doc", crateName)
	if _, err := os.Stat(docDir); err != nil {
		docDir = filepath.Join(srcDir, "target", "doc")
	}
	return docDir, nil
}

// GenerateFromRepo clones repoURL and renders its documentation, for the
// gen-docs CLI command. The caller must invoke the returned Result's
// Cleanup once it has walked the directory.
func (g *Generator) GenerateFromRepo(ctx context.Context, repoURL, crateName string, features []string) (*Result, error) {
	fetched, err := fetch.Clone(ctx, repoURL)
	if err != nil {
		return nil, err
	}

	docDir, err := g.Render(ctx, fetched.Path, crateName, features)
	if err != nil {
		_ = fetched.Cleanup()
		return nil, err
	}

	return &Result{Path: docDir, Cleanup: fetched.Cleanup}, nil
}
