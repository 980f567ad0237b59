// Package fetch shallow-clones a remote repository reference into a scoped
// temporary directory for the ingestion pipeline to walk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/crateindex/crateindex/internal/errors"
)

// DefaultHost is the host assumed for "owner/repo" shorthand targets.
const DefaultHost = "https://github.com"

// Result is a fetched repository: the scoped directory it was cloned into
// and a cleanup closure that removes the directory. Cleanup is always safe
// to call, including after a failed clone, and should run from the caller's
// deferred cleanup regardless of how the ingestion run ends.
type Result struct {
	Path    string
	Cleanup func() error
}

// Clone performs a shallow (depth 1) clone of repoURL into a fresh
// os.MkdirTemp scope directory. repoURL may be a GitHub
// "https://github.com/owner/repo[...]" URL (extra path segments beyond
// owner/repo are stripped) or an "owner/repo" shorthand, which resolves
// against DefaultHost. URLs on other hosts are passed through to go-git
// unmodified.
func Clone(ctx context.Context, repoURL string) (*Result, error) {
	canonical, err := canonicalize(repoURL)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "crateindex-fetch-*")
	if err != nil {
		return nil, errors.FetchFailed("could not create scope directory", err)
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      canonical,
		Depth:    1,
		Progress: io.Discard,
	})
	if err != nil {
		_ = cleanup()
		return nil, errors.FetchFailed(fmt.Sprintf("clone of %s failed", canonical), err)
	}

	return &Result{Path: dir, Cleanup: cleanup}, nil
}

// canonicalize normalizes repoURL into a clonable URL. It accepts
// "owner/repo" shorthand and full URLs whose path carries extra segments
// (e.g. "/blob/main/README.md", "/tree/main"), truncating those to the
// owner/repo pair. URLs on hosts other than github.com pass through
// unmodified.
func canonicalize(repoURL string) (string, error) {
	owner, repo, err := OwnerRepo(repoURL)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(repoURL)
	if !strings.Contains(trimmed, "://") {
		return fmt.Sprintf("%s/%s/%s", DefaultHost, owner, repo), nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.InvalidTarget(fmt.Sprintf("%q could not be parsed as a URL", repoURL), err)
	}
	if !strings.EqualFold(parsed.Host, "github.com") {
		return trimmed, nil
	}
	parsed.Path = "/" + owner + "/" + repo
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// OwnerRepo extracts the owner and repo path segments from a repository
// reference, accepting the same "owner/repo" shorthand and full-URL forms
// as Clone. It performs no network or filesystem access, so callers that
// only need the identity of a target (not its contents) can use it without
// pulling in Clone's side effects.
func OwnerRepo(repoURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(repoURL)
	if trimmed == "" {
		return "", "", errors.InvalidTarget("repository reference is empty", nil)
	}

	if !strings.Contains(trimmed, "://") {
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", errors.InvalidTarget(fmt.Sprintf("%q is neither a URL nor owner/repo shorthand", repoURL), nil)
		}
		return parts[0], parts[1], nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", errors.InvalidTarget(fmt.Sprintf("%q could not be parsed as a URL", repoURL), err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", errors.InvalidTarget(fmt.Sprintf("%q has no owner/repo path", repoURL), nil)
	}
	return segments[0], segments[1], nil
}
