// Package identity derives canonical collection names from target
// identifiers and resolves package versions/features/repository URLs
// against an upstream crate registry.
package identity

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/fetch"
)

// Target is a canonical identifier for the body of code being indexed: either
// a repository reference or a package name pinned to a version, optionally
// carrying a set of requested feature flags.
type Target struct {
	// Repository is set for a repository target; Package is empty.
	Repository string

	// Package and Version are set for a package target; Repository is empty.
	// ParsePackage keeps a Version of "*" or "" as given; callers that need
	// latest-version resolution run Resolver.ResolveLatest and build the
	// Target with the resolved version.
	Package string
	Version string

	// Features is the sorted set of requested package features. Always nil
	// for repository targets.
	Features []string
}

// IsRepository reports whether t identifies a repository rather than a
// package+version.
func (t Target) IsRepository() bool {
	return t.Repository != ""
}

// String renders t back into the form a caller would supply to Parse,
// primarily for logging.
func (t Target) String() string {
	if t.IsRepository() {
		return t.Repository
	}
	if len(t.Features) > 0 {
		return fmt.Sprintf("%s@%s[%s]", t.Package, t.Version, strings.Join(t.Features, ","))
	}
	return fmt.Sprintf("%s@%s", t.Package, t.Version)
}

// ParseRepository builds a Target from a repository reference, accepting
// the same "owner/repo" shorthand and full-URL forms fetch.Clone does.
// GitHub references are normalized to "https://github.com/<owner>/<repo>"
// so two URLs denoting the same GitHub repository always produce the same
// Target; a URL on any other host is kept as given.
func ParseRepository(ref string) (Target, error) {
	owner, repo, err := fetch.OwnerRepo(ref)
	if err != nil {
		return Target{}, err
	}
	trimmed := strings.TrimSpace(ref)
	if u, perr := url.Parse(trimmed); perr == nil && u.Host != "" && !strings.EqualFold(u.Host, "github.com") {
		return Target{Repository: trimmed}, nil
	}
	return Target{Repository: fmt.Sprintf("%s/%s/%s", fetch.DefaultHost, owner, repo)}, nil
}

// ParsePackage builds a Target from a package name and version string.
// version of "" or "*" is left as-is here; the caller (typically the tool
// server's pre-check) is responsible for calling ResolveLatest and
// re-constructing the Target with the resolved version before any
// collection-name derivation happens, per spec §4.9's "inputs that
// normalize away are substituted with the resolver's result".
func ParsePackage(name, version string, features []string) (Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Target{}, errors.InvalidTarget("package name is empty", nil)
	}
	sorted := append([]string(nil), features...)
	sort.Strings(sorted)
	return Target{Package: name, Version: strings.TrimSpace(version), Features: sorted}, nil
}

// IsLatestRequest reports whether version denotes "give me the latest
// version" per spec §6 ("version * or empty ≡ latest").
func IsLatestRequest(version string) bool {
	v := strings.TrimSpace(version)
	return v == "" || v == "*"
}

// CanonicalCollection derives the collection name for t. The function is
// pure and total (spec P1): two Targets denoting the same underlying
// identity always yield the same name, since both ParseRepository and
// ParsePackage fold equivalent inputs into the same Target fields before
// this is ever called.
func CanonicalCollection(t Target) string {
	if t.IsRepository() {
		owner, repo, err := fetch.OwnerRepo(t.Repository)
		if err != nil {
			// Unreachable for Targets built via ParseRepository, which already
			// validated the reference; guard defensively for hand-built Targets.
			return "repo_" + sanitize(t.Repository)
		}
		return "repo_" + sanitize(owner) + "_" + sanitize(repo)
	}

	pkg := strings.ToLower(sanitize(t.Package))
	version := strings.ReplaceAll(t.Version, ".", "_")
	return pkg + "_v" + version
}

// sanitize replaces hyphens with underscores, the one substitution both
// collection-name shapes apply to their path components (spec §6).
func sanitize(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

