package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/crateindex/crateindex/internal/errors"
)

// DefaultRegistryURL is the crates.io-shaped registry this system resolves
// package targets against.
const DefaultRegistryURL = "https://crates.io/api/v1/crates"

const userAgent = "crateindex (https://github.com/crateindex/crateindex)"

// Resolver looks up version, feature, and repository information for a
// package target from an upstream crate registry.
type Resolver struct {
	baseURL string
	client  *http.Client
}

// NewResolver creates a Resolver against baseURL (normally
// DefaultRegistryURL; overridable for self-hosted registries or tests).
func NewResolver(baseURL string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}
	return &Resolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// crateResponse mirrors the subset of the registry's GET /crates/{name}
// response this system reads: the crate's declared max/max-stable version
// and its repository URL.
type crateResponse struct {
	Crate struct {
		MaxVersion       string `json:"max_version"`
		MaxStableVersion string `json:"max_stable_version"`
		Repository       string `json:"repository"`
	} `json:"crate"`
}

// versionResponse mirrors GET /crates/{name}/{version}: the feature map
// declared by that specific version.
type versionResponse struct {
	Version struct {
		Num      string              `json:"num"`
		Features map[string][]string `json:"features"`
	} `json:"version"`
}

// ResolveLatest returns the latest version for name, preferring
// max_stable_version and falling back to max_version when no stable
// release exists (spec §4.9).
func (r *Resolver) ResolveLatest(ctx context.Context, name string) (string, error) {
	var resp crateResponse
	if err := r.getJSON(ctx, fmt.Sprintf("%s/%s", r.baseURL, name), &resp); err != nil {
		return "", errors.VersionResolutionFailed(fmt.Sprintf("could not resolve latest version for %q", name), err)
	}
	if resp.Crate.MaxStableVersion != "" {
		return resp.Crate.MaxStableVersion, nil
	}
	if resp.Crate.MaxVersion != "" {
		return resp.Crate.MaxVersion, nil
	}
	return "", errors.VersionResolutionFailed(fmt.Sprintf("registry reported no version for %q", name), nil)
}

// ResolveRepository returns the declared repository URL for name.
func (r *Resolver) ResolveRepository(ctx context.Context, name string) (string, error) {
	var resp crateResponse
	if err := r.getJSON(ctx, fmt.Sprintf("%s/%s", r.baseURL, name), &resp); err != nil {
		return "", errors.VersionResolutionFailed(fmt.Sprintf("could not resolve repository for %q", name), err)
	}
	if resp.Crate.Repository == "" {
		return "", errors.VersionResolutionFailed(fmt.Sprintf("registry declares no repository for %q", name), nil)
	}
	return resp.Crate.Repository, nil
}

// Features returns the sorted feature names declared by name@version.
func (r *Resolver) Features(ctx context.Context, name, version string) ([]string, error) {
	var resp versionResponse
	url := fmt.Sprintf("%s/%s/%s", r.baseURL, name, version)
	if err := r.getJSON(ctx, url, &resp); err != nil {
		return nil, errors.VersionResolutionFailed(fmt.Sprintf("could not fetch features for %s@%s", name, version), err)
	}

	names := make([]string, 0, len(resp.Version.Features))
	for feature := range resp.Version.Features {
		names = append(names, feature)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Resolver) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned %s for %s", resp.Status, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// UnknownFeature reports whether requested is absent from available (both
// assumed non-nil; available is expected sorted but this does a plain
// membership scan since feature sets are small).
func UnknownFeature(requested string, available []string) bool {
	for _, f := range available {
		if f == requested {
			return false
		}
	}
	return true
}

// EqualFeatures reports whether two sorted feature slices are identical,
// used by the tool server's idempotency/conflict check (spec §4.12).
func EqualFeatures(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
