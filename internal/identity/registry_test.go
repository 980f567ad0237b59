package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewResolver(srv.URL)
}

func TestResolver_ResolveLatest_PrefersStable(t *testing.T) {
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"crate":{"max_version":"2.0.0-beta.1","max_stable_version":"1.2.3"}}`))
	})
	got, err := r.ResolveLatest(context.Background(), "serde")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if got != "1.2.3" {
		t.Fatalf("ResolveLatest() = %q, want %q", got, "1.2.3")
	}
}

func TestResolver_ResolveLatest_FallsBackToMaxVersion(t *testing.T) {
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"crate":{"max_version":"2.0.0-beta.1","max_stable_version":""}}`))
	})
	got, err := r.ResolveLatest(context.Background(), "serde")
	if err != nil {
		t.Fatalf("ResolveLatest: %v", err)
	}
	if got != "2.0.0-beta.1" {
		t.Fatalf("ResolveLatest() = %q, want %q", got, "2.0.0-beta.1")
	}
}

func TestResolver_ResolveRepository(t *testing.T) {
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"crate":{"repository":"https://github.com/serde-rs/serde"}}`))
	})
	got, err := r.ResolveRepository(context.Background(), "serde")
	if err != nil {
		t.Fatalf("ResolveRepository: %v", err)
	}
	if got != "https://github.com/serde-rs/serde" {
		t.Fatalf("ResolveRepository() = %q", got)
	}
}

func TestResolver_Features_SortedAndUserAgentSet(t *testing.T) {
	var gotUA string
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		gotUA = req.Header.Get("User-Agent")
		w.Write([]byte(`{"version":{"num":"1.0.0","features":{"std":[],"derive":[],"alloc":[]}}}`))
	})
	got, err := r.Features(context.Background(), "serde", "1.0.0")
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	want := []string{"alloc", "derive", "std"}
	if len(got) != len(want) {
		t.Fatalf("Features() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Features() = %v, want %v", got, want)
		}
	}
	if gotUA == "" || !strings.Contains(gotUA, "crateindex") {
		t.Fatalf("User-Agent = %q, want it to identify crateindex", gotUA)
	}
}

func TestResolver_NonOKStatus(t *testing.T) {
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if _, err := r.ResolveLatest(context.Background(), "nonexistent"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
