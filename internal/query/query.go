// Package query implements the semantic query path of spec §4.11: embed a
// query string and search the collection belonging to a target.
package query

import (
	"context"

	"github.com/crateindex/crateindex/internal/embedclient"
	"github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/identity"
	"github.com/crateindex/crateindex/internal/store"
)

// DefaultLimit is the result count the query tool and CLI fall back to when
// the caller does not specify one (spec §4.12's `query` tool contract).
const DefaultLimit = 10

// Orchestrator composes C8 (embed) and C7 (search) into the query
// procedure spec §4.11 describes.
type Orchestrator struct {
	Embedder embedclient.Client
	Store    store.CollectionStore
}

// New creates an Orchestrator from its two collaborators.
func New(embedder embedclient.Client, collectionStore store.CollectionStore) *Orchestrator {
	return &Orchestrator{Embedder: embedder, Store: collectionStore}
}

// Query embeds q and searches the collection belonging to target, per spec
// §4.11: canonicalize, existence check, embed, search, empty-result check.
// limit <= 0 falls back to DefaultLimit.
func (o *Orchestrator) Query(ctx context.Context, target identity.Target, q string, limit int) ([]store.ScoredContent, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	collection := identity.CanonicalCollection(target)

	exists, err := o.Store.Exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NoEmbeddedDocs("no embedded documents for " + target.String())
	}

	vector, err := o.Embedder.EmbedOne(ctx, q)
	if err != nil {
		return nil, err
	}

	results, err := o.Store.Search(ctx, collection, vector, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.NoQueryResults("no results for query " + q)
	}

	return results, nil
}
