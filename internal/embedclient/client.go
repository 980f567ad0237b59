// Package embedclient batches text through an external embedding endpoint,
// bounding both the size and the concurrency of outstanding requests.
package embedclient

import (
	"context"
)

// batchSize is the maximum number of texts sent in a single embedding
// request.
const batchSize = 50

// concurrentBatches is the maximum number of in-flight batch requests.
const concurrentBatches = 5

// Client embeds text into fixed-length vectors.
type Client interface {
	// EmbedBatch embeds texts, preserving positional order in the result.
	// Internally the input is partitioned into groups of at most
	// batchSize texts, with at most concurrentBatches groups in flight.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne embeds a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// embedBatches splits texts into groups of at most batchSize and returns
// them in order.
func embedBatches(texts []string) [][]string {
	if len(texts) == 0 {
		return nil
	}
	var groups [][]string
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		groups = append(groups, texts[start:end])
	}
	return groups
}
