package embedclient

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"golang.org/x/sync/errgroup"

	"github.com/crateindex/crateindex/internal/errors"
)

// OpenAIClient embeds text via an OpenAI-compatible embeddings endpoint.
type OpenAIClient struct {
	client  openai.Client
	model   string
	retry   errors.RetryConfig
	breaker *errors.CircuitBreaker
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a Client targeting model. baseURL overrides the
// default OpenAI endpoint when set (e.g. a self-hosted or proxy embedding
// provider at CRATEINDEX_EMBEDDING_BASE_URL); apiKey authenticates the
// request.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		retry:   errors.DefaultRetryConfig(),
		breaker: errors.NewCircuitBreaker("embedding-provider"),
	}
}

func (c *OpenAIClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	groups := embedBatches(texts)
	if len(groups) == 0 {
		return nil, nil
	}

	results := make([][][]float32, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrentBatches)

	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			vectors, err := errors.CircuitExecuteWithResult(c.breaker, func() ([][]float32, error) {
				return errors.RetryWithResult(gctx, c.retry, func() ([][]float32, error) {
					return c.embedGroup(gctx, group)
				})
			}, func() ([][]float32, error) {
				return nil, errors.ErrCircuitOpen
			})
			if err != nil {
				return errors.EmbeddingFailed(fmt.Sprintf("embedding batch %d failed", i), err)
			}
			results[i] = vectors
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, group := range results {
		out = append(out, group...)
	}
	return out, nil
}

func (c *OpenAIClient) embedGroup(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: c.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		vec := make([]float32, len(datum.Embedding))
		for j, v := range datum.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
