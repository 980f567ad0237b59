package embedclient

import "context"

// FakeClient is a deterministic Client used by orchestrator tests in place
// of a live embedding endpoint. EmbedOne and EmbedBatch return vectors of
// Dims components (4 when Dims is not positive) whose first component is
// the text's length and whose other components are zero, which is enough
// for tests to assert on ordering and dimensionality without a real model.
type FakeClient struct {
	Dims int
}

var _ Client = (*FakeClient)(nil)

func (f *FakeClient) EmbedOne(_ context.Context, text string) ([]float32, error) {
	return f.vectorFor(text), nil
}

func (f *FakeClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = f.vectorFor(text)
	}
	return vectors, nil
}

func (f *FakeClient) vectorFor(text string) []float32 {
	dims := f.Dims
	if dims <= 0 {
		dims = 4
	}
	vec := make([]float32, dims)
	vec[0] = float32(len(text))
	return vec
}
