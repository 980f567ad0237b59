// Package tokenbudget counts and trims text against a BPE token budget,
// the same way the cl100k_base tokenizer underlying text-embedding-3-small
// would see it.
package tokenbudget

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// MaxChunkTokens bounds a single code or comment chunk before embedding.
const MaxChunkTokens = 8192

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// encoding loads the cl100k_base BPE once. Failure is fatal: a chunker that
// can't count tokens correctly risks shipping a chunk past MaxChunkTokens to
// the embedding API, so there is no silent degraded mode to fall back to.
func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
		if encErr != nil {
			panic(fmt.Sprintf("tokenbudget: failed to load cl100k_base encoding: %v", encErr))
		}
	})
	return enc
}

// Count returns the number of cl100k_base tokens in text.
func Count(text string) int {
	bpe := encoding()
	return len(bpe.Encode(text, nil, nil))
}

// Truncate trims text to at most maxTokens tokens, returning it unchanged
// if it already fits.
func Truncate(text string, maxTokens int) string {
	bpe := encoding()

	tokens := bpe.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	return bpe.Decode(tokens[:maxTokens])
}
