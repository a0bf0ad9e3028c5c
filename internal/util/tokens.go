package util

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates prompt sizes. It uses the cl100k tokenizer, which is
// close enough for budgeting across providers, and falls back to a
// four-characters-per-token heuristic when the codec is unavailable.
type TokenCounter struct {
	once  sync.Once
	codec tokenizer.Codec
}

// NewTokenCounter returns a lazily initialised counter.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Count returns the estimated number of tokens in text.
func (tc *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	tc.once.Do(func() {
		codec, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			tc.codec = codec
		}
	})

	if tc.codec != nil {
		if n, err := tc.codec.Count(text); err == nil {
			return n
		}
	}

	return EstimateTokens(text)
}

// EstimateTokens is the character based fallback estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
