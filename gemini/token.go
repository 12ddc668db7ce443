package gemini

import (
	"context"

	"github.com/refdex/refdex"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ refdex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter sizes chunk text with the local Gemini tokenizer, without
// API calls. Counts are approximate for embedding models, whose tokenizers
// are not published; the generative-model tokenizer is close enough for
// plan estimates.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a TokenCounter using the tokenizer of the given
// generative model, e.g. "gemini-2.5-flash". Downloads the tokenizer data
// on first use and caches it locally.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the tokens in text. Counting is local; ctx is
// accepted for interface symmetry but never blocks on it.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{
		genai.NewContentFromText(text, "user"),
	}, nil)
	if err != nil {
		return 0, err
	}

	return int(result.TotalTokens), nil
}
