package refdex

import "context"

// TokenCounter estimates how many model tokens a piece of text costs.
// Index planning uses it to size pending embedding work; estimates never
// gate execution.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
