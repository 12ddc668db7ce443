package mock

import (
	"context"

	"github.com/refdex/refdex"
)

var _ refdex.Asker = (*Asker)(nil)

// Asker is a mock implementation of refdex.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string) (*refdex.Answer, error)
}

func (a *Asker) Ask(ctx context.Context, question string) (*refdex.Answer, error) {
	return a.AskFn(ctx, question)
}
