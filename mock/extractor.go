package mock

import (
	"github.com/refdex/refdex"
)

var _ refdex.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of refdex.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*refdex.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*refdex.ExtractResult, error) {
	return e.ExtractFn(html)
}
