package mock

import (
	"github.com/refdex/refdex"
)

var _ refdex.Converter = (*Converter)(nil)

// Converter is a mock implementation of refdex.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
