package mock

import (
	"github.com/refdex/refdex"
)

var _ refdex.Chunker = (*Chunker)(nil)

// Chunker is a mock implementation of refdex.Chunker.
type Chunker struct {
	ChunkFn func(text string) ([]refdex.Chunk, error)
}

func (c *Chunker) Chunk(text string) ([]refdex.Chunk, error) {
	return c.ChunkFn(text)
}
