package refdex

// Chunk represents a section of a document optimized for embedding and
// retrieval.
type Chunk struct {
	// ID identifies the chunk within its document. IDs are zero-padded
	// ordinals assigned in document order, so identical content always
	// produces identical IDs.
	ID string `json:"id"`

	// Text is the chunk content in markdown.
	Text string `json:"text"`

	// HeadingPath is the heading hierarchy above the chunk, joined with
	// " > " (e.g. "Methods > Data collection"). Empty for content before
	// the first heading.
	HeadingPath string `json:"headingPath"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return Errorf(EINVALID, "Chunk ID required.")
	}
	if c.Text == "" {
		return Errorf(EINVALID, "Chunk text required.")
	}
	return nil
}

// Chunker splits extracted document text into chunks for embedding.
// Chunking must be deterministic: the same input yields the same chunks
// with the same IDs, since chunk IDs key the index entries.
type Chunker interface {
	Chunk(text string) ([]Chunk, error)
}
