package refdex

import "context"

// Answer is the result of asking a question against the indexed library.
type Answer struct {
	// Text is the synthesized answer.
	Text string `json:"text"`

	// Sources lists the passages the answer was grounded on, ordered by
	// descending relevance.
	Sources []SearchResult `json:"sources"`
}

// Asker provides natural language question answering over the indexed
// library.
type Asker interface {
	// Ask retrieves the passages most relevant to the question and
	// synthesizes an answer grounded on them.
	// Returns ENOTFOUND if no valid passage exists for the active model.
	Ask(ctx context.Context, question string) (*Answer, error)
}
