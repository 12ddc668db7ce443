package refdex

// Converter converts HTML to Markdown. HTML attachments pass through a
// Converter before chunking so that one chunker handles every text format.
type Converter interface {
	// Convert transforms HTML content into Markdown. The input is
	// expected to be clean content HTML, typically an Extractor's output.
	Convert(html string) (string, error)
}
