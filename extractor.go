package refdex

// ExtractResult holds the extracted content from an HTML attachment.
type ExtractResult struct {
	// Title is the document title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML documents, removing
// boilerplate. Web-captured attachments carry reader chrome and site
// navigation that would pollute the index.
type Extractor interface {
	// Extract processes raw HTML and returns the main content with
	// structure (headings, lists, code blocks) preserved. The title comes
	// from page metadata when present.
	Extract(html string) (*ExtractResult, error)
}
