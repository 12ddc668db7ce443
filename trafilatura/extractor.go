// Package trafilatura provides a boilerplate-removing implementation of
// refdex.Extractor for HTML attachments captured from the web.
package trafilatura

import (
	"bytes"
	"errors"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/refdex/refdex"
	"golang.org/x/net/html"
)

// Ensure Extractor implements refdex.Extractor at compile time.
var _ refdex.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
// Web-captured article snapshots carry publisher chrome (navigation,
// cookie banners, related-article rails) that would otherwise end up in
// the index.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*refdex.ExtractResult, error) {
	if rawHTML == "" {
		return nil, errors.New("empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &refdex.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
