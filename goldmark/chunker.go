// Package goldmark provides a markdown-aware implementation of
// refdex.Chunker.
package goldmark

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/refdex/refdex"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	// DefaultMaxChunkRunes caps chunk size so chunks stay well inside
	// embedding model input limits.
	DefaultMaxChunkRunes = 1800

	// DefaultMinChunkRunes is the threshold below which a piece is
	// merged into its neighbor instead of standing alone.
	DefaultMinChunkRunes = 80
)

// Ensure Chunker implements refdex.Chunker at compile time.
var _ refdex.Chunker = (*Chunker)(nil)

// Chunker splits markdown into chunks along heading boundaries, keeping
// each chunk under a size cap. Chunking is deterministic: identical input
// produces identical chunks with identical ordinal IDs.
type Chunker struct {
	maxRunes int
	minRunes int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxChunkRunes caps the chunk size in runes.
func WithMaxChunkRunes(n int) Option {
	return func(c *Chunker) {
		c.maxRunes = n
	}
}

// WithMinChunkRunes sets the size below which a piece is merged into the
// preceding piece of the same section.
func WithMinChunkRunes(n int) Option {
	return func(c *Chunker) {
		c.minRunes = n
	}
}

// NewChunker creates a new Chunker.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		maxRunes: DefaultMaxChunkRunes,
		minRunes: DefaultMinChunkRunes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// section is a run of markdown delimited by headings. Text includes the
// section's own heading line.
type section struct {
	path string
	text string
}

// Chunk splits markdown content into chunks. The document is cut at
// headings first; oversized sections are split again at paragraph breaks,
// and undersized pieces are merged back into their section neighbor.
func (c *Chunker) Chunk(content string) ([]refdex.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	sections := splitSections([]byte(content))

	var chunks []refdex.Chunk
	for _, sec := range sections {
		for _, piece := range c.splitSection(sec.text) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			chunks = append(chunks, refdex.Chunk{
				ID:          fmt.Sprintf("%04d", len(chunks)),
				Text:        piece,
				HeadingPath: sec.path,
			})
		}
	}

	return chunks, nil
}

// splitSections parses the markdown and cuts the raw source at the line
// start of every top-level heading. Each section carries the heading
// hierarchy in effect at its start.
func splitSections(source []byte) []section {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))

	type boundary struct {
		start int
		level int
		title string
	}

	var boundaries []boundary
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		heading, ok := child.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			continue
		}
		// Walk back from the heading text to the start of its line so
		// the slice includes the heading marker.
		start := heading.Lines().At(0).Start
		for start > 0 && source[start-1] != '\n' {
			start--
		}
		boundaries = append(boundaries, boundary{
			start: start,
			level: heading.Level,
			title: nodeText(heading, source),
		})
	}

	// stack holds the open heading titles by level.
	type stackEntry struct {
		level int
		title string
	}
	var stack []stackEntry
	path := func() string {
		titles := make([]string, len(stack))
		for i, e := range stack {
			titles[i] = e.title
		}
		return strings.Join(titles, " > ")
	}

	var sections []section
	appendSection := func(p string, from, to int) {
		if from >= to {
			return
		}
		sections = append(sections, section{path: p, text: string(source[from:to])})
	}

	prev := 0
	for _, b := range boundaries {
		appendSection(path(), prev, b.start)

		for len(stack) > 0 && stack[len(stack)-1].level >= b.level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, stackEntry{level: b.level, title: b.title})
		prev = b.start
	}
	appendSection(path(), prev, len(source))

	return sections
}

// nodeText collects the plain text content of a node.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// splitSection cuts section text into pieces no larger than maxRunes,
// preferring paragraph breaks, then merges pieces smaller than minRunes
// into their predecessor.
func (c *Chunker) splitSection(sectionText string) []string {
	if utf8.RuneCountInString(sectionText) <= c.maxRunes {
		return []string{sectionText}
	}

	var pieces []string
	var current strings.Builder
	currentRunes := 0

	flush := func() {
		if currentRunes > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			currentRunes = 0
		}
	}

	for _, para := range strings.Split(sectionText, "\n\n") {
		paraRunes := utf8.RuneCountInString(para)

		if currentRunes > 0 && currentRunes+2+paraRunes > c.maxRunes {
			flush()
		}

		// A single paragraph larger than the cap is cut mid-text.
		if paraRunes > c.maxRunes {
			flush()
			pieces = append(pieces, splitRunes(para, c.maxRunes)...)
			continue
		}

		if currentRunes > 0 {
			current.WriteString("\n\n")
			currentRunes += 2
		}
		current.WriteString(para)
		currentRunes += paraRunes
	}
	flush()

	// Merge fragments into the preceding piece so no stub chunks are
	// emitted. A tiny leading piece (often a bare heading line) joins
	// the piece after it instead.
	var merged []string
	for _, p := range pieces {
		if len(merged) > 0 && utf8.RuneCountInString(strings.TrimSpace(p)) < c.minRunes {
			merged[len(merged)-1] += "\n\n" + p
			continue
		}
		merged = append(merged, p)
	}
	if len(merged) >= 2 && utf8.RuneCountInString(strings.TrimSpace(merged[0])) < c.minRunes {
		merged[1] = merged[0] + "\n\n" + merged[1]
		merged = merged[1:]
	}

	return merged
}

// splitRunes hard-splits s into pieces of at most max runes.
func splitRunes(s string, max int) []string {
	var pieces []string
	runes := []rune(s)
	for len(runes) > max {
		pieces = append(pieces, string(runes[:max]))
		runes = runes[max:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
