package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/refdex/refdex"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// DefaultTopK is the number of passages sent to the model.
const DefaultTopK = 8

// DefaultAnswerLength is the answer length hint included in the system
// instruction.
const DefaultAnswerLength = "about 200 words"

// overfetchFactor widens the vector search so that dropping stale hits
// still leaves enough candidates.
const overfetchFactor = 3

// Ensure Asker implements refdex.Asker at compile time.
var _ refdex.Asker = (*Asker)(nil)

// Asker implements refdex.Asker using Google Gemini. It embeds the question,
// retrieves the nearest passages from the vector store, and synthesizes an
// answer grounded on them.
type Asker struct {
	client       *genai.Client
	embedder     refdex.Embedder
	vectors      refdex.VectorStore
	manifest     refdex.ManifestService
	index        refdex.IndexService
	topK         int
	answerLength string
}

// AskerOption configures an Asker.
type AskerOption func(*Asker)

// WithTopK sets the number of passages sent to the model.
func WithTopK(n int) AskerOption {
	return func(a *Asker) {
		a.topK = n
	}
}

// WithAnswerLength sets the answer length hint, e.g. "about 50 words".
func WithAnswerLength(length string) AskerOption {
	return func(a *Asker) {
		a.answerLength = length
	}
}

// NewAsker creates a new Asker.
func NewAsker(client *genai.Client, embedder refdex.Embedder, vectors refdex.VectorStore, manifest refdex.ManifestService, index refdex.IndexService, opts ...AskerOption) *Asker {
	a := &Asker{
		client:       client,
		embedder:     embedder,
		vectors:      vectors,
		manifest:     manifest,
		index:        index,
		topK:         DefaultTopK,
		answerLength: DefaultAnswerLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers a natural language question using the indexed library.
func (a *Asker) Ask(ctx context.Context, question string) (*refdex.Answer, error) {
	if question == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "question required")
	}

	modelID := a.embedder.ModelID()

	queryVector, err := a.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	results, err := a.vectors.SearchPoints(ctx, modelID, queryVector, a.topK*overfetchFactor)
	if err != nil {
		return nil, err
	}

	manifestEntries, err := a.manifest.FindEntries(ctx, refdex.ManifestEntryFilter{})
	if err != nil {
		return nil, err
	}
	indexEntries, err := a.index.FindIndexEntries(ctx, refdex.IndexEntryFilter{ModelID: &modelID})
	if err != nil {
		return nil, err
	}

	valid := FilterCurrent(results, modelID, manifestEntries, indexEntries)
	if len(valid) == 0 {
		return nil, refdex.Errorf(refdex.ENOTFOUND, "no indexed passages for model %q", modelID)
	}
	if len(valid) > a.topK {
		valid = valid[:a.topK]
	}

	prompt := BuildUserPrompt(valid, question)
	config := BuildConfig(a.answerLength)

	result, err := a.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, refdex.Errorf(refdex.EINTERNAL, "gemini returned nil result")
	}

	return &refdex.Answer{Text: result.Text(), Sources: valid}, nil
}

// FilterCurrent drops search hits whose index records no longer match the
// manifest. A hit survives only if an index entry exists for its chunk under
// modelID and that entry was computed from the content hash the manifest
// currently records for the item. Stale vectors linger between a sync and the
// next index run; they must never ground an answer.
func FilterCurrent(results []refdex.SearchResult, modelID string, manifestEntries []*refdex.ManifestEntry, indexEntries []*refdex.IndexEntry) []refdex.SearchResult {
	currentHash := make(map[string]string, len(manifestEntries))
	for _, entry := range manifestEntries {
		currentHash[entry.ItemID] = entry.ContentHash
	}

	byChunk := make(map[string]*refdex.IndexEntry, len(indexEntries))
	for _, entry := range indexEntries {
		byChunk[entry.ItemID+"/"+entry.ChunkID] = entry
	}

	var valid []refdex.SearchResult
	for _, result := range results {
		entry, ok := byChunk[result.Passage.ItemID+"/"+result.Passage.ChunkID]
		if !ok {
			continue
		}
		hash, ok := currentHash[result.Passage.ItemID]
		if !ok || !entry.ValidFor(hash, modelID) {
			continue
		}
		valid = append(valid, result)
	}
	return valid
}

// BuildConfig returns the GenerateContentConfig for answer synthesis.
func BuildConfig(answerLength string) *genai.GenerateContentConfig {
	temp := float32(0.4)
	instruction := "You are a research assistant answering questions from a personal reference library. " +
		"Answer based only on the passages provided, and cite passages by index in square brackets, e.g. [1]. " +
		"If the passages do not contain the answer, say so."
	if answerLength != "" {
		instruction += fmt.Sprintf(" Aim for %s.", answerLength)
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: instruction,
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing retrieved passages and
// the question.
func BuildUserPrompt(results []refdex.SearchResult, question string) string {
	var sb strings.Builder
	sb.WriteString("<passages>\n")
	for i, result := range results {
		title := result.Passage.Title
		if title == "" {
			title = result.Passage.ItemID
		}
		sb.WriteString("<passage>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", title)
		if result.Passage.HeadingPath != "" {
			fmt.Fprintf(&sb, "<section>%s</section>\n", result.Passage.HeadingPath)
		}
		fmt.Fprintf(&sb, "<content>%s</content>\n", result.Passage.Text)
		sb.WriteString("</passage>\n")
	}
	sb.WriteString("</passages>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
