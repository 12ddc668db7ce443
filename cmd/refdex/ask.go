package main

import (
	"fmt"

	"github.com/refdex/refdex"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	// Retrieval filters out entries that are stale for the active model,
	// so a lagging index silently narrows answers. Warn instead.
	if deps.Indexer != nil {
		plan, err := deps.Indexer.Reconcile(deps.Ctx, deps.Indexer.Embedder.ModelID())
		if err == nil && !plan.Empty() {
			fmt.Fprintf(deps.Stderr, "note: %d chunks are not indexed yet; run 'refdex index' to include them\n",
				len(plan.Chunks))
		}
	}

	answer, err := deps.Asker.Ask(deps.Ctx, c.Question)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer.Text)

	if c.Sources && len(answer.Sources) > 0 {
		fmt.Fprintf(deps.Stdout, "\nSources:\n%s\n", refdex.FormatSources(answer.Sources))
	}

	return nil
}
