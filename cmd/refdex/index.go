package main

import (
	"fmt"

	"github.com/refdex/refdex"
	"github.com/refdex/refdex/index"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	release, err := deps.Locker.Acquire(lockTimeout)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}
	defer release()

	modelID := deps.Indexer.Embedder.ModelID()

	plan, err := deps.Indexer.Reconcile(deps.Ctx, modelID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	for _, skipped := range plan.Skipped {
		fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", skipped.ItemID, skipped.Reason)
	}
	for _, failed := range plan.Failed {
		fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", failed.ItemID, failed.Err)
	}

	if plan.Empty() {
		fmt.Fprintf(deps.Stdout, "Index is current for %s (%d chunks)\n", modelID, plan.Valid)
		return nil
	}

	if c.DryRun {
		fmt.Fprintf(deps.Stdout, "Would embed %d chunks for %s\n", len(plan.Chunks), modelID)
		for _, chunk := range plan.Chunks {
			fmt.Fprintf(deps.Stdout, "  %-7s %s/%s\n", chunk.Reason, chunk.ItemID, chunk.ChunkID)
		}
		return nil
	}

	if plan.Tokens > 0 {
		fmt.Fprintf(deps.Stdout, "Embedding %d chunks for %s (%s)\n",
			len(plan.Chunks), modelID, index.FormatTokens(plan.Tokens))
	} else {
		fmt.Fprintf(deps.Stdout, "Embedding %d chunks for %s\n", len(plan.Chunks), modelID)
	}

	report, err := deps.Indexer.Execute(deps.Ctx, plan)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "  %d embedded, %d already current\n", report.Embedded, plan.Valid)
	if report.Stale > 0 {
		fmt.Fprintf(deps.Stdout, "  %d superseded entries removed\n", report.Stale)
	}
	for _, failure := range report.Failed {
		fmt.Fprintf(deps.Stderr, "  failed %s/%s: %v\n", failure.ItemID, failure.ChunkID, failure.Err)
	}
	if len(report.Failed) > 0 {
		fmt.Fprintf(deps.Stdout, "  %d chunks failed; run 'refdex index' again to retry\n", len(report.Failed))
	}

	return nil
}
