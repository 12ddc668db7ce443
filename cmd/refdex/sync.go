package main

import (
	"fmt"

	"github.com/refdex/refdex"
	refsync "github.com/refdex/refdex/sync"
)

// Run executes the sync command.
func (c *SyncCmd) Run(deps *Dependencies) error {
	release, err := deps.Locker.Acquire(lockTimeout)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}
	defer release()

	progress := func(event refsync.ProgressEvent) {
		switch event.Type {
		case refsync.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Syncing %d items\n", event.Total)
		case refsync.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.ItemID, event.Error)
		}
	}

	report, err := deps.Syncer.Sync(deps.Ctx, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "  %d new, %d changed, %d unchanged (%s fetched)\n",
		report.New, report.Changed, report.Unchanged, refsync.FormatBytes(report.Bytes))
	if report.Skipped > 0 {
		fmt.Fprintf(deps.Stdout, "  %d items have no attachment\n", report.Skipped)
	}
	for _, item := range report.Items {
		if item.Outcome == refsync.OutcomeRemoved {
			fmt.Fprintf(deps.Stdout, "  removed %s (gone from the catalog)\n", item.ItemID)
		}
	}
	for _, conflict := range report.Conflicts {
		fmt.Fprintf(deps.Stdout, "  note %s %s: %q replaced %q\n",
			conflict.ItemID, conflict.Field, conflict.Remote, conflict.Local)
	}
	if report.Failed > 0 {
		fmt.Fprintf(deps.Stdout, "  %d items failed; run 'refdex sync' again to retry\n", report.Failed)
	}

	return nil
}
