package main

import (
	"fmt"

	"github.com/refdex/refdex"
)

// Run executes the prune command.
func (c *PruneCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return refdex.Errorf(refdex.EINVALID, "use --force to confirm deletion")
	}

	release, err := deps.Locker.Acquire(lockTimeout)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}
	defer release()

	// Entries first. A crash between the two leaves an orphaned collection
	// that a rerun drops; the reverse order would leave entries claiming
	// vectors that no longer exist.
	removed, err := deps.Index.DeleteIndexEntries(deps.Ctx, refdex.IndexEntryFilter{ModelID: &c.Model})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	if err := deps.Vectors.DropModel(deps.Ctx, c.Model); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed %d index entries for %q\n", removed, c.Model)
	return nil
}
