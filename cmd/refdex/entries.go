package main

import (
	"fmt"

	"github.com/refdex/refdex"
)

// Run executes the entries command.
func (c *EntriesCmd) Run(deps *Dependencies) error {
	filter := refdex.ManifestEntryFilter{}
	if c.MissingDOI {
		missing := true
		filter.MissingDOI = &missing
	}

	entries, err := deps.Manifest.FindEntries(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "No entries found. Use 'refdex sync' to mirror the library.")
		return nil
	}

	for _, entry := range entries {
		title := entry.Metadata.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", entry.ItemID, title, entry.Path)
	}

	return nil
}
