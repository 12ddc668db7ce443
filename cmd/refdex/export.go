package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/refdex/refdex"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	entries, err := deps.Manifest.FindEntries(deps.Ctx, refdex.ManifestEntryFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", refdex.ErrorMessage(err))
		return err
	}

	out := deps.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: cannot create %s: %v\n", c.Output, err)
			return err
		}
		defer f.Close()
		out = f
	}

	records := [][]string{{"file_location", "doi", "title", "item_id", "content_hash", "remote_version"}}
	for _, entry := range entries {
		records = append(records, []string{
			entry.Path,
			entry.Metadata.DOI,
			entry.Metadata.Title,
			entry.ItemID,
			entry.ContentHash,
			strconv.Itoa(entry.RemoteVersion),
		})
	}

	w := csv.NewWriter(out)
	if err := w.WriteAll(records); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	if c.Output != "" {
		fmt.Fprintf(deps.Stdout, "Exported %d entries to %s\n", len(entries), c.Output)
	}

	return nil
}
