package main

import (
	"context"
	"io"

	"github.com/refdex/refdex"
	"github.com/refdex/refdex/index"
	"github.com/refdex/refdex/sqlite"
	refsync "github.com/refdex/refdex/sync"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *Config

	DB          *sqlite.DB
	Manifest    refdex.ManifestService
	Index       refdex.IndexService
	Attachments refdex.AttachmentStore
	Locker      refdex.Locker

	// Command-specific services, wired only for the command that needs them.
	Syncer  *refsync.Syncer
	Indexer *index.Indexer
	Vectors refdex.VectorStore
	Asker   refdex.Asker
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Sync    SyncCmd    `cmd:"" help:"Mirror the remote library into the local store"`
	Index   IndexCmd   `cmd:"" help:"Embed mirrored documents for the configured model"`
	Ask     AskCmd     `cmd:"" help:"Ask a question over the indexed library"`
	Entries EntriesCmd `cmd:"" help:"List manifest entries"`
	Export  ExportCmd  `cmd:"" help:"Write the manifest as CSV"`
	Prune   PruneCmd   `cmd:"" help:"Delete the index for a retired embedding model"`
}

// SyncCmd is the "sync" subcommand.
type SyncCmd struct {
	KeepMissing bool `help:"Keep local items that left the remote catalog"`
	Concurrency int  `short:"c" default:"4" help:"Concurrent download limit"`
	Verbose     bool `short:"v" help:"Log catalog calls"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct {
	DryRun      bool `help:"Show what would be embedded without calling the embedder"`
	Concurrency int  `short:"c" default:"4" help:"Concurrent embedding call limit"`
	Verbose     bool `short:"v" help:"Log embedder and vector store calls"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask about the library"`
	Sources  bool   `short:"s" help:"List the passages behind the answer"`
}

// EntriesCmd is the "entries" subcommand.
type EntriesCmd struct {
	MissingDOI bool `name:"missing-doi" help:"Only entries without a DOI"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Output string `short:"o" help:"Write CSV to a file instead of stdout"`
}

// PruneCmd is the "prune" subcommand.
type PruneCmd struct {
	Model string `arg:"" help:"Embedding model identity to retire, e.g. gemini-embedding-001@1536"`
	Force bool   `help:"Confirm deletion"`
}
