package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/refdex/refdex"
	"github.com/refdex/refdex/flock"
	"github.com/refdex/refdex/fs"
	"github.com/refdex/refdex/gemini"
	"github.com/refdex/refdex/goldmark"
	"github.com/refdex/refdex/htmltomarkdown"
	"github.com/refdex/refdex/index"
	"github.com/refdex/refdex/qdrant"
	refslog "github.com/refdex/refdex/slog"
	"github.com/refdex/refdex/sqlite"
	refsync "github.com/refdex/refdex/sync"
	"github.com/refdex/refdex/trafilatura"
	"github.com/refdex/refdex/zotero"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config file path. Set before calling Run().
	ConfigPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	ManifestService refdex.ManifestService
	IndexService    refdex.IndexService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPath: defaultConfigPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// lockTimeout bounds how long a command waits for the run lock held by
// another refdex invocation.
const lockTimeout = 10 * time.Second

// tokenizerModel is used for token counting when sizing an index plan.
const tokenizerModel = "gemini-2.5-flash"

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// A .env in the working directory supplies API keys during development.
	_ = godotenv.Load()

	cfg, err := LoadConfig(m.ConfigPath)
	if err != nil {
		return err
	}

	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Config: cfg,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("refdex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'refdex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Open database
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set REFDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.ManifestService = sqlite.NewManifestService(m.DB)
	m.IndexService = sqlite.NewIndexService(m.DB)
	deps.DB = m.DB
	deps.Manifest = m.ManifestService
	deps.Index = m.IndexService
	deps.Attachments = fs.NewAttachmentStore(cfg.PapersDir)
	deps.Locker = flock.NewLocker(filepath.Join(filepath.Dir(cfg.DBPath), "refdex.lock"))

	// Wire command-specific dependencies based on command
	if cmd == "sync" {
		if cfg.Zotero.APIKey == "" {
			fmt.Fprintln(stderr, "Zotero API key not set. Set ZOTERO_API_KEY or zotero.api_key in the config file. Create a key at https://www.zotero.org/settings/keys")
			return fmt.Errorf("zotero API key not configured")
		}
		catalog, err := zotero.NewClient(cfg.Zotero.LibraryType, cfg.Zotero.LibraryID, cfg.Zotero.APIKey)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set zotero.library_id and zotero.library_type in the config file")
			return err
		}

		var source refdex.CatalogSource = catalog
		if cli.Sync.Verbose {
			source = refslog.NewLoggingCatalogSource(source, slog.New(slog.NewTextHandler(stderr, nil)))
		}

		deps.Syncer = &refsync.Syncer{
			Catalog:     source,
			Manifest:    deps.Manifest,
			Attachments: deps.Attachments,
			Index:       deps.Index,
			Concurrency: cli.Sync.Concurrency,
			KeepMissing: cli.Sync.KeepMissing,
		}
		// Pruned items should take their vector points with them; without
		// the backend the points are orphaned and filtered at ask time.
		if vectors, err := qdrant.NewVectorStore(cfg.Qdrant.Host, cfg.Qdrant.Port); err == nil {
			deps.Syncer.Vectors = vectors
		}
	}

	if cmd == "index" || cmd == "ask" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		var embedder refdex.Embedder = gemini.NewEmbedder(client,
			gemini.WithEmbeddingModel(cfg.Embedding.Model),
			gemini.WithDimensions(cfg.Embedding.Dimensions),
		)

		store, err := qdrant.NewVectorStore(cfg.Qdrant.Host, cfg.Qdrant.Port)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set qdrant.host and qdrant.port in the config file")
			return err
		}
		var vectors refdex.VectorStore = store

		if cmd == "index" && cli.Index.Verbose {
			logger := slog.New(slog.NewTextHandler(stderr, nil))
			embedder = refslog.NewLoggingEmbedder(embedder, logger)
			vectors = refslog.NewLoggingVectorStore(vectors, logger)
		}

		deps.Indexer = &index.Indexer{
			Manifest:    deps.Manifest,
			Index:       deps.Index,
			Attachments: deps.Attachments,
			Extractor:   trafilatura.NewExtractor(),
			Converter:   htmltomarkdown.NewConverter(),
			Chunker:     goldmark.NewChunker(),
			Embedder:    embedder,
			Vectors:     vectors,
			Concurrency: cli.Index.Concurrency,
		}

		if cmd == "index" {
			// Plan sizing only; indexing works without it.
			if counter, err := gemini.NewTokenCounter(tokenizerModel); err == nil {
				deps.Indexer.TokenCounter = counter
			}
		}

		if cmd == "ask" {
			deps.Asker = gemini.NewAsker(client, embedder, vectors, deps.Manifest, deps.Index,
				gemini.WithTopK(cfg.Ask.TopK),
				gemini.WithAnswerLength(cfg.Ask.AnswerLength),
			)
		}
	}

	if cmd == "prune" {
		vectors, err := qdrant.NewVectorStore(cfg.Qdrant.Host, cfg.Qdrant.Port)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set qdrant.host and qdrant.port in the config file")
			return err
		}
		deps.Vectors = vectors
	}

	return kongCtx.Run(deps)
}
