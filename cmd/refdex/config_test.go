package main_test

import (
	"os"
	"path/filepath"
	"testing"

	main "github.com/refdex/refdex/cmd/refdex"
	"github.com/refdex/refdex/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Config tests stay sequential; they mutate the environment with
// t.Setenv, which is incompatible with t.Parallel.

// clearConfigEnv blanks every environment variable LoadConfig reads so a
// developer's shell cannot leak into the assertions.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REFDEX_DB", "REFDEX_PAPERS_DIR",
		"ZOTERO_LIBRARY_TYPE", "ZOTERO_LIBRARY_ID", "ZOTERO_API_KEY",
		"QDRANT_HOST", "QDRANT_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("returns defaults when the file does not exist", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := main.LoadConfig(filepath.Join(t.TempDir(), "config.yml"))
		require.NoError(t, err)

		assert.Equal(t, "users", cfg.Zotero.LibraryType)
		assert.Equal(t, gemini.DefaultEmbeddingModel, cfg.Embedding.Model)
		assert.Equal(t, gemini.DefaultDimensions, cfg.Embedding.Dimensions)
		assert.Equal(t, "localhost", cfg.Qdrant.Host)
		assert.Equal(t, 6334, cfg.Qdrant.Port)
		assert.Equal(t, gemini.DefaultTopK, cfg.Ask.TopK)
		assert.Equal(t, gemini.DefaultAnswerLength, cfg.Ask.AnswerLength)
		assert.NotEmpty(t, cfg.DBPath)
		assert.NotEmpty(t, cfg.PapersDir)
	})

	t.Run("reads values from the file", func(t *testing.T) {
		clearConfigEnv(t)

		path := filepath.Join(t.TempDir(), "config.yml")
		content := `db_path: /data/refdex/refdex.db
zotero:
  library_type: groups
  library_id: "12345"
embedding:
  dimensions: 768
ask:
  top_k: 4
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := main.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "/data/refdex/refdex.db", cfg.DBPath)
		assert.Equal(t, "groups", cfg.Zotero.LibraryType)
		assert.Equal(t, "12345", cfg.Zotero.LibraryID)
		assert.Equal(t, 768, cfg.Embedding.Dimensions)
		assert.Equal(t, 4, cfg.Ask.TopK)

		// Fields the file omits keep their defaults.
		assert.Equal(t, gemini.DefaultEmbeddingModel, cfg.Embedding.Model)
		assert.Equal(t, "localhost", cfg.Qdrant.Host)
		assert.Equal(t, gemini.DefaultAnswerLength, cfg.Ask.AnswerLength)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		clearConfigEnv(t)

		path := filepath.Join(t.TempDir(), "config.yml")
		content := `db_path: /data/refdex/refdex.db
zotero:
  library_id: "12345"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		t.Setenv("REFDEX_DB", "/elsewhere/refdex.db")
		t.Setenv("ZOTERO_LIBRARY_ID", "99999")
		t.Setenv("ZOTERO_API_KEY", "secret")
		t.Setenv("QDRANT_PORT", "7000")

		cfg, err := main.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "/elsewhere/refdex.db", cfg.DBPath)
		assert.Equal(t, "99999", cfg.Zotero.LibraryID)
		assert.Equal(t, "secret", cfg.Zotero.APIKey)
		assert.Equal(t, 7000, cfg.Qdrant.Port)
	})

	t.Run("ignores a non-numeric port override", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("QDRANT_PORT", "banana")

		cfg, err := main.LoadConfig(filepath.Join(t.TempDir(), "config.yml"))
		require.NoError(t, err)

		assert.Equal(t, 6334, cfg.Qdrant.Port)
	})

	t.Run("restores defaults for explicitly empty values", func(t *testing.T) {
		clearConfigEnv(t)

		path := filepath.Join(t.TempDir(), "config.yml")
		content := `db_path: ""
embedding:
  model: ""
  dimensions: 0
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := main.LoadConfig(path)
		require.NoError(t, err)

		assert.NotEmpty(t, cfg.DBPath)
		assert.Equal(t, gemini.DefaultEmbeddingModel, cfg.Embedding.Model)
		assert.Equal(t, gemini.DefaultDimensions, cfg.Embedding.Dimensions)
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("zotero: [unclosed\n"), 0o644))

		_, err := main.LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML")
	})
}
