package main_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/refdex/refdex"
	main "github.com/refdex/refdex/cmd/refdex"
	"github.com/refdex/refdex/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end tests drive Main.Run against a real SQLite database in a
// temp directory. They stay sequential because clearConfigEnv uses
// t.Setenv to keep the developer's shell out of the config.

// writeTestConfig writes a config file pointing every path at dir and
// returns its location.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yml")
	content := fmt.Sprintf("db_path: %s\npapers_dir: %s\n",
		filepath.Join(dir, "refdex.db"), filepath.Join(dir, "papers"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// seedManifest inserts one entry directly through the SQLite service.
func seedManifest(t *testing.T, dir string, entry *refdex.ManifestEntry) {
	t.Helper()

	db := sqlite.NewDB(filepath.Join(dir, "refdex.db"))
	require.NoError(t, db.Open())
	defer db.Close()

	manifest := sqlite.NewManifestService(db)
	require.NoError(t, manifest.UpsertEntry(context.Background(), entry))
}

func TestMain_Run_EntriesOnEmptyLibrary(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = writeTestConfig(t, dir)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"entries"}, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "No entries found")
}

func TestMain_Run_EntriesListsSeededEntry(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	seedManifest(t, dir, &refdex.ManifestEntry{
		ItemID:      "ABCD1234",
		Path:        "ABCD1234/paper.pdf",
		ContentHash: "0a1b2c3d4e5f6071",
		Metadata:    refdex.Metadata{Title: "Attention Is All You Need"},
	})

	m := main.NewMain()
	m.ConfigPath = writeTestConfig(t, dir)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"entries"}, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "ABCD1234")
	assert.Contains(t, output, "Attention Is All You Need")
}

func TestMain_Run_ExportWritesCSVFile(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	seedManifest(t, dir, &refdex.ManifestEntry{
		ItemID:      "ABCD1234",
		Path:        "ABCD1234/paper.pdf",
		ContentHash: "0a1b2c3d4e5f6071",
		Metadata: refdex.Metadata{
			Title: "Attention Is All You Need",
			DOI:   "10.48550/arXiv.1706.03762",
		},
	})

	m := main.NewMain()
	m.ConfigPath = writeTestConfig(t, dir)

	outPath := filepath.Join(dir, "manifest.csv")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"export", "-o", outPath}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Exported 1 entries")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file_location,doi,title")
	assert.Contains(t, string(data), "10.48550/arXiv.1706.03762")
}

func TestMain_Run_PruneRequiresForce(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	m := main.NewMain()
	m.ConfigPath = writeTestConfig(t, dir)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"prune", "model-a@4"}, stdout, stderr)
	require.Error(t, err)
	assert.Equal(t, refdex.EINVALID, refdex.ErrorCode(err))
	assert.Contains(t, stderr.String(), "use --force to confirm deletion")
}
