package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/refdex/refdex/gemini"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration, by default at ~/.refdex/config.yml.
// Every field has a sensible default; the file only needs the values that
// differ from them.
type Config struct {
	// DBPath locates the SQLite database holding the manifest and index.
	DBPath string `yaml:"db_path"`

	// PapersDir is the directory mirrored attachments are stored under.
	PapersDir string `yaml:"papers_dir"`

	Zotero struct {
		// LibraryType is "users" or "groups".
		LibraryType string `yaml:"library_type"`
		LibraryID   string `yaml:"library_id"`
		APIKey      string `yaml:"api_key"`
	} `yaml:"zotero"`

	Embedding struct {
		Model      string `yaml:"model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embedding"`

	Qdrant struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"qdrant"`

	Ask struct {
		TopK         int    `yaml:"top_k"`
		AnswerLength string `yaml:"answer_length"`
	} `yaml:"ask"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.DBPath = filepath.Join(refdexDir(), "refdex.db")
	cfg.PapersDir = filepath.Join(refdexDir(), "papers")
	cfg.Zotero.LibraryType = "users"
	cfg.Embedding.Model = gemini.DefaultEmbeddingModel
	cfg.Embedding.Dimensions = gemini.DefaultDimensions
	cfg.Qdrant.Host = "localhost"
	cfg.Qdrant.Port = 6334
	cfg.Ask.TopK = gemini.DefaultTopK
	cfg.Ask.AnswerLength = gemini.DefaultAnswerLength
	return cfg
}

// LoadConfig reads the config file at path. A missing file is not an
// error; defaults plus environment overrides still make a usable config.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// applyEnv overlays environment variables on the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("REFDEX_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("REFDEX_PAPERS_DIR"); v != "" {
		cfg.PapersDir = v
	}
	if v := os.Getenv("ZOTERO_LIBRARY_TYPE"); v != "" {
		cfg.Zotero.LibraryType = v
	}
	if v := os.Getenv("ZOTERO_LIBRARY_ID"); v != "" {
		cfg.Zotero.LibraryID = v
	}
	if v := os.Getenv("ZOTERO_API_KEY"); v != "" {
		cfg.Zotero.APIKey = v
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		cfg.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Qdrant.Port = port
		}
	}
}

// applyDefaults restores defaults for fields an explicit empty value in
// the file would otherwise clear.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.DBPath == "" {
		cfg.DBPath = defaults.DBPath
	}
	if cfg.PapersDir == "" {
		cfg.PapersDir = defaults.PapersDir
	}
	if cfg.Zotero.LibraryType == "" {
		cfg.Zotero.LibraryType = defaults.Zotero.LibraryType
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}
	if cfg.Embedding.Dimensions <= 0 {
		cfg.Embedding.Dimensions = defaults.Embedding.Dimensions
	}
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = defaults.Qdrant.Host
	}
	if cfg.Qdrant.Port <= 0 {
		cfg.Qdrant.Port = defaults.Qdrant.Port
	}
	if cfg.Ask.TopK <= 0 {
		cfg.Ask.TopK = defaults.Ask.TopK
	}
	if cfg.Ask.AnswerLength == "" {
		cfg.Ask.AnswerLength = defaults.Ask.AnswerLength
	}
}

// refdexDir is where refdex keeps its database, papers, and lock file by
// default.
func refdexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".refdex"
	}
	return filepath.Join(home, ".refdex")
}

// defaultConfigPath resolves the config file location, honoring the
// REFDEX_CONFIG environment variable.
func defaultConfigPath() string {
	if path := os.Getenv("REFDEX_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(refdexDir(), "config.yml")
}
