package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/chat-convert/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the home and working directories at empty temp dirs
func isolateConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	// equivalent of t.Chdir (Go 1.24+) for older toolchains
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, "md", cfg.Output.Format)
	assert.True(t, cfg.Markdown.TOC)
	assert.Equal(t, 300, cfg.Markdown.GapSeconds)
	assert.Equal(t, DefaultChunkTargetSize, cfg.Chunking.TargetSize)
	assert.Equal(t, DefaultThresholdRatio, cfg.Chunking.ThresholdRatio)
	assert.True(t, cfg.Schema.Enabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.NotEmpty(t, cfg.Cache.Dir)
	assert.Positive(t, cfg.Batch.Workers)
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolateConfig(t)
	path := testutil.WriteFile(t, dir, "custom.yaml", `
output:
  format: html
  dir: out
markdown:
  toc: false
  gap_seconds: 60
chunking:
  enabled: true
  target_size: 2000
  threshold_ratio: 0.5
batch:
  workers: 3
  dedupe: true
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "html", cfg.Output.Format)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.False(t, cfg.Markdown.TOC)
	assert.True(t, cfg.Markdown.FrontMatter, "unset keys keep their defaults")
	assert.Equal(t, 60, cfg.Markdown.GapSeconds)
	assert.True(t, cfg.Chunking.Enabled)
	assert.Equal(t, 2000, cfg.Chunking.TargetSize)
	assert.Equal(t, 0.5, cfg.Chunking.ThresholdRatio)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.True(t, cfg.Batch.Dedupe)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_SearchPath(t *testing.T) {
	dir := isolateConfig(t)
	testutil.WriteFile(t, dir, ConfigFileName, "output:\n  format: json\n")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, ConfigFileName, filepath.Base(cfg.Source))
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("CHAT_CONVERT_CHUNKING_TARGET_SIZE", "5000")
	t.Setenv("CHAT_CONVERT_OUTPUT_FORMAT", "yaml")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Chunking.TargetSize)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := isolateConfig(t)

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
		var storageErr *StorageError
		assert.True(t, errors.As(err, &storageErr), "error = %v", err)
	})

	t.Run("unreadable yaml", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "bad.yaml", "output: [unclosed")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "invalid.yaml", "output:\n  format: pdf\nchunking:\n  enabled: true\n  target_size: 10\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output.format")
		var chunkErr *ChunkerConfigError
		assert.True(t, errors.As(err, &chunkErr), "joined error should keep the chunker error")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "chunking disabled ignores bad target", mutate: func(c *Config) { c.Chunking.TargetSize = 1 }},
		{name: "bad format", mutate: func(c *Config) { c.Output.Format = "docx" }, wantErr: true},
		{name: "negative gap", mutate: func(c *Config) { c.Markdown.GapSeconds = -1 }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Batch.Workers = -2 }, wantErr: true},
		{
			name: "bad chunk ratio",
			mutate: func(c *Config) {
				c.Chunking.Enabled = true
				c.Chunking.ThresholdRatio = 0
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := map[string]string{
		"md":       "md",
		"Markdown": "md",
		"html":     "html",
		"htm":      "html",
		"json":     "json",
		"yaml":     "yml",
		" yml ":    "yml",
		"jsonl":    "jsonl",
		"pdf":      "",
		"":         "",
	}
	for in, want := range tests {
		if got := ParseOutputFormat(in); got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
