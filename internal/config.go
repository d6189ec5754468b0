package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFileName is searched for in the working directory, then in the home directory
const ConfigFileName = ".chat-convert.yaml"

// EnvPrefix prefixes environment overrides, e.g. CHAT_CONVERT_CHUNKING_TARGET_SIZE
const EnvPrefix = "CHAT_CONVERT"

// Config holds every tunable of the converter
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Markdown MarkdownConfig `mapstructure:"markdown"`
	HTML     HTMLConfig     `mapstructure:"html"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Log      LogConfig      `mapstructure:"log"`

	// Source is the config file that was loaded, empty when defaults only
	Source string `mapstructure:"-"`
}

type OutputConfig struct {
	Format     string `mapstructure:"format"`
	Dir        string `mapstructure:"dir"`
	PerMessage bool   `mapstructure:"per_message"`
	Nested     bool   `mapstructure:"nested"`
}

type MarkdownConfig struct {
	FrontMatter     bool `mapstructure:"front_matter"`
	TOC             bool `mapstructure:"toc"`
	GroupByTime     bool `mapstructure:"group_by_time"`
	GapSeconds      int  `mapstructure:"gap_seconds"`
	IncludeThinking bool `mapstructure:"include_thinking"`
}

type HTMLConfig struct {
	IncludeMetadata bool `mapstructure:"include_metadata"`
	IncludeThinking bool `mapstructure:"include_thinking"`
}

type ChunkingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	TargetSize     int     `mapstructure:"target_size"`
	ThresholdRatio float64 `mapstructure:"threshold_ratio"`
	Strategy       string  `mapstructure:"strategy"`
}

type BatchConfig struct {
	Workers int  `mapstructure:"workers"`
	Dedupe  bool `mapstructure:"dedupe"`
}

type SchemaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty uses the embedded schema
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Format: "md"},
		Markdown: MarkdownConfig{
			FrontMatter:     true,
			TOC:             true,
			GroupByTime:     true,
			GapSeconds:      300,
			IncludeThinking: true,
		},
		HTML: HTMLConfig{IncludeMetadata: true, IncludeThinking: true},
		Chunking: ChunkingConfig{
			TargetSize:     DefaultChunkTargetSize,
			ThresholdRatio: DefaultThresholdRatio,
			Strategy:       StrategyMessageBased,
		},
		Batch:  BatchConfig{Workers: runtime.NumCPU()},
		Schema: SchemaConfig{Enabled: true},
		Cache:  CacheConfig{Dir: defaultCacheDir()},
		Log:    LogConfig{Level: "info"},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chat-convert")
	}
	return filepath.Join(dir, "chat-convert")
}

// LoadConfig reads configuration from path, or from the first config file
// found in the working and home directories when path is empty. A missing
// search-path file is not an error; a missing explicit path is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		cfg.Source = path
		LogDebug("loaded config from %s", path)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ConfigFileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// setDefaults registers every key so that environment overrides are seen by Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.per_message", cfg.Output.PerMessage)
	v.SetDefault("output.nested", cfg.Output.Nested)
	v.SetDefault("markdown.front_matter", cfg.Markdown.FrontMatter)
	v.SetDefault("markdown.toc", cfg.Markdown.TOC)
	v.SetDefault("markdown.group_by_time", cfg.Markdown.GroupByTime)
	v.SetDefault("markdown.gap_seconds", cfg.Markdown.GapSeconds)
	v.SetDefault("markdown.include_thinking", cfg.Markdown.IncludeThinking)
	v.SetDefault("html.include_metadata", cfg.HTML.IncludeMetadata)
	v.SetDefault("html.include_thinking", cfg.HTML.IncludeThinking)
	v.SetDefault("chunking.enabled", cfg.Chunking.Enabled)
	v.SetDefault("chunking.target_size", cfg.Chunking.TargetSize)
	v.SetDefault("chunking.threshold_ratio", cfg.Chunking.ThresholdRatio)
	v.SetDefault("chunking.strategy", cfg.Chunking.Strategy)
	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("batch.dedupe", cfg.Batch.Dedupe)
	v.SetDefault("schema.enabled", cfg.Schema.Enabled)
	v.SetDefault("schema.path", cfg.Schema.Path)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("archive.path", cfg.Archive.Path)
	v.SetDefault("log.level", cfg.Log.Level)
}

// Validate checks values that would otherwise fail deep inside a conversion
func (c *Config) Validate() error {
	var errs []error
	if ParseOutputFormat(c.Output.Format) == "" {
		errs = append(errs, fmt.Errorf("output.format: unsupported format %q", c.Output.Format))
	}
	if c.Markdown.GapSeconds < 0 {
		errs = append(errs, fmt.Errorf("markdown.gap_seconds: must not be negative"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers: must not be negative"))
	}
	if c.Chunking.Enabled {
		if _, err := NewChunker(c.Chunking.TargetSize, c.Chunking.ThresholdRatio, c.Chunking.Strategy); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseOutputFormat maps a CLI format name to its canonical renderer name,
// or "" when unsupported
func ParseOutputFormat(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return "md"
	case "html", "htm":
		return "html"
	case "json":
		return "json"
	case "yml", "yaml":
		return "yml"
	case "jsonl":
		return "jsonl"
	}
	return ""
}
