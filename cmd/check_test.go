package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/internal/parser"
	"github.com/iksnae/chat-convert/testutil"
)

func TestCheckCommand_Defaults(t *testing.T) {
	stdout, _, err := execute(t, "check", "--details")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, stdout)
	}
	for _, want := range []string{
		"No config file found",
		"Schema loaded",
		"parser(s) in a consistent order",
		"Cache disabled",
		"No archive configured",
		"All checks passed!",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestCheckCommand_WithConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := testutil.WriteFile(t, dir, "config.yaml",
		"cache:\n  enabled: true\n  dir: "+filepath.Join(dir, "cache")+"\n"+
			"archive:\n  path: "+filepath.Join(dir, "archive.db")+"\n")

	stdout, _, err := execute(t, "--config", configFile, "check")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, stdout)
	}
	for _, want := range []string{"Config loaded from", "Cache ready (0 entries)", "Archive ready (0 archived messages)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunChecks(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(c *internal.Config)
		registry     *parser.Registry
		wantFailures int
		wantOutput   string
	}{
		{
			name:     "defaults",
			registry: parser.DefaultRegistry(),
		},
		{
			name:         "fallback shadows a specific parser",
			registry:     parser.NewRegistry(&parser.GenericJSONParser{}, &parser.NativeExportParser{}),
			wantFailures: 1,
			wantOutput:   "shadowed by fallback",
		},
		{
			name:         "duplicate parser",
			registry:     parser.NewRegistry(&parser.CanonicalParser{}, &parser.CanonicalParser{}),
			wantFailures: 1,
			wantOutput:   "registered twice",
		},
		{
			name:         "invalid chunking",
			mutate: func(c *internal.Config) {
				c.Chunking.Enabled = true
				c.Chunking.ThresholdRatio = 2
			},
			registry:     parser.DefaultRegistry(),
			wantFailures: 1,
			wantOutput:   "Invalid configuration",
		},
		{
			name: "unusable archive",
			mutate: func(c *internal.Config) {
				c.Archive.Path = filepath.Join(t.TempDir(), "missing", "dir", "archive.db")
			},
			registry:     parser.DefaultRegistry(),
			wantFailures: 1,
			wantOutput:   "Archive not accessible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := internal.DefaultConfig()
			c.Cache.Dir = t.TempDir()
			if tt.mutate != nil {
				tt.mutate(c)
			}

			var buf bytes.Buffer
			got := runChecks(context.Background(), &buf, c, tt.registry)
			if got != tt.wantFailures {
				t.Errorf("runChecks() = %d failures, want %d\n%s", got, tt.wantFailures, buf.String())
			}
			if tt.wantOutput != "" && !strings.Contains(buf.String(), tt.wantOutput) {
				t.Errorf("output missing %q:\n%s", tt.wantOutput, buf.String())
			}
		})
	}
}
