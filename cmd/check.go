package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/internal/parser"
	"github.com/spf13/cobra"
)

var (
	checkVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration, schema, cache, archive and parser order",
	Long: `Check that chat-convert is ready to run by verifying:
  • Configuration file and values
  • JSON Schema used for validation
  • Parser registry ordering
  • Cache directory access
  • Archive database access

Warnings do not fail the check; errors exit with status 1.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		failures := runChecks(ctx, cmd.OutOrStdout(), cfg, parser.DefaultRegistry())
		if failures > 0 {
			return fmt.Errorf("check failed: %d problem(s)", failures)
		}
		return nil
	},
}

// runChecks prints every diagnostic to out and returns the number of failed steps
func runChecks(ctx context.Context, out io.Writer, c *internal.Config, registry *parser.Registry) int {
	failures := 0
	detail := func(format string, args ...any) {
		if checkVerbose {
			fmt.Fprintf(out, "   "+format+"\n", args...)
		}
	}

	fmt.Fprintln(out, sectionStyle.Render("🔍 chat-convert check"))
	fmt.Fprintln(out)

	// Step 1: Configuration
	fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
	if c.Source != "" {
		fmt.Fprintln(out, successStyle.Render("✅ Config loaded from "+c.Source))
	} else {
		fmt.Fprintln(out, warningStyle.Render("⚠️  No config file found, using defaults"))
	}
	if err := c.Validate(); err != nil {
		failures++
		fmt.Fprintln(out, errorStyle.Render("❌ Invalid configuration:"), err)
	} else {
		detail("Output format: %s", c.Output.Format)
		detail("Workers: %d", c.Batch.Workers)
		detail("Chunking: enabled=%t target=%d threshold=%.2f", c.Chunking.Enabled, c.Chunking.TargetSize, c.Chunking.ThresholdRatio)
	}
	fmt.Fprintln(out)

	// Step 2: Schema
	fmt.Fprintln(out, infoStyle.Render("Step 2: Checking JSON Schema..."))
	if !c.Schema.Enabled {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Schema validation disabled"))
	} else {
		v := internal.NewValidator(c.Schema.Path)
		if v.SchemaLoaded() {
			fmt.Fprintln(out, successStyle.Render("✅ Schema loaded ("+v.Source()+")"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Schema unavailable, only structural checks will run ("+v.Source()+")"))
		}
	}
	fmt.Fprintln(out)

	// Step 3: Registry
	fmt.Fprintln(out, infoStyle.Render("Step 3: Checking parser order..."))
	if problems := registry.Problems(); len(problems) > 0 {
		failures++
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %d ordering problem(s)", len(problems))))
		for _, p := range problems {
			fmt.Fprintf(out, "   • %s\n", p)
		}
	} else {
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d parser(s) in a consistent order", len(registry.Parsers()))))
		for i, p := range registry.Parsers() {
			detail("[%d] %s", i+1, p.Name())
		}
	}
	fmt.Fprintln(out)

	// Step 4: Cache
	fmt.Fprintln(out, infoStyle.Render("Step 4: Checking cache..."))
	if !c.Cache.Enabled {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Cache disabled (enable with --cache or cache.enabled)"))
		detail("Directory: %s", c.Cache.Dir)
	} else {
		cm := internal.NewCacheManager(c.Cache.Dir, internal.SystemClock{})
		if err := cm.EnsureCacheDir(); err != nil {
			failures++
			fmt.Fprintln(out, errorStyle.Render("❌ Cache directory not writable:"), err)
		} else {
			entries := 0
			if index, err := cm.LoadIndex(); err == nil {
				entries = len(index.Entries)
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Cache ready (%d entries)", entries)))
			detail("Directory: %s", cm.GetCacheDir())
		}
	}
	fmt.Fprintln(out)

	// Step 5: Archive
	fmt.Fprintln(out, infoStyle.Render("Step 5: Checking archive..."))
	if c.Archive.Path == "" {
		fmt.Fprintln(out, warningStyle.Render("⚠️  No archive configured"))
	} else if archive, err := internal.OpenArchive(c.Archive.Path, internal.SystemClock{}); err != nil {
		failures++
		fmt.Fprintln(out, errorStyle.Render("❌ Archive not accessible:"), err)
	} else {
		defer archive.Close()
		counts, err := archive.RoleCounts(ctx)
		if err != nil {
			failures++
			fmt.Fprintln(out, errorStyle.Render("❌ Archive query failed:"), err)
		} else {
			total := 0
			roles := make([]string, 0, len(counts))
			for role, n := range counts {
				total += n
				roles = append(roles, string(role))
			}
			sort.Strings(roles)
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Archive ready (%d archived messages)", total)))
			detail("Path: %s", c.Archive.Path)
			for _, role := range roles {
				detail("%s: %d", role, counts[internal.Role(role)])
			}
		}
	}
	fmt.Fprintln(out)

	// Summary
	fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	fmt.Fprintln(out)
	if failures == 0 {
		fmt.Fprintln(out, successStyle.Render("✅ All checks passed!"))
	} else {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %d check(s) failed", failures)))
	}
	return failures
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVarP(&checkVerbose, "details", "d", false, "Show detailed diagnostic information")
}
