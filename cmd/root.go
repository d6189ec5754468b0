package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iksnae/chat-convert/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg is loaded once per invocation by PersistentPreRunE
	cfg = internal.DefaultConfig()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat-convert [input_file...]",
	Short: "Convert AI chat exports between formats",
	Long: `Convert chat exports from ChatGPT, Claude and other exporters into one
canonical chat history and render it as Markdown, HTML, JSON, YAML or JSONL.

Features:
  • Detects the export format and exporter from the file itself
  • Renders Markdown and HTML that convert back without loss
  • Token-bounded chunking that never splits an exchange
  • Batch conversion with bounded concurrency and deduplication
  • Optional SQLite archive of everything converted

Quick Start:
  chat-convert chat.json                 # Convert to Markdown next to the input
  chat-convert chat.md -f html -o out.html
  chat-convert --analyze chat.json       # Print message and word counts
  chat-convert parsers                   # List supported exports

For detailed usage, see: chat-convert --help-verbose`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		internal.SetLogLevel(internal.ParseLogLevel(cfg.Log.Level))
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	internal.SyncLogger()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes the one line error report and, when one applies, a hint
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// hintFor suggests the next step for the error kinds a user can act on
func hintFor(err error) string {
	var (
		undetectable *internal.FormatUndetectableError
		noParser     *internal.NoParserAvailableError
		malformed    *internal.MalformedSourceError
		chunkCfg     *internal.ChunkerConfigError
		storage      *internal.StorageError
		exportErr    *internal.ExportError
	)
	switch {
	case errors.As(err, &undetectable):
		return "rename the file with a .json, .yaml, .md or .html extension"
	case errors.As(err, &noParser):
		return "run 'chat-convert parsers' to see the supported exports"
	case errors.As(err, &malformed):
		return fmt.Sprintf("the file looks like a %s export but is incomplete; re-export it", malformed.Parser)
	case errors.As(err, &chunkCfg):
		return fmt.Sprintf("use --target-size >= %d and --threshold in (0, 1]", internal.MinChunkTargetSize)
	case errors.As(err, &storage) && errors.Is(err, fs.ErrNotExist):
		return "check that the path exists"
	case errors.As(err, &exportErr) && internal.ParseOutputFormat(exportErr.Format) == "":
		return "use -f with one of: html, md, json, yml, jsonl"
	case errors.As(err, &exportErr) && exportErr.Path != "":
		return "check that the output location is writable"
	}
	return ""
}

func init() {
	// assigned here rather than in the literal to break the rootCmd -> runConvert -> newPipeline -> rootCmd initialization cycle
	rootCmd.RunE = runConvert
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+internal.ConfigFileName+" or ~/"+internal.ConfigFileName+")")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
