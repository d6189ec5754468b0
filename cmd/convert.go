package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/internal/export"
	"github.com/iksnae/chat-convert/internal/pipeline"
	"github.com/iksnae/chat-convert/internal/parser"
	"github.com/spf13/cobra"
)

// Conversion flags. Zero values defer to the loaded config.
var (
	outputPath   string
	outputFormat string
	noTOC        bool
	analyze      bool
	helpExamples bool
	helpVerbose  bool
	chunk        bool
	targetSize   int
	threshold    float64
	workers      int
	dedupe       bool
	nested       bool
	perMessage   bool
	archivePath  string
	useCache     bool
)

var (
	analysisTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212"))

	analysisLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	analysisValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)
)

const examplesText = `Examples:

  # Convert a ChatGPT export to Markdown next to the input
  chat-convert conversation.json

  # Convert to HTML at a chosen path
  chat-convert chat.md -f html -o chat.html

  # Convert a folder of exports into out/, four at a time, dropping repeats
  chat-convert exports/ -o out --workers 4 --dedupe

  # Write canonical JSON to stdout, chunked for a 4000 token context
  chat-convert chat.md -f json --chunk --target-size 4000 -o -

  # One section per message and no table of contents
  chat-convert chat.json --per-message --no-toc

  # Print message, word and exchange counts instead of converting
  chat-convert --analyze chat.json

  # Keep a searchable copy of every converted chat
  chat-convert chats/*.json --archive ~/chats.db
  chat-convert archive list --archive ~/chats.db
`

// runConvert is the root command: convert every input file, or analyze it
func runConvert(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if helpExamples {
		_, err := fmt.Fprint(out, examplesText)
		return err
	}
	if helpVerbose {
		return printVerboseHelp(cmd)
	}
	if len(args) == 0 {
		return cmd.Help()
	}

	args, err := internal.ExpandInputs(args)
	if err != nil {
		return err
	}

	format, err := resolveFormat(args)
	if err != nil {
		return err
	}
	opts := exportOptions(format)
	if _, err := export.NewExporter(format, opts); err != nil {
		return err
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var onDone func(string, error)
	var progress *internal.BatchProgress
	if len(args) > 1 {
		progress = internal.NewBatchProgress(cmd.ErrOrStderr(), len(args))
		onDone = progress.Done
	}
	var batch *pipeline.BatchResult
	if len(args) == 1 {
		err = internal.ShowProgress(ctx, cmd.ErrOrStderr(), "Converting "+args[0], func() error {
			batch = p.ConvertBatch(ctx, args, nil)
			if len(batch.Failed) == 1 {
				return batch.Failed[0].Error
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		batch = p.ConvertBatch(ctx, args, onDone)
	}
	for _, dup := range batch.Duplicates {
		internal.LogInfo("skipped %s: same conversation as an earlier file", dup)
	}

	if analyze {
		for _, res := range batch.Successful {
			printAnalysis(out, res)
		}
		return batchError(len(batch.Failed), 0, len(args))
	}

	var archive *internal.Archive
	if path := archiveTarget(); path != "" {
		archive, err = internal.OpenArchive(path, internal.SystemClock{})
		if err != nil {
			return err
		}
		defer archive.Close()
	}

	writeFailures := 0
	written := 0
	for _, res := range batch.Successful {
		dest, err := writeResult(out, res, format, opts, len(args) > 1)
		if err != nil {
			writeFailures++
			if len(args) == 1 {
				return err
			}
			internal.LogError("%s: %v", res.Path, err)
			continue
		}
		written++
		if dest != "" {
			internal.LogInfo("wrote %s", dest)
		}
		if archive != nil {
			if err := archive.Save(ctx, res.Doc, absPath(res.Path)); err != nil {
				internal.LogWarn("failed to archive %s: %v", res.Path, err)
			}
		}
	}

	if len(args) > 1 {
		internal.PrintSuccess(fmt.Sprintf("Converted %d of %d file(s)", written, len(args)))
	}
	return batchError(len(batch.Failed), writeFailures, len(args))
}

func batchError(parseFailures, writeFailures, total int) error {
	if n := parseFailures + writeFailures; n > 0 {
		return fmt.Errorf("%d of %d file(s) failed", n, total)
	}
	return nil
}

// resolveFormat picks the output format from -f, then from the extension of
// a single -o target, then from config
func resolveFormat(args []string) (string, error) {
	name := outputFormat
	if name == "" && len(args) == 1 && outputPath != "" && outputPath != "-" {
		if ext := strings.TrimPrefix(filepath.Ext(outputPath), "."); internal.ParseOutputFormat(ext) != "" {
			name = ext
		}
	}
	if name == "" {
		name = cfg.Output.Format
	}
	format := internal.ParseOutputFormat(name)
	if format == "" {
		return "", &internal.ExportError{Format: name, Err: fmt.Errorf("unsupported format")}
	}
	return format, nil
}

func exportOptions(format string) export.Options {
	opts := export.Options{
		FrontMatter:     cfg.Markdown.FrontMatter,
		TOC:             cfg.Markdown.TOC && !noTOC,
		GroupByTime:     cfg.Markdown.GroupByTime && !perMessage && !cfg.Output.PerMessage,
		GapSeconds:      cfg.Markdown.GapSeconds,
		IncludeMetadata: cfg.HTML.IncludeMetadata,
		IncludeThinking: cfg.Markdown.IncludeThinking,
		Nested:          nested || cfg.Output.Nested,
	}
	if format == "html" {
		opts.IncludeThinking = cfg.HTML.IncludeThinking
	}
	return opts
}

// newPipeline builds a pipeline from config overlaid with the command line flags
func newPipeline() (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{
		pipeline.WithRegistry(parser.DefaultRegistry()),
		pipeline.WithDedupe(dedupe || cfg.Batch.Dedupe),
	}

	n := cfg.Batch.Workers
	if workers > 0 {
		n = workers
	}
	opts = append(opts, pipeline.WithWorkers(n))

	if cfg.Schema.Enabled {
		opts = append(opts, pipeline.WithValidator(internal.NewValidator(cfg.Schema.Path)))
	} else {
		opts = append(opts, pipeline.WithValidator(nil))
	}

	if chunk || cfg.Chunking.Enabled {
		// a flag given on the command line wins even when invalid, so
		// NewChunker can reject it
		size := cfg.Chunking.TargetSize
		if rootCmd.Flags().Changed("target-size") {
			size = targetSize
		}
		ratio := cfg.Chunking.ThresholdRatio
		if rootCmd.Flags().Changed("threshold") {
			ratio = threshold
		}
		c, err := internal.NewChunker(size, ratio, cfg.Chunking.Strategy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithChunker(c))
	}

	if useCache || cfg.Cache.Enabled {
		opts = append(opts, pipeline.WithCache(internal.NewCacheManager(cfg.Cache.Dir, internal.SystemClock{})))
	}
	return pipeline.New(opts...), nil
}

func archiveTarget() string {
	if archivePath != "" {
		return archivePath
	}
	return cfg.Archive.Path
}

// writeResult renders res and writes it to its destination. It returns the
// written path, or "" when the output went to w.
func writeResult(w io.Writer, res *pipeline.Result, format string, opts export.Options, multi bool) (string, error) {
	rendered, err := export.Render(res.Doc, format, opts)
	if err != nil {
		return "", err
	}
	if outputPath == "-" {
		_, err := io.WriteString(w, rendered)
		return "", err
	}

	exporter, _ := export.NewExporter(format, opts)
	dest := destination(res.Path, exporter.Extension(), multi)
	if err := (internal.OSFileSystem{}).WriteFile(dest, []byte(rendered)); err != nil {
		return "", &internal.ExportError{Format: format, Path: dest, Err: err}
	}
	return dest, nil
}

// destination names the output file for src. A single input with -o naming a
// file is written there. Otherwise -o, or output.dir, or the directory of the
// input holds a file named after the input.
func destination(src, ext string, multi bool) string {
	if outputPath != "" && !multi && !isDir(outputPath) {
		return outputPath
	}

	dir := outputPath
	if dir == "" {
		dir = cfg.Output.Dir
	}
	if dir == "" {
		dir = filepath.Dir(src)
	}

	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dest := filepath.Join(dir, stem+"."+ext)
	if filepath.Clean(dest) == filepath.Clean(src) {
		dest = filepath.Join(dir, stem+".converted."+ext)
	}
	return dest
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printAnalysis(w io.Writer, res *pipeline.Result) {
	a := internal.Analyze(res.Doc)
	title := res.Doc.Metadata.Title
	fmt.Fprintln(w, analysisTitleStyle.Render(fmt.Sprintf("📊 %s", title)))
	fmt.Fprintf(w, "%s %s\n", analysisLabelStyle.Render("File:"), res.Path)
	fmt.Fprintf(w, "%s %s (%s)\n", analysisLabelStyle.Render("Parser:"), res.Parser, res.Format)

	row := func(label string, value any) {
		fmt.Fprintf(w, "%s %s\n", analysisLabelStyle.Render(fmt.Sprintf("%-16s", label)), analysisValueStyle.Render(fmt.Sprint(value)))
	}
	row("Messages:", a.MessageCount)
	row("Words:", a.WordCount)
	row("Exchanges:", a.TotalExchanges)
	row("Token estimate:", a.TokenEstimate)
	if a.DurationSeconds > 0 {
		row("Duration:", fmt.Sprintf("%ds", a.DurationSeconds))
	}

	roles := make([]string, 0, len(a.RoleCounts))
	for role := range a.RoleCounts {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		row(internal.RoleLabel(internal.Role(role))+":", a.RoleCounts[internal.Role(role)])
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "%s %s\n", analysisLabelStyle.Render("Warning:"), warning)
	}
	fmt.Fprintln(w)
}

func printVerboseHelp(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if err := cmd.Help(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Supported exports, tried in this order:")
	for i, p := range parser.DefaultRegistry().Parsers() {
		fmt.Fprintf(out, "  %2d. %-26s %s\n", i+1, p.Name(), formatList(p.Formats()))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Output formats: html, md, json, yml, jsonl")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration is read from --config, ./%s or ~/%s.\n", internal.ConfigFileName, internal.ConfigFileName)
	fmt.Fprintf(out, "Every key can be overridden from the environment, e.g. %s_CHUNKING_TARGET_SIZE=8000.\n", internal.EnvPrefix)
	fmt.Fprintln(out)
	_, err := fmt.Fprint(out, examplesText)
	return err
}

func formatList(formats []internal.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&outputPath, "output", "o", "", "Output file, or directory for several inputs (- for stdout)")
	f.StringVarP(&outputFormat, "format", "f", "", "Output format (html, md, json, yml, jsonl)")
	f.BoolVar(&noTOC, "no-toc", false, "Omit the table of contents")
	f.BoolVar(&analyze, "analyze", false, "Print message, word and exchange counts instead of converting")
	f.BoolVar(&helpExamples, "help-examples", false, "Show usage examples")
	f.BoolVar(&helpVerbose, "help-verbose", false, "Show detailed help")
	f.BoolVar(&chunk, "chunk", false, "Split conversations into token-bounded chunks")
	f.IntVar(&targetSize, "target-size", 0, "Chunk token target (default from config)")
	f.Float64Var(&threshold, "threshold", 0, "Fraction of the target at which a user turn starts a new chunk")
	f.IntVar(&workers, "workers", 0, "Files converted at once (default from config)")
	f.BoolVar(&dedupe, "dedupe", false, "Skip files holding a conversation already converted")
	f.BoolVar(&nested, "nested", false, "Render JSON and YAML grouped into chat sessions")
	f.BoolVar(&perMessage, "per-message", false, "One Markdown/HTML section per message instead of per session")
	f.StringVar(&archivePath, "archive", "", "Also store converted chats in this SQLite archive")
	f.BoolVar(&useCache, "cache", false, "Reuse earlier conversions of unchanged files")
}
