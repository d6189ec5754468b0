package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/internal/parser"
	"github.com/spf13/cobra"
)

var (
	inspectFormat string
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how a chat export is detected and which parser reads it",
	Long: `Inspect a chat export without converting it.

This command shows:
  • The detected file format and advisory exporter dialect
  • Every parser in priority order and whether it accepts the file
  • The parser that wins and the warnings it reports

Examples:
  chat-convert inspect chat.json                # Text report
  chat-convert inspect chat.md --format json    # Machine readable report`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := inspectFile(args[0], parser.DefaultRegistry())
		if err != nil {
			return err
		}
		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "text", "":
			printInspection(cmd.OutOrStdout(), report)
			return nil
		default:
			return fmt.Errorf("unsupported inspect format %q (use text or json)", inspectFormat)
		}
	},
}

// inspection is the outcome of sniffing and resolving one file
type inspection struct {
	Path       string             `json:"path"`
	Size       int                `json:"size"`
	Format     internal.Format    `json:"format"`
	Dialect    string             `json:"dialect,omitempty"`
	Candidates []parser.Candidate `json:"candidates"`
	Parser     string             `json:"parser,omitempty"`
	Messages   int                `json:"messages,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// inspectFile sniffs path and asks every parser about it. Only a read
// failure is returned as an error; detection and parse problems are part
// of the report.
func inspectFile(path string, registry *parser.Registry) (*inspection, error) {
	content, err := internal.OSFileSystem{}.ReadFile(path)
	if err != nil {
		return nil, err
	}

	report := &inspection{Path: path, Size: len(content)}
	report.Format = internal.DetectFormat(path, content)
	if report.Format == internal.FormatUnknown {
		report.Error = (&internal.FormatUndetectableError{Path: path}).Error()
		return report, nil
	}

	in := parser.NewInput(path, content, report.Format, nil)
	in.Dialect = internal.DetectSource(content, report.Format)
	report.Dialect = in.Dialect
	report.Candidates = registry.Candidates(in)

	p, err := registry.Resolve(in)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Parser = p.Name()

	doc, err := p.Parse(in)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Messages = len(doc.Messages)
	report.Warnings = in.Warnings
	return report, nil
}

func printInspection(out io.Writer, r *inspection) {
	fmt.Fprintf(out, "📋 File: %s (%d bytes)\n", r.Path, r.Size)
	fmt.Fprintf(out, "📄 Format: %s\n", r.Format)
	if r.Dialect != "" {
		fmt.Fprintf(out, "🏷️  Dialect: %s\n", r.Dialect)
	}
	fmt.Fprintln(out)

	if len(r.Candidates) > 0 {
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintln(out, "🧩 Parsers")
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		for i, c := range r.Candidates {
			var verdict string
			switch {
			case !c.FormatMatch:
				verdict = "other format"
			case c.Name == r.Parser:
				verdict = "✅ selected"
			case c.Accepts:
				verdict = "accepts"
			default:
				verdict = "declines"
			}
			fmt.Fprintf(out, "  %2d. %-26s %s\n", i+1, c.Name, verdict)
		}
		fmt.Fprintln(out)
	}

	if r.Error != "" {
		fmt.Fprintf(out, "❌ %s\n", r.Error)
		return
	}
	fmt.Fprintf(out, "💬 Messages: %d\n", r.Messages)
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "⚠️  %s\n", w)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
}
