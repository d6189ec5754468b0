package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-convert/internal/parser"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// parsersCmd lists the registry in the order parsers are tried
var parsersCmd = &cobra.Command{
	Use:   "parsers",
	Short: "List supported chat exports in priority order",
	Long: `List every parser in the order they are tried. The first parser whose
input formats include the detected format and that recognizes the content wins.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		parsers := parser.DefaultRegistry().Parsers()

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🧩 %d parser(s)", len(parsers))))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("#")+"\t"+titleStyle.Render("Parser")+"\t"+titleStyle.Render("Formats")+"\t")
		for i, p := range parsers {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n",
				countStyle.Render(strconv.Itoa(i+1)), p.Name(), dateStyle.Render(formatList(p.Formats())))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(parsersCmd)
}
