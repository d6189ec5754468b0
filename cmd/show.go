package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	limit      int
	since      string
	renderMD   bool
	showThinks bool
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	systemMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Padding(0, 1)

	toolMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the messages of a chat export in the terminal",
	Long: `Convert a chat export and display its messages.

Use --render to format message Markdown (code blocks, lists, tables) for the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := convertOne(args[0])
		if err != nil {
			return err
		}
		return showDoc(cmd.OutOrStdout(), res.Doc)
	},
}

// showDoc prints doc honoring --limit, --since and --render
func showDoc(w io.Writer, doc *internal.CanonicalDoc) error {
	messages, err := filterMessages(doc.Messages, since, limit)
	if err != nil {
		return err
	}

	var renderer *glamour.TermRenderer
	if renderMD {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
	}

	displayDocHeader(w, doc)
	for i, msg := range messages.shown {
		displayMessage(w, renderer, i+1, msg, messages.total)
	}

	// Show remaining count if limit was applied
	if remaining := messages.total - len(messages.shown); remaining > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			Render(fmt.Sprintf("... (%d more message(s))", remaining)))
	}
	return nil
}

type messageSelection struct {
	shown []internal.Message
	total int
}

// filterMessages keeps messages at or after sinceArg (RFC 3339) and caps the
// result at max when max > 0. Messages without a timestamp are dropped by a
// since filter.
func filterMessages(messages []internal.Message, sinceArg string, max int) (messageSelection, error) {
	if sinceArg != "" {
		sinceTime, err := time.Parse(time.RFC3339, sinceArg)
		if err != nil {
			return messageSelection{}, fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
		}
		filtered := make([]internal.Message, 0, len(messages))
		for _, msg := range messages {
			if msgTime, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil && !msgTime.Before(sinceTime) {
				filtered = append(filtered, msg)
			}
		}
		messages = filtered
	}

	sel := messageSelection{shown: messages, total: len(messages)}
	if max > 0 && max < len(messages) {
		sel.shown = messages[:max]
	}
	return sel, nil
}

func displayDocHeader(w io.Writer, doc *internal.CanonicalDoc) {
	meta := doc.Metadata
	fmt.Fprintln(w, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", meta.Title)))

	var metaParts []string
	if meta.Platform != "" {
		metaParts = append(metaParts, fmt.Sprintf("Platform: %s", meta.Platform))
	}
	if meta.CreatedAt != "" {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", meta.CreatedAt))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(doc.Messages)))
	if meta.Chunking != nil {
		metaParts = append(metaParts, fmt.Sprintf("Chunks: %d", meta.Chunking.TotalChunks))
	}
	fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(w)
}

func roleStyle(role internal.Role) (lipgloss.Style, string) {
	switch role {
	case internal.RoleUser:
		return userMessageStyle, "👤 User"
	case internal.RoleAssistant:
		return assistantMessageStyle, "🤖 Assistant"
	case internal.RoleSystem:
		return systemMessageStyle, "⚙️ System"
	default:
		return toolMessageStyle, "🔧 " + internal.RoleLabel(role)
	}
}

func displayMessage(w io.Writer, renderer *glamour.TermRenderer, index int, msg internal.Message, total int) {
	style, label := roleStyle(msg.Role)

	header := style.Render(label) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if msg.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			header += " " + timestampStyle.Render(t.Format("15:04:05"))
		} else {
			header += " " + timestampStyle.Render(msg.Timestamp)
		}
	}
	fmt.Fprintln(w, header)

	if thinking := msg.Thinking(); showThinks && thinking != "" {
		fmt.Fprintln(w, thinkingStyle.Render("💭 "+wrapText(thinking, 78)))
	}

	content := strings.TrimSpace(msg.Content)
	switch {
	case content == "":
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	case renderer != nil:
		source := content
		if msg.Role == internal.RoleTool {
			source = internal.Fence("", content)
		}
		rendered, err := renderer.Render(source)
		if err != nil {
			internal.LogDebug("markdown render failed for %s: %v", msg.MessageID, err)
			fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
		} else {
			fmt.Fprint(w, rendered)
		}
	default:
		fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
	}

	for _, att := range msg.Attachments {
		name := att.Name
		if att.URL != "" {
			name += " <" + att.URL + ">"
		}
		fmt.Fprintln(w, timestampStyle.Render(fmt.Sprintf("  📎 %s (%s)", name, att.Type)))
	}
	fmt.Fprintln(w)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		// Wrap long lines
		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

// convertOne is shared by commands that need a single converted document
func convertOne(path string) (*pipeline.Result, error) {
	p, err := newPipeline()
	if err != nil {
		return nil, err
	}
	return p.Convert(path)
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().BoolVar(&renderMD, "render", false, "Render message Markdown for the terminal")
	showCmd.Flags().BoolVar(&showThinks, "thinking", false, "Include assistant thinking")
}
