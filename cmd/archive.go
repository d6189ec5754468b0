package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-convert/internal"
	"github.com/spf13/cobra"
)

var workspaceStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("135")).
	Italic(true)

// archiveCmd groups commands reading the SQLite archive written by --archive
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Browse chats stored with --archive",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived chats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchiveReadOnly()
		if err != nil {
			return err
		}
		defer archive.Close()

		entries, err := archive.List(cmd.Context())
		if err != nil {
			return err
		}
		displayArchiveEntries(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <chat-id>",
	Short: "Show an archived chat",
	Long:  `Show an archived chat. A unique prefix of the chat id is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchiveReadOnly()
		if err != nil {
			return err
		}
		defer archive.Close()

		doc, err := archive.Load(cmd.Context(), args[0])
		if err != nil {
			if internal.IsNotFound(err) {
				return fmt.Errorf("chat not found: %s (use 'chat-convert archive list' to see archived chats)", args[0])
			}
			return err
		}
		return showDoc(cmd.OutOrStdout(), doc)
	},
}

func openArchiveReadOnly() (*internal.Archive, error) {
	path := archiveTarget()
	if path == "" {
		return nil, fmt.Errorf("no archive configured: pass --archive or set archive.path")
	}
	return internal.OpenArchiveReadOnly(path)
}

func displayArchiveEntries(out io.Writer, entries []internal.ArchiveEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No archived chats"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d chat(s)", len(entries))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Created")+"\t"+titleStyle.Render("Platform")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = "Untitled"
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		platform := dateStyle.Render("—")
		if e.Platform != "" {
			platform = workspaceStyle.Render(e.Platform)
		}

		shortID := e.ChatID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID),
			lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(title),
			countStyle.Render(strconv.Itoa(e.MessageCount)),
			dateStyle.Render(relativeDate(e.CreatedAt, now)),
			platform)
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(entries[0].ChatID)+
		idStyle.Render(") with `chat-convert archive show <id>`"))
}

// relativeDate formats an RFC 3339 timestamp more compactly the closer it is to now
func relativeDate(ts string, now time.Time) string {
	if ts == "" {
		return "—"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd)
	archiveCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "Archive database (default from archive.path)")
	archiveShowCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	archiveShowCmd.Flags().BoolVar(&renderMD, "render", false, "Render message Markdown for the terminal")
}
