package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/chat-convert/internal"
	"gopkg.in/yaml.v3"
)

// MarkdownExporter exports documents in Markdown format. Every line of message
// text that could be read back as a role marker, heading, thinking block or
// attachment bullet is escaped with a backslash.
type MarkdownExporter struct {
	opts Options
}

// markdownFrontMatter is the metadata subset written ahead of the title
type markdownFrontMatter struct {
	Title      string   `yaml:"title"`
	ChatID     string   `yaml:"chat_id,omitempty"`
	Platform   string   `yaml:"platform,omitempty"`
	Exporter   string   `yaml:"exporter,omitempty"`
	CreatedAt  string   `yaml:"created_at,omitempty"`
	UpdatedAt  string   `yaml:"updated_at,omitempty"`
	ExportedAt string   `yaml:"exported_at,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// Export exports a document to Markdown format
func (e *MarkdownExporter) Export(doc *internal.CanonicalDoc, w io.Writer) error {
	var sb strings.Builder

	if e.opts.FrontMatter {
		meta := doc.Metadata
		fm, err := yaml.Marshal(markdownFrontMatter{
			Title:      meta.Title,
			ChatID:     meta.ChatID,
			Platform:   meta.Platform,
			Exporter:   meta.Exporter,
			CreatedAt:  meta.CreatedAt,
			UpdatedAt:  meta.UpdatedAt,
			ExportedAt: meta.ExportedAt,
			Tags:       meta.Tags,
		})
		if err != nil {
			return wrapExport("md", fmt.Errorf("front matter: %w", err))
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	if title := strings.TrimSpace(doc.Metadata.Title); title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}

	sections := splitSections(doc.Messages, e.opts)
	if e.opts.TOC && len(sections) > 1 {
		sb.WriteString("## Contents\n\n")
		for _, s := range sections {
			fmt.Fprintf(&sb, "- [%s](#%s)\n", s.Heading, s.Anchor())
		}
		sb.WriteString("\n")
	}

	level := "###"
	if e.opts.GroupByTime {
		level = "##"
	}
	for _, s := range sections {
		fmt.Fprintf(&sb, "%s %s\n\n", level, s.Heading)
		for _, msg := range s.Messages {
			e.writeMessage(&sb, msg)
		}
	}

	_, err := io.WriteString(w, strings.TrimRight(sb.String(), "\n")+"\n")
	return wrapExport("md", err)
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, msg internal.Message) {
	fmt.Fprintf(sb, "**%s:**\n\n", internal.RoleLabel(msg.Role))

	if thinking := msg.Thinking(); e.opts.IncludeThinking && thinking != "" {
		sb.WriteString("<details>\n<summary>Thinking</summary>\n\n")
		sb.WriteString(internal.EscapeMarkdownLines(thinking))
		sb.WriteString("\n\n</details>\n\n")
	}

	if body := markdownBody(msg); body != "" {
		sb.WriteString(internal.EscapeMarkdownLines(body))
		sb.WriteString("\n\n")
	}

	if len(msg.Attachments) > 0 {
		sb.WriteString("**Attachments:**\n\n")
		for _, att := range msg.Attachments {
			sb.WriteString(attachmentLine(att))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

// markdownBody applies the role specific form: tool output is fenced and a
// one line system message is set in italics
func markdownBody(msg internal.Message) string {
	switch msg.Role {
	case internal.RoleTool:
		return internal.Fence("", msg.Content)
	case internal.RoleSystem:
		if msg.Content != "" && !strings.Contains(msg.Content, "\n") {
			return "*" + msg.Content + "*"
		}
	}
	return msg.Content
}

func attachmentLine(att internal.Attachment) string {
	name := strings.TrimSpace(att.Name)
	if name == "" {
		name = "attachment"
	}
	if att.URL != "" {
		name = fmt.Sprintf("[%s](%s)", name, att.URL)
	}
	if att.Type == "" {
		return "- 📎 " + name
	}
	return fmt.Sprintf("- 📎 %s (%s)", name, att.Type)
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
