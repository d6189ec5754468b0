package parser

import (
	"regexp"
	"strings"

	"github.com/iksnae/chat-convert/internal"
	"gopkg.in/yaml.v3"
)

var markdownFormats = []internal.Format{internal.FormatMarkdown}

var (
	titleLine          = regexp.MustCompile(`^#\s+(.+?)\s*$`)
	promptResponseLine = regexp.MustCompile(`(?i)^#{2,6}\s+(prompt|response):\s*$`)
	roleHeadingLine    = regexp.MustCompile(`^#{2,6}\s+([A-Za-z][A-Za-z_ ]*?)\s*:?\s*(?:\((.+)\))?\s*$`)
	boldLabelLine      = regexp.MustCompile(`^\*\*([^*\n]+):\*\*[ \t]?(.*)$`)
	sessionHeaderLine  = regexp.MustCompile(`^##\s+Session\s+\d+(?:\s+\((.+)\))?\s*$`)
	messageHeaderLine  = regexp.MustCompile(`^###\s+Message\s+\d+(?:\s+\((.+)\))?\s*$`)
	fenceOpenLine      = regexp.MustCompile("^(`{3,})\\s*$")
	attachmentLine     = regexp.MustCompile(`^- 📎 (?:\[(.+?)\]\((.+?)\)|(.+?))(?: \(([^()]*)\))?\s*$`)
	exporterMetaLine   = regexp.MustCompile(`^\*\*(Created|Updated|Exported|Link|User):\*\*\s*(.*)$`)
	markdownLink       = regexp.MustCompile(`^\[.*\]\((.+)\)$`)
)

// turn is one message found while scanning Markdown
type turn struct {
	role      string
	timestamp string
	lines     []string
}

func (t *turn) text() string {
	return strings.Join(internal.TrimBlankLines(t.lines), "\n")
}

// splitTurns cuts lines into turns at every line marker accepts. Lines
// before the first marker are returned as the prelude.
func splitTurns(lines []string, marker func(string) (role, timestamp string, ok bool)) (prelude []string, turns []*turn) {
	var current *turn
	for _, line := range lines {
		if role, ts, ok := marker(line); ok {
			current = &turn{role: role, timestamp: ts}
			turns = append(turns, current)
			continue
		}
		if current == nil {
			prelude = append(prelude, line)
			continue
		}
		current.lines = append(current.lines, line)
	}
	return prelude, turns
}

// preludeTitle returns the first level-one heading in lines
func preludeTitle(lines []string) string {
	for _, line := range lines {
		if m := titleLine.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func hasLine(text string, match func(string) bool) bool {
	for _, line := range strings.Split(text, "\n") {
		if match(line) {
			return true
		}
	}
	return false
}

// MarkdownPromptResponseParser reads the Markdown written by the "ChatGPT
// Exporter" extension: ## Prompt: / ## Response: headings
type MarkdownPromptResponseParser struct{}

func (p *MarkdownPromptResponseParser) Name() string { return "markdown-prompt-response" }
func (p *MarkdownPromptResponseParser) Formats() []internal.Format {
	return markdownFormats
}

func (p *MarkdownPromptResponseParser) CanHandle(in *Input) bool {
	return hasLine(in.Text(), func(line string) bool { return promptResponseLine.MatchString(line) })
}

func (p *MarkdownPromptResponseParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	prelude, turns := splitTurns(strings.Split(in.Text(), "\n"), func(line string) (string, string, bool) {
		if m := promptResponseLine.FindStringSubmatch(line); m != nil {
			return m[1], "", true
		}
		return "", "", false
	})

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.Title = preludeTitle(prelude)
	m.Platform = "chatgpt"
	m.Exporter = internal.DialectExporterMarkdown
	for _, line := range prelude {
		mm := exporterMetaLine.FindStringSubmatch(strings.TrimSpace(line))
		if mm == nil {
			continue
		}
		value := strings.TrimSpace(mm[2])
		switch mm[1] {
		case "Created":
			b.SetTime(&m.CreatedAt, value)
		case "Updated":
			b.SetTime(&m.UpdatedAt, value)
		case "Exported":
			b.SetTime(&m.ExportedAt, value)
		case "Link":
			if lm := markdownLink.FindStringSubmatch(value); lm != nil {
				value = lm[1]
			}
			m.ChatID = chatIDFromLink(value)
		}
	}

	for _, t := range turns {
		lines := internal.TrimBlankLines(t.lines)
		// turns are separated by rules and the file ends with a footer
		for len(lines) > 0 {
			last := strings.TrimSpace(lines[len(lines)-1])
			if last != "---" && !strings.HasPrefix(last, "Powered by") {
				break
			}
			lines = internal.TrimBlankLines(lines[:len(lines)-1])
		}
		b.AddMessage(internal.MessageInput{Role: t.role, Content: strings.Join(lines, "\n")})
	}
	return finish(b, in), nil
}

// MarkdownHeadingsParser reads role headings such as "## User" and
// "### Assistant (2024-01-02 10:00)". A level-one heading is the title, and
// like any ATX heading it needs a space after the hashes.
type MarkdownHeadingsParser struct{}

func (p *MarkdownHeadingsParser) Name() string               { return internal.DialectMarkdownHeadings }
func (p *MarkdownHeadingsParser) Formats() []internal.Format { return markdownFormats }

func (p *MarkdownHeadingsParser) CanHandle(in *Input) bool {
	return hasLine(in.Text(), func(line string) bool {
		_, _, ok := roleHeading(line)
		return ok
	})
}

func roleHeading(line string) (role, timestamp string, ok bool) {
	m := roleHeadingLine.FindStringSubmatch(line)
	if m == nil || !internal.IsRoleToken(m[1]) {
		return "", "", false
	}
	return m[1], m[2], true
}

func (p *MarkdownHeadingsParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	prelude, turns := splitTurns(strings.Split(in.Text(), "\n"), roleHeading)

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.Title = preludeTitle(prelude)
	m.Exporter = "markdown"
	for _, t := range turns {
		b.AddMessage(internal.MessageInput{Role: t.role, Content: t.text(), Timestamp: t.timestamp})
	}
	return finish(b, in), nil
}

// MarkdownBoldParser reads "**User:**" role markers. It also reads every
// construct the Markdown renderer writes: front matter, table of contents,
// session and message headers, escaped lines, thinking blocks, attachment
// lists, fenced tool output and italic system lines.
type MarkdownBoldParser struct{}

func (p *MarkdownBoldParser) Name() string               { return internal.DialectMarkdownBold }
func (p *MarkdownBoldParser) Formats() []internal.Format { return markdownFormats }
func (p *MarkdownBoldParser) Fallback() bool             { return true }

func (p *MarkdownBoldParser) CanHandle(in *Input) bool {
	return hasLine(in.Text(), func(line string) bool {
		m := boldLabelLine.FindStringSubmatch(line)
		return m != nil && internal.IsRoleToken(m[1])
	})
}

// frontMatter is the metadata subset the Markdown renderer writes
type frontMatter struct {
	Title      string   `yaml:"title"`
	ChatID     string   `yaml:"chat_id"`
	Platform   string   `yaml:"platform"`
	Exporter   string   `yaml:"exporter"`
	CreatedAt  string   `yaml:"created_at"`
	UpdatedAt  string   `yaml:"updated_at"`
	ExportedAt string   `yaml:"exported_at"`
	Tags       []string `yaml:"tags"`
}

// splitFrontMatter separates a leading --- delimited YAML block
func splitFrontMatter(text string) (string, string) {
	if !strings.HasPrefix(text, "---\n") {
		return "", text
	}
	rest := text[len("---\n"):]
	if strings.HasPrefix(rest, "---\n") {
		return "", rest[len("---\n"):]
	}
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if strings.HasSuffix(rest, "\n---") {
			return rest[:len(rest)-len("\n---")], ""
		}
		return "", text
	}
	return rest[:idx], rest[idx+len("\n---\n"):]
}

type boldMessage struct {
	role        string
	timestamp   string
	lines       []string
	thinking    []string
	attachments []internal.Attachment
}

func (p *MarkdownBoldParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	fmText, body := splitFrontMatter(in.Text())

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.Exporter = "markdown"
	if fmText != "" {
		var fm frontMatter
		if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
			in.Warnf("front matter ignored: %v", err)
		} else {
			m.Title, m.ChatID, m.Platform = fm.Title, fm.ChatID, fm.Platform
			if fm.Exporter != "" {
				m.Exporter = fm.Exporter
			}
			b.SetTime(&m.CreatedAt, fm.CreatedAt)
			b.SetTime(&m.UpdatedAt, fm.UpdatedAt)
			b.SetTime(&m.ExportedAt, fm.ExportedAt)
			b.AddTags(fm.Tags...)
		}
	}

	const (
		inBody = iota
		inThinking
		inAttachments
	)
	var (
		messages  []*boldMessage
		current   *boldMessage
		pendingTS string
		mode      = inBody
	)

	for _, line := range strings.Split(body, "\n") {
		if mode == inThinking {
			if line == "</details>" {
				mode = inBody
				continue
			}
			if !strings.HasPrefix(line, "<summary") {
				current.thinking = append(current.thinking, internal.UnescapeMarkdownLine(line))
			}
			continue
		}

		if mm := boldLabelLine.FindStringSubmatch(line); mm != nil && internal.IsRoleToken(mm[1]) {
			current = &boldMessage{role: mm[1], timestamp: pendingTS}
			pendingTS = ""
			if rest := mm[2]; strings.TrimSpace(rest) != "" {
				current.lines = append(current.lines, rest)
			}
			messages = append(messages, current)
			mode = inBody
			continue
		}
		if mm := sessionHeaderLine.FindStringSubmatch(line); mm != nil {
			pendingTS, mode = mm[1], inBody
			current = nil
			continue
		}
		if mm := messageHeaderLine.FindStringSubmatch(line); mm != nil {
			pendingTS, mode = mm[1], inBody
			current = nil
			continue
		}

		// title, table of contents and anything else ahead of the first message
		if current == nil {
			if m.Title == "" && titleLine.MatchString(line) {
				m.Title = titleLine.FindStringSubmatch(line)[1]
			}
			continue
		}

		switch {
		case line == "<details>":
			mode = inThinking
		case line == "**Attachments:**":
			mode = inAttachments
		case mode == inAttachments:
			if att, ok := parseAttachmentLine(line); ok {
				current.attachments = append(current.attachments, att)
			} else if strings.TrimSpace(line) != "" {
				mode = inBody
				current.lines = append(current.lines, internal.UnescapeMarkdownLine(line))
			}
		default:
			current.lines = append(current.lines, internal.UnescapeMarkdownLine(line))
		}
	}

	for _, msg := range messages {
		role := internal.NormalizeRole(msg.role)
		text := decodeRoleBody(role, internal.TrimBlankLines(msg.lines))
		var ps map[string]any
		if thinking := strings.Join(internal.TrimBlankLines(msg.thinking), "\n"); thinking != "" {
			ps = map[string]any{"thinking": thinking}
		}
		b.AddMessage(internal.MessageInput{
			Role:             string(role),
			Content:          text,
			Timestamp:        msg.timestamp,
			Attachments:      msg.attachments,
			PlatformSpecific: ps,
		})
	}
	return finish(b, in), nil
}

// decodeRoleBody reverses the role specific rendering: fenced tool output
// and single line italic system messages
func decodeRoleBody(role internal.Role, lines []string) string {
	switch role {
	case internal.RoleTool:
		if len(lines) >= 2 {
			if m := fenceOpenLine.FindStringSubmatch(lines[0]); m != nil && strings.TrimSpace(lines[len(lines)-1]) == m[1] {
				return strings.Join(lines[1:len(lines)-1], "\n")
			}
		}
	case internal.RoleSystem:
		if len(lines) == 1 {
			s := lines[0]
			if len(s) >= 2 && strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*") {
				return s[1 : len(s)-1]
			}
		}
	}
	return strings.Join(lines, "\n")
}

func parseAttachmentLine(line string) (internal.Attachment, bool) {
	m := attachmentLine.FindStringSubmatch(line)
	if m == nil {
		return internal.Attachment{}, false
	}
	att := internal.Attachment{Type: m[4]}
	if m[1] != "" {
		att.Name, att.URL = m[1], m[2]
	} else {
		att.Name = m[3]
	}
	if att.Type == "" {
		att.Type = "file"
	}
	return att, true
}
