package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/iksnae/chat-convert/internal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/chat.html.tmpl
var chatTemplate string

var htmlTemplate = template.Must(template.New("chat").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(chatTemplate))

// attachmentIcons maps attachment types to the icon shown next to them
var attachmentIcons = map[string]string{
	"image":    "🖼️",
	"file":     "📎",
	"document": "📄",
	"link":     "🔗",
	"code":     "💻",
	"audio":    "🎵",
	"video":    "🎬",
}

// HTMLExporter exports documents as a standalone HTML page. Message text is
// rendered from Markdown and its raw source is kept in a hidden <pre> so the
// html-class parser can read the page back.
type HTMLExporter struct {
	opts Options
	md   goldmark.Markdown
}

func newHTMLExporter(opts Options) *HTMLExporter {
	return &HTMLExporter{
		opts: opts,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type htmlPage struct {
	Meta            internal.Metadata
	IncludeMetadata bool
	Sections        []htmlSection
}

type htmlSection struct {
	Heading  string
	Anchor   string
	Messages []htmlMessage
}

type htmlMessage struct {
	ID           string
	Role         internal.Role
	Label        string
	Timestamp    string
	Content      string
	ContentHTML  template.HTML
	Thinking     string
	ThinkingHTML template.HTML
	Attachments  []htmlAttachment
}

type htmlAttachment struct {
	Type string
	Name string
	URL  string
	Icon string
}

// Export exports a document to HTML format
func (e *HTMLExporter) Export(doc *internal.CanonicalDoc, w io.Writer) error {
	page := htmlPage{
		Meta:            doc.Metadata,
		IncludeMetadata: e.opts.IncludeMetadata,
	}
	for _, s := range splitSections(doc.Messages, e.opts) {
		hs := htmlSection{Heading: s.Heading, Anchor: s.Anchor()}
		for _, msg := range s.Messages {
			hm, err := e.message(msg)
			if err != nil {
				return wrapExport("html", err)
			}
			hs.Messages = append(hs.Messages, hm)
		}
		page.Sections = append(page.Sections, hs)
	}

	return wrapExport("html", htmlTemplate.Execute(w, page))
}

func (e *HTMLExporter) message(msg internal.Message) (htmlMessage, error) {
	hm := htmlMessage{
		ID:        msg.MessageID,
		Role:      msg.Role,
		Label:     internal.RoleLabel(msg.Role),
		Timestamp: msg.Timestamp,
		Content:   msg.Content,
	}

	source := msg.Content
	if msg.Role == internal.RoleTool {
		source = internal.Fence("", msg.Content)
	}
	body, err := e.markdown(source)
	if err != nil {
		return hm, fmt.Errorf("message %s: %w", msg.MessageID, err)
	}
	hm.ContentHTML = body

	if thinking := msg.Thinking(); e.opts.IncludeThinking && thinking != "" {
		hm.Thinking = thinking
		if hm.ThinkingHTML, err = e.markdown(thinking); err != nil {
			return hm, fmt.Errorf("message %s thinking: %w", msg.MessageID, err)
		}
	}

	for _, att := range msg.Attachments {
		icon, ok := attachmentIcons[att.Type]
		if !ok {
			icon = attachmentIcons["file"]
		}
		hm.Attachments = append(hm.Attachments, htmlAttachment{
			Type: att.Type,
			Name: att.Name,
			URL:  att.URL,
			Icon: icon,
		})
	}
	return hm, nil
}

// markdown renders source with goldmark. Raw HTML in the source is omitted
// by goldmark's default renderer, so the result is safe to embed.
func (e *HTMLExporter) markdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
