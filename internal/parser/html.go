package parser

import (
	"regexp"
	"strings"

	"github.com/iksnae/chat-convert/internal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var htmlFormats = []internal.Format{internal.FormatHTML}

// metaPrefix names the <meta> tags the HTML renderer writes
const metaPrefix = "chat-convert:"

// roleClasses are the role tokens recognized as CSS classes on a message div
var roleClasses = []string{"user", "assistant", "system", "tool", "human", "ai", "bot", "claude", "chatgpt", "model"}

var textRoleMarker = regexp.MustCompile(`^([A-Za-z][A-Za-z ]{0,20}):\s*(.*)$`)

// HTMLClassParser reads messages from div.message elements carrying a role
// class or a data-role attribute
type HTMLClassParser struct{}

func (p *HTMLClassParser) Name() string               { return "html-class" }
func (p *HTMLClassParser) Formats() []internal.Format { return htmlFormats }

func (p *HTMLClassParser) CanHandle(in *Input) bool {
	doc, err := in.HTML()
	if err != nil {
		return false
	}
	return findFirst(doc, isMessageDiv) != nil
}

func (p *HTMLClassParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	doc, err := in.HTML()
	if err != nil {
		return nil, malformed(p, in, "parse html: %w", err)
	}

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	metas := metaTags(doc)
	m.ChatID = metas[metaPrefix+"chat-id"]
	m.Platform = metas[metaPrefix+"platform"]
	m.Exporter = metas[metaPrefix+"exporter"]
	if m.Exporter == "" {
		m.Exporter = in.Dialect
	}
	b.SetTime(&m.CreatedAt, metas[metaPrefix+"created-at"])
	b.SetTime(&m.UpdatedAt, metas[metaPrefix+"updated-at"])
	b.SetTime(&m.ExportedAt, metas[metaPrefix+"exported-at"])
	if tags := metas[metaPrefix+"tags"]; tags != "" {
		b.AddTags(strings.Split(tags, ",")...)
	}
	m.Title = documentTitle(doc)

	for _, div := range findAll(doc, isMessageDiv) {
		var content string
		if src := findFirst(div, hasClass("message-source")); src != nil {
			content = rawText(src)
		} else if body := findFirst(div, hasClass("content")); body != nil {
			content = blockText(body)
		} else {
			content = blockText(div)
		}

		var ps map[string]any
		if details := findFirst(div, hasClass("thinking")); details != nil {
			var thinking string
			if src := findFirst(details, hasClass("thinking-source")); src != nil {
				thinking = rawText(src)
			} else {
				thinking = blockText(details, atom.Summary)
			}
			if thinking = strings.TrimSpace(thinking); thinking != "" {
				ps = map[string]any{"thinking": thinking}
			}
		}

		timestamp := attr(div, "data-timestamp")
		if t := findFirst(div, isElement(atom.Time)); t != nil && timestamp == "" {
			timestamp = attr(t, "datetime")
		}

		b.AddMessage(internal.MessageInput{
			Role:             messageRole(div),
			Content:          strings.Trim(content, "\n"),
			Timestamp:        timestamp,
			Attachments:      htmlAttachments(div),
			PlatformSpecific: ps,
		})
	}
	return finish(b, in), nil
}

func isMessageDiv(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	if attr(n, "data-role") != "" {
		return true
	}
	classes := classList(n)
	if !containsString(classes, "message") {
		return false
	}
	for _, c := range classes {
		if containsString(roleClasses, c) {
			return true
		}
	}
	return false
}

func messageRole(div *html.Node) string {
	if role := attr(div, "data-role"); role != "" {
		return role
	}
	for _, c := range classList(div) {
		if containsString(roleClasses, c) {
			return c
		}
	}
	return ""
}

func htmlAttachments(div *html.Node) []internal.Attachment {
	var out []internal.Attachment
	for _, li := range findAll(div, hasClass("attachment")) {
		att := internal.Attachment{Type: attr(li, "data-type")}
		if a := findFirst(li, isElement(atom.A)); a != nil {
			att.URL = attr(a, "href")
			att.Name = strings.TrimSpace(rawText(a))
		} else if name := findFirst(li, hasClass("attachment-name")); name != nil {
			att.Name = strings.TrimSpace(rawText(name))
		} else {
			att.Name = strings.TrimSpace(rawText(li))
		}
		if att.Type == "" {
			att.Type = "file"
		}
		out = append(out, att)
	}
	return out
}

// HTMLTextParser reads HTML whose visible text marks turns with "Role:"
// prefixes, e.g. pages saved from a chat UI
type HTMLTextParser struct{}

func (p *HTMLTextParser) Name() string               { return "html-text" }
func (p *HTMLTextParser) Formats() []internal.Format { return htmlFormats }
func (p *HTMLTextParser) Fallback() bool             { return true }

func (p *HTMLTextParser) CanHandle(in *Input) bool {
	doc, err := in.HTML()
	if err != nil {
		return false
	}
	return hasLine(bodyText(doc), func(line string) bool {
		_, _, ok := textMarker(line)
		return ok
	})
}

func textMarker(line string) (role, rest string, ok bool) {
	m := textRoleMarker.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil || !internal.IsRoleToken(m[1]) {
		return "", "", false
	}
	return m[1], m[2], true
}

func (p *HTMLTextParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	doc, err := in.HTML()
	if err != nil {
		return nil, malformed(p, in, "parse html: %w", err)
	}

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.Title = documentTitle(doc)
	m.Exporter = in.Dialect
	if in.Dialect == internal.DialectSaveMyChatbot {
		m.Platform = "claude"
	}

	var current *turn
	var turns []*turn
	for _, line := range strings.Split(bodyText(doc), "\n") {
		if role, rest, ok := textMarker(line); ok {
			current = &turn{role: role}
			if rest != "" {
				current.lines = append(current.lines, rest)
			}
			turns = append(turns, current)
			continue
		}
		if current != nil {
			current.lines = append(current.lines, strings.TrimSpace(line))
		}
	}
	for _, t := range turns {
		b.AddMessage(internal.MessageInput{Role: t.role, Content: t.text()})
	}
	return finish(b, in), nil
}

// documentTitle prefers <title>, then the first <h1>
func documentTitle(doc *html.Node) string {
	if t := findFirst(doc, isElement(atom.Title)); t != nil {
		if s := strings.TrimSpace(rawText(t)); s != "" {
			return s
		}
	}
	if h := findFirst(doc, isElement(atom.H1)); h != nil {
		return strings.TrimSpace(rawText(h))
	}
	return ""
}

func metaTags(doc *html.Node) map[string]string {
	out := make(map[string]string)
	for _, n := range findAll(doc, isElement(atom.Meta)) {
		if name := attr(n, "name"); name != "" {
			out[name] = attr(n, "content")
		}
	}
	return out
}

func bodyText(doc *html.Node) string {
	if body := findFirst(doc, isElement(atom.Body)); body != nil {
		return blockText(body)
	}
	return blockText(doc)
}

// tree helpers

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && containsString(classList(n), class)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns matching nodes without descending into matches
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	if match(n) {
		return []*html.Node{n}
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, match)...)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func classList(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// rawText concatenates every text node under n
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Blockquote: true, atom.Ul: true, atom.Ol: true, atom.Section: true,
	atom.Article: true, atom.Header: true, atom.Footer: true, atom.Details: true, atom.Summary: true,
}

// blockText renders visible text with a line break around block elements.
// Script, style and any skip elements are left out.
func blockText(n *html.Node, skip ...atom.Atom) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			for _, a := range skip {
				if n.DataAtom == a {
					return
				}
			}
			if hasAttr(n, "hidden") {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteByte('\n')
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(n)

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
