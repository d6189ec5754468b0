package parser

import (
	"slices"
	"strings"

	"github.com/iksnae/chat-convert/internal"
)

// ChatGPTOfficialParser reads conversations from the official ChatGPT data
// export, where messages form a tree under "mapping" and "current_node"
// marks the leaf of the branch the user last saw
type ChatGPTOfficialParser struct{}

func (p *ChatGPTOfficialParser) Name() string               { return internal.DialectChatGPTOfficial }
func (p *ChatGPTOfficialParser) Formats() []internal.Format { return treeFormats }

func (p *ChatGPTOfficialParser) CanHandle(in *Input) bool {
	tree, err := in.Tree()
	if err != nil {
		return false
	}
	obj, _ := singleObject(tree)
	_, ok := object(obj, "mapping")
	return ok
}

func (p *ChatGPTOfficialParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	tree, _ := in.Tree()
	conv, n := singleObject(tree)
	if n > 1 {
		return nil, malformed(p, in, "export holds %d conversations, split it into one file per conversation", n)
	}
	mapping, _ := object(conv, "mapping")

	path, err := activeBranch(mapping, str(conv, "current_node"))
	if err != nil {
		return nil, malformed(p, in, "%w", err)
	}

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.ChatID = firstString(conv, "conversation_id", "id")
	m.Title = str(conv, "title")
	m.Platform = "chatgpt"
	m.Exporter = internal.DialectChatGPTOfficial
	b.SetTime(&m.CreatedAt, conv["create_time"])
	b.SetTime(&m.UpdatedAt, conv["update_time"])

	for _, node := range path {
		msg, ok := object(node, "message")
		if !ok {
			continue
		}
		msgMeta, _ := object(msg, "metadata")
		if hidden, _ := msgMeta["is_visually_hidden_from_conversation"].(bool); hidden {
			continue
		}
		author, _ := object(msg, "author")
		role := str(author, "role")
		text := officialContent(msg["content"])
		if strings.TrimSpace(text) == "" && (role == "system" || role == "") {
			continue
		}

		ps := map[string]any{}
		if name := str(author, "name"); name != "" {
			ps["author_name"] = name
		}
		if slug := str(msgMeta, "model_slug"); slug != "" {
			ps["model"] = slug
		}
		b.AddMessage(internal.MessageInput{
			Role:             role,
			Content:          text,
			Timestamp:        msg["create_time"],
			SourceID:         firstString(msg, "id"),
			PlatformSpecific: ps,
		})
	}
	return finish(b, in), nil
}

// officialContent flattens the {content_type, parts|text} content object
func officialContent(v any) string {
	content, ok := v.(map[string]any)
	if !ok {
		return internal.FlattenContent(v)
	}
	if parts, ok := list(content, "parts"); ok {
		texts := make([]string, 0, len(parts))
		for _, part := range parts {
			// image and file pointers carry no text
			if m, ok := part.(map[string]any); ok {
				if _, hasText := m["text"]; !hasText {
					continue
				}
			}
			texts = append(texts, internal.FlattenContent(part))
		}
		return strings.Join(texts, "\n")
	}
	return internal.FlattenContent(content)
}

// activeBranch returns the mapping nodes from the root to leaf, following
// parent links up from leaf. Without a leaf the first child is followed down
// from the root.
func activeBranch(mapping map[string]any, leaf string) ([]map[string]any, error) {
	node := func(id string) map[string]any {
		n, _ := mapping[id].(map[string]any)
		return n
	}

	if leaf == "" || node(leaf) == nil {
		var roots []string
		for id := range mapping {
			if n := node(id); n != nil && str(n, "parent") == "" {
				roots = append(roots, id)
			}
		}
		if len(roots) == 0 {
			return nil, errNoRoot
		}
		slices.Sort(roots)
		leaf = roots[0]
		visited := map[string]bool{}
		for {
			visited[leaf] = true
			children, _ := list(node(leaf), "children")
			if len(children) == 0 {
				break
			}
			next := internal.FlattenContent(children[0])
			if visited[next] || node(next) == nil {
				break
			}
			leaf = next
		}
	}

	var path []map[string]any
	visited := map[string]bool{}
	for id := leaf; id != ""; id = str(node(id), "parent") {
		if visited[id] {
			return nil, errCycle
		}
		visited[id] = true
		n := node(id)
		if n == nil {
			break
		}
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// ChatGPTExporterParser reads the JSON written by the "ChatGPT Exporter"
// browser extension: messages[].say with Prompt/Response roles
type ChatGPTExporterParser struct{}

func (p *ChatGPTExporterParser) Name() string               { return internal.DialectChatGPTExporter }
func (p *ChatGPTExporterParser) Formats() []internal.Format { return treeFormats }

func (p *ChatGPTExporterParser) CanHandle(in *Input) bool {
	obj, ok := in.Object()
	if !ok {
		return false
	}
	messages, ok := list(obj, "messages")
	if !ok || len(messages) == 0 {
		return false
	}
	first, ok := messages[0].(map[string]any)
	if !ok {
		return false
	}
	_, ok = first["say"]
	return ok
}

func (p *ChatGPTExporterParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	obj, _ := in.Object()
	messages, _ := list(obj, "messages")
	meta, _ := object(obj, "metadata")
	dates, _ := object(meta, "dates")

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.Title = str(meta, "title")
	m.Platform = "chatgpt"
	m.Exporter = firstString(meta, "powered_by")
	if m.Exporter == "" {
		m.Exporter = internal.DialectChatGPTExporter
	}
	m.ChatID = chatIDFromLink(str(meta, "link"))
	b.SetTime(&m.CreatedAt, dates["created"])
	b.SetTime(&m.UpdatedAt, dates["updated"])
	b.SetTime(&m.ExportedAt, dates["exported"])

	for i, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed(p, in, "messages[%d] is not an object", i)
		}
		timestamp, _ := firstOf(msg, "time", "timestamp")
		b.AddMessage(internal.MessageInput{
			Role:      str(msg, "role"),
			Content:   msg["say"],
			Timestamp: timestamp,
		})
	}
	return finish(b, in), nil
}

// chatIDFromLink takes the conversation id from a share or chat URL
func chatIDFromLink(link string) string {
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 && i < len(link)-1 {
		return link[i+1:]
	}
	return ""
}
