package parser

import (
	"github.com/iksnae/chat-convert/internal"
)

// ClaudePlatformParser reads conversations from the Claude data export:
// {uuid, name, chat_messages: [{sender, text, content: [blocks]}]}
type ClaudePlatformParser struct{}

func (p *ClaudePlatformParser) Name() string               { return internal.DialectClaudePlatform }
func (p *ClaudePlatformParser) Formats() []internal.Format { return treeFormats }

func (p *ClaudePlatformParser) CanHandle(in *Input) bool {
	tree, err := in.Tree()
	if err != nil {
		return false
	}
	obj, _ := singleObject(tree)
	_, ok := list(obj, "chat_messages")
	return ok
}

func (p *ClaudePlatformParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	tree, _ := in.Tree()
	conv, n := singleObject(tree)
	if n > 1 {
		return nil, malformed(p, in, "export holds %d conversations, split it into one file per conversation", n)
	}
	messages, _ := list(conv, "chat_messages")

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.ChatID = firstString(conv, "uuid", "id")
	m.Title = firstString(conv, "name", "title")
	m.Platform = "claude"
	m.Exporter = internal.DialectClaudePlatform
	b.SetTime(&m.CreatedAt, conv["created_at"])
	b.SetTime(&m.UpdatedAt, conv["updated_at"])
	if project, ok := object(conv, "project"); ok {
		b.AddTags(str(project, "name"))
	}

	for i, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed(p, in, "chat_messages[%d] is not an object", i)
		}

		// content blocks are richer than the flat text field when present
		var extracted internal.BlockText
		if blocks, ok := list(msg, "content"); ok && len(blocks) > 0 {
			extracted = internal.ExtractContentBlocks(blocks)
		}
		if extracted.Text == "" {
			extracted.Text = internal.FlattenContent(msg["text"])
		}

		ps := map[string]any{}
		if extracted.Thinking != "" {
			ps["thinking"] = extracted.Thinking
		}

		atts, _ := list(msg, "attachments")
		files, _ := list(msg, "files")
		attachments := append(attachmentsFrom(atts), attachmentsFrom(files)...)

		b.AddMessage(internal.MessageInput{
			Role:             str(msg, "sender"),
			Content:          extracted.Text,
			Timestamp:        msg["created_at"],
			SourceID:         firstString(msg, "uuid", "id"),
			SourceParentID:   str(msg, "parent_message_uuid"),
			Attachments:      attachments,
			PlatformSpecific: ps,
		})
	}
	return finish(b, in), nil
}

// ClaudeExporterParser reads browser-extension exports that stamp
// metadata.export_date / export_time
type ClaudeExporterParser struct{}

func (p *ClaudeExporterParser) Name() string               { return internal.DialectClaudeExporter }
func (p *ClaudeExporterParser) Formats() []internal.Format { return treeFormats }

func (p *ClaudeExporterParser) CanHandle(in *Input) bool {
	obj, ok := in.Object()
	if !ok {
		return false
	}
	meta, ok := object(obj, "metadata")
	if !ok {
		return false
	}
	_, hasDate := meta["export_date"]
	_, hasTime := meta["export_time"]
	if !hasDate && !hasTime {
		return false
	}
	_, ok = list(obj, "messages")
	return ok
}

func (p *ClaudeExporterParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	obj, _ := in.Object()
	messages, _ := list(obj, "messages")
	meta, _ := object(obj, "metadata")

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.ChatID = firstString(meta, "chat_id", "conversation_id", "id")
	if m.ChatID == "" {
		m.ChatID = chatIDFromLink(str(meta, "link"))
	}
	m.Title = firstString(meta, "title", "name")
	m.Platform = firstString(meta, "platform")
	if m.Platform == "" {
		m.Platform = "claude"
	}
	m.Exporter = firstString(meta, "exporter", "powered_by")
	if m.Exporter == "" {
		m.Exporter = internal.DialectClaudeExporter
	}
	b.SetTime(&m.ExportedAt, exportStamp(meta))
	if dates, ok := object(meta, "dates"); ok {
		b.SetTime(&m.CreatedAt, dates["created"])
		b.SetTime(&m.UpdatedAt, dates["updated"])
	}
	b.AddTags(stringList(meta, "tags")...)

	for i, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed(p, in, "messages[%d] is not an object", i)
		}
		content, _ := firstOf(msg, "say", "content", "text")
		extracted := internal.ExtractContentBlocks(content)
		ps := map[string]any{}
		if extracted.Thinking != "" {
			ps["thinking"] = extracted.Thinking
		}
		timestamp, _ := firstOf(msg, "timestamp", "time", "created_at")
		atts, _ := list(msg, "attachments")
		b.AddMessage(internal.MessageInput{
			Role:             firstString(msg, "role", "sender", "author"),
			Content:          extracted.Text,
			Timestamp:        timestamp,
			Attachments:      attachmentsFrom(atts),
			PlatformSpecific: ps,
		})
	}
	return finish(b, in), nil
}

// exportStamp joins split export_date and export_time fields
func exportStamp(meta map[string]any) any {
	date, clock := str(meta, "export_date"), str(meta, "export_time")
	switch {
	case date != "" && clock != "":
		return date + " " + clock
	case date != "":
		return date
	case clock != "":
		// a bare time of day is not a timestamp
		return nil
	}
	return meta["export_date"]
}
