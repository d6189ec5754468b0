package parser

import (
	"github.com/iksnae/chat-convert/internal"
)

var (
	genericRoleKeys      = []string{"role", "author", "sender", "from", "speaker", "type"}
	genericContentKeys   = []string{"content", "text", "message", "body", "value"}
	genericTimestampKeys = []string{"timestamp", "time", "created_at", "create_time", "date"}
)

// GenericJSONParser is the fallback for any object with a messages list
type GenericJSONParser struct{}

func (p *GenericJSONParser) Name() string               { return internal.DialectGenericJSON }
func (p *GenericJSONParser) Formats() []internal.Format { return treeFormats }
func (p *GenericJSONParser) Fallback() bool             { return true }

func (p *GenericJSONParser) CanHandle(in *Input) bool {
	obj, ok := in.Object()
	if !ok {
		return false
	}
	_, ok = list(obj, "messages")
	return ok
}

func (p *GenericJSONParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	obj, _ := in.Object()
	messages, _ := list(obj, "messages")
	meta, ok := object(obj, "metadata")
	if !ok {
		meta = obj
	}

	b := internal.NewDocBuilder(in.Clock)
	m := b.Meta()
	m.ChatID = firstString(meta, "chat_id", "conversation_id", "id")
	m.Title = firstString(meta, "title", "name")
	m.Platform = firstString(meta, "platform", "source", "model")
	m.Exporter = firstString(meta, "exporter")
	if m.Exporter == "" {
		m.Exporter = internal.DialectGenericJSON
	}
	b.SetTime(&m.CreatedAt, meta["created_at"])
	b.SetTime(&m.UpdatedAt, meta["updated_at"])
	b.SetTime(&m.ExportedAt, meta["exported_at"])
	b.AddTags(stringList(meta, "tags")...)

	for i, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed(p, in, "messages[%d] is not an object", i)
		}
		role := roleField(msg)
		content, _ := firstOf(msg, genericContentKeys...)
		timestamp, _ := firstOf(msg, genericTimestampKeys...)
		atts, _ := list(msg, "attachments")
		ps, _ := object(msg, "platform_specific")
		b.AddMessage(internal.MessageInput{
			Role:             role,
			Content:          content,
			Timestamp:        timestamp,
			SourceID:         firstString(msg, "id", "message_id", "uuid"),
			SourceParentID:   firstString(msg, "parent_id", "parent_message_id", "parent"),
			Attachments:      attachmentsFrom(atts),
			PlatformSpecific: ps,
		})
	}
	return finish(b, in), nil
}

// roleField reads the role, which some exporters nest as author.role
func roleField(msg map[string]any) string {
	for _, k := range genericRoleKeys {
		switch v := msg[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if r := firstString(v, "role", "name"); r != "" {
				return r
			}
		}
	}
	return ""
}
