package parser

import (
	"github.com/iksnae/chat-convert/internal"
)

// NativeExportParser reads the session-nested native export:
// {format_version, metadata, chat_sessions: [{session_id, messages}]}
type NativeExportParser struct{}

func (p *NativeExportParser) Name() string               { return internal.DialectNativeExport }
func (p *NativeExportParser) Formats() []internal.Format { return treeFormats }

func (p *NativeExportParser) CanHandle(in *Input) bool {
	obj, ok := in.Object()
	if !ok {
		return false
	}
	if _, ok := obj["format_version"]; !ok {
		return false
	}
	_, ok = list(obj, "chat_sessions")
	return ok
}

// Parse flattens the sessions in order, tagging each message with its
// session id
func (p *NativeExportParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	obj, _ := in.Object()
	sessions, _ := list(obj, "chat_sessions")

	b := internal.NewDocBuilder(in.Clock)
	meta, _ := object(obj, "metadata")
	m := b.Meta()
	m.ChatID = firstString(meta, "chat_id", "id")
	m.Title = firstString(meta, "title", "name")
	m.Platform = firstString(meta, "platform", "source")
	m.Exporter = firstString(meta, "exporter", "tool")
	if m.Exporter == "" {
		m.Exporter = "native-export " + str(obj, "format_version")
	}
	b.SetTime(&m.CreatedAt, meta["created_at"])
	b.SetTime(&m.UpdatedAt, meta["updated_at"])
	b.SetTime(&m.ExportedAt, firstValue(meta, obj, "exported_at", "export_date"))
	b.AddTags(stringList(meta, "tags")...)

	for si, raw := range sessions {
		session, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed(p, in, "chat_sessions[%d] is not an object", si)
		}
		messages, ok := list(session, "messages")
		if !ok {
			return nil, malformed(p, in, "chat_sessions[%d] has no messages list", si)
		}
		sessionID := firstString(session, "session_id", "id")
		for mi, rawMsg := range messages {
			msg, ok := rawMsg.(map[string]any)
			if !ok {
				return nil, malformed(p, in, "chat_sessions[%d].messages[%d] is not an object", si, mi)
			}
			ps := map[string]any{}
			if sessionID != "" {
				ps["session_id"] = sessionID
			}
			if extra, ok := object(msg, "platform_specific"); ok {
				for k, v := range extra {
					ps[k] = v
				}
			}
			content, _ := firstOf(msg, "content", "text")
			timestamp, _ := firstOf(msg, "timestamp", "created_at")
			atts, _ := list(msg, "attachments")
			b.AddMessage(internal.MessageInput{
				Role:             firstString(msg, "role", "sender", "author"),
				Content:          content,
				Timestamp:        timestamp,
				SourceID:         firstString(msg, "message_id", "id"),
				SourceParentID:   firstString(msg, "parent_message_id", "parent_id"),
				Attachments:      attachmentsFrom(atts),
				PlatformSpecific: ps,
			})
		}
	}
	return finish(b, in), nil
}

// firstValue returns the first key present in any of the objects, in order
func firstValue(primary, fallback map[string]any, keys ...string) any {
	for _, obj := range []map[string]any{primary, fallback} {
		if obj == nil {
			continue
		}
		if v, ok := firstOf(obj, keys...); ok {
			return v
		}
	}
	return nil
}
