package internal

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	untitledConversation = "Untitled Conversation"
	maxDerivedTitleRunes = 60
)

// chatIDNamespace seeds the deterministic ids of chats whose source has none
var chatIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/iksnae/chat-convert/chat"))

// MessageInput is one source message as a parser found it
type MessageInput struct {
	Role             string
	Content          any
	Timestamp        any
	SourceID         string
	SourceParentID   string
	Attachments      []Attachment
	PlatformSpecific map[string]any
}

// DocBuilder assembles a CanonicalDoc from source messages, applying the
// shared normalization rules
type DocBuilder struct {
	clock     Clock
	meta      Metadata
	messages  []Message
	sourceIDs map[string]string
	warnings  []string
}

// NewDocBuilder creates a builder that uses clock for timestamp fallbacks
func NewDocBuilder(clock Clock) *DocBuilder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DocBuilder{
		clock:     clock,
		sourceIDs: make(map[string]string),
	}
}

// Meta exposes the metadata under construction
func (b *DocBuilder) Meta() *Metadata {
	return &b.meta
}

// SetTime normalizes a source timestamp into a metadata field. Absent values
// leave the field untouched.
func (b *DocBuilder) SetTime(field *string, v any) {
	if isEmptyTimestamp(v) {
		return
	}
	ts, ok := NormalizeTimestamp(v, b.clock)
	if !ok {
		b.Warnf("unparseable metadata timestamp %v, using current time", v)
	}
	*field = ts
}

// AddTags adds tags to the metadata tag set
func (b *DocBuilder) AddTags(tags ...string) {
	b.meta.Tags = append(b.meta.Tags, tags...)
}

// Warnf records a non-fatal normalization problem
func (b *DocBuilder) Warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns everything recorded by Warnf
func (b *DocBuilder) Warnings() []string {
	return b.warnings
}

// Len returns the number of messages added so far
func (b *DocBuilder) Len() int {
	return len(b.messages)
}

// AddMessage normalizes and appends a message, returning its canonical id
func (b *DocBuilder) AddMessage(in MessageInput) string {
	id := fmt.Sprintf("msg_%d", len(b.messages)+1)
	msg := Message{
		MessageID:        id,
		Role:             NormalizeRole(in.Role),
		Content:          FlattenContent(in.Content),
		Attachments:      in.Attachments,
		PlatformSpecific: maps.Clone(in.PlatformSpecific),
	}
	if len(msg.PlatformSpecific) == 0 {
		msg.PlatformSpecific = nil
	}

	if !isEmptyTimestamp(in.Timestamp) {
		ts, ok := NormalizeTimestamp(in.Timestamp, b.clock)
		if !ok {
			b.Warnf("%s: unparseable timestamp %v, using current time", id, in.Timestamp)
		}
		msg.Timestamp = ts
	}

	switch {
	case in.SourceParentID != "":
		if parent, ok := b.sourceIDs[in.SourceParentID]; ok {
			msg.ParentMessageID = parent
		} else {
			msg.ParentMessageID = in.SourceParentID
		}
	case len(b.messages) > 0:
		msg.ParentMessageID = b.messages[len(b.messages)-1].MessageID
	}

	if in.SourceID != "" {
		b.sourceIDs[in.SourceID] = id
		if msg.PlatformSpecific == nil {
			msg.PlatformSpecific = make(map[string]any)
		}
		msg.PlatformSpecific["source_id"] = in.SourceID
	}

	b.messages = append(b.messages, msg)
	return id
}

// Build finalizes derived metadata and returns the document
func (b *DocBuilder) Build() *CanonicalDoc {
	doc := &CanonicalDoc{
		SchemaVersion: SchemaVersion,
		Metadata:      b.meta,
		Messages:      b.messages,
	}
	if doc.Messages == nil {
		doc.Messages = []Message{}
	}
	meta := &doc.Metadata

	if meta.Title == "" {
		meta.Title = deriveTitle(doc.Messages)
	}
	if meta.Platform == "" {
		meta.Platform = "unknown"
	}
	if meta.CreatedAt == "" {
		meta.CreatedAt = firstTimestamp(doc.Messages)
	}
	if meta.UpdatedAt == "" {
		meta.UpdatedAt = lastTimestamp(doc.Messages)
	}
	meta.Tags = tagSet(meta.Tags)
	if meta.ChatID == "" {
		meta.ChatID = deriveChatID(meta.Title, doc.Messages)
	}
	doc.RefreshStatistics()
	return doc
}

func firstTimestamp(messages []Message) string {
	for _, msg := range messages {
		if msg.Timestamp != "" {
			return msg.Timestamp
		}
	}
	return ""
}

func lastTimestamp(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Timestamp != "" {
			return messages[i].Timestamp
		}
	}
	return ""
}

func deriveTitle(messages []Message) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(msg.Content), "\n", 2)[0])
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxDerivedTitleRunes {
			line = string([]rune(line)[:maxDerivedTitleRunes]) + "..."
		}
		return line
	}
	return untitledConversation
}

func deriveChatID(title string, messages []Message) string {
	var sb strings.Builder
	sb.WriteString(title)
	for _, msg := range messages {
		sb.WriteByte(0)
		sb.WriteString(string(msg.Role))
		sb.WriteByte(0)
		sb.WriteString(msg.Content)
	}
	return uuid.NewSHA1(chatIDNamespace, []byte(sb.String())).String()
}

// tagSet returns the sorted, de-duplicated, non-empty tags
func tagSet(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
