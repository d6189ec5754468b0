package internal

// SchemaVersion is the version tag every canonical document carries
const SchemaVersion = "2.0"

// IsSchemaVersion reports whether a decoded schema_version value names v2.0.
// Unquoted YAML decodes 2.0 as a number.
func IsSchemaVersion(v any) bool {
	switch t := v.(type) {
	case string:
		return t == SchemaVersion
	case float64:
		return t == 2.0
	case int:
		return t == 2
	}
	return false
}

// Role is one of the four canonical message roles
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether r is a canonical role
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// CanonicalDoc is the chat_history v2.0 document all parsers produce and all
// renderers consume. Messages keep source order and are never reordered.
type CanonicalDoc struct {
	SchemaVersion string    `json:"schema_version" yaml:"schema_version"`
	Metadata      Metadata  `json:"metadata" yaml:"metadata"`
	Messages      []Message `json:"messages" yaml:"messages"`
}

// Metadata describes a conversation
type Metadata struct {
	ChatID     string        `json:"chat_id" yaml:"chat_id"`
	Title      string        `json:"title" yaml:"title"`
	Platform   string        `json:"platform" yaml:"platform"`
	Exporter   string        `json:"exporter" yaml:"exporter"`
	CreatedAt  string        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt  string        `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	ExportedAt string        `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	Tags       []string      `json:"tags" yaml:"tags"`
	Statistics Statistics    `json:"statistics" yaml:"statistics"`
	Chunking   *ChunkingInfo `json:"chunking,omitempty" yaml:"chunking,omitempty"`
}

// Statistics is derived from the message list and never edited by hand
type Statistics struct {
	MessageCount    int   `json:"message_count" yaml:"message_count"`
	WordCount       int   `json:"word_count" yaml:"word_count"`
	TokenCount      int   `json:"token_count" yaml:"token_count"`
	DurationSeconds int64 `json:"duration_seconds" yaml:"duration_seconds"`
}

// Message is a single conversation turn
type Message struct {
	MessageID        string         `json:"message_id" yaml:"message_id"`
	Role             Role           `json:"role" yaml:"role"`
	Content          string         `json:"content" yaml:"content"`
	Timestamp        string         `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	ParentMessageID  string         `json:"parent_message_id,omitempty" yaml:"parent_message_id,omitempty"`
	Attachments      []Attachment   `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	PlatformSpecific map[string]any `json:"platform_specific,omitempty" yaml:"platform_specific,omitempty"`
}

// Attachment is a file, image or link attached to a message
type Attachment struct {
	Type    string `json:"type" yaml:"type"`
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ChunkingInfo is written to metadata.chunking by the Chunker
type ChunkingInfo struct {
	Strategy       string            `json:"strategy" yaml:"strategy"`
	TargetSize     int               `json:"target_size" yaml:"target_size"`
	ThresholdRatio float64           `json:"threshold_ratio" yaml:"threshold_ratio"`
	TotalChunks    int               `json:"total_chunks" yaml:"total_chunks"`
	ChunkMetadata  []ChunkDescriptor `json:"chunk_metadata" yaml:"chunk_metadata"`
}

// ChunkDescriptor describes one contiguous, inclusive range of messages
type ChunkDescriptor struct {
	ChunkID        string         `json:"chunk_id" yaml:"chunk_id"`
	SequenceNumber int            `json:"sequence_number" yaml:"sequence_number"`
	MessageRange   [2]int         `json:"message_range" yaml:"message_range"`
	TokenCount     int            `json:"token_count" yaml:"token_count"`
	TimestampRange TimestampRange `json:"timestamp_range" yaml:"timestamp_range"`
}

// TimestampRange holds the first and last member timestamps of a chunk
type TimestampRange struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Thinking returns the reasoning text a parser stored for the message, if any
func (m Message) Thinking() string {
	if m.PlatformSpecific == nil {
		return ""
	}
	if s, ok := m.PlatformSpecific["thinking"].(string); ok {
		return s
	}
	return ""
}

// SessionID returns the source session a message was flattened from, if any
func (m Message) SessionID() string {
	if m.PlatformSpecific == nil {
		return ""
	}
	if s, ok := m.PlatformSpecific["session_id"].(string); ok {
		return s
	}
	return ""
}

// RefreshStatistics recomputes metadata.statistics from the message list
func (d *CanonicalDoc) RefreshStatistics() {
	d.Metadata.Statistics = ComputeStatistics(d.Messages)
}

// Clone returns a deep copy of the document's slices and maps so callers can
// hand documents to code that may mutate them
func (d *CanonicalDoc) Clone() *CanonicalDoc {
	if d == nil {
		return nil
	}
	out := *d
	out.Metadata.Tags = append([]string(nil), d.Metadata.Tags...)
	if d.Metadata.Chunking != nil {
		c := *d.Metadata.Chunking
		c.ChunkMetadata = append([]ChunkDescriptor(nil), d.Metadata.Chunking.ChunkMetadata...)
		out.Metadata.Chunking = &c
	}
	out.Messages = make([]Message, len(d.Messages))
	for i, msg := range d.Messages {
		msg.Attachments = append([]Attachment(nil), msg.Attachments...)
		if msg.PlatformSpecific != nil {
			ps := make(map[string]any, len(msg.PlatformSpecific))
			for k, v := range msg.PlatformSpecific {
				ps[k] = v
			}
			msg.PlatformSpecific = ps
		}
		out.Messages[i] = msg
	}
	return &out
}
