package internal

import (
	"testing"
)

func TestIsSchemaVersion(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"string", "2.0", true},
		{"yaml float", 2.0, true},
		{"yaml int", 2, true},
		{"older", "1.0", false},
		{"other float", 2.1, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSchemaVersion(tt.v); got != tt.want {
				t.Errorf("IsSchemaVersion(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem, RoleTool} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Role{"", "human", "User"} {
		if r.Valid() {
			t.Errorf("%q should not be valid", r)
		}
	}
}

func TestMessage_PlatformAccessors(t *testing.T) {
	msg := Message{PlatformSpecific: map[string]any{"thinking": "hmm", "session_id": "s1"}}
	if msg.Thinking() != "hmm" {
		t.Errorf("Thinking() = %q, want hmm", msg.Thinking())
	}
	if msg.SessionID() != "s1" {
		t.Errorf("SessionID() = %q, want s1", msg.SessionID())
	}

	var empty Message
	if empty.Thinking() != "" || empty.SessionID() != "" {
		t.Error("accessors should be empty without platform_specific")
	}

	wrongType := Message{PlatformSpecific: map[string]any{"thinking": 42}}
	if wrongType.Thinking() != "" {
		t.Error("non-string thinking should be ignored")
	}
}

func TestCanonicalDoc_Clone(t *testing.T) {
	doc := &CanonicalDoc{
		SchemaVersion: SchemaVersion,
		Metadata: Metadata{
			Tags:     []string{"a"},
			Chunking: &ChunkingInfo{TotalChunks: 1, ChunkMetadata: []ChunkDescriptor{{ChunkID: "chunk_1"}}},
		},
		Messages: []Message{{
			MessageID:        "msg_1",
			Content:          "hi",
			Attachments:      []Attachment{{Name: "f"}},
			PlatformSpecific: map[string]any{"k": "v"},
		}},
	}

	clone := doc.Clone()
	clone.Metadata.Tags[0] = "changed"
	clone.Metadata.Chunking.ChunkMetadata[0].ChunkID = "changed"
	clone.Messages[0].Content = "changed"
	clone.Messages[0].Attachments[0].Name = "changed"
	clone.Messages[0].PlatformSpecific["k"] = "changed"

	if doc.Metadata.Tags[0] != "a" ||
		doc.Metadata.Chunking.ChunkMetadata[0].ChunkID != "chunk_1" ||
		doc.Messages[0].Content != "hi" ||
		doc.Messages[0].Attachments[0].Name != "f" ||
		doc.Messages[0].PlatformSpecific["k"] != "v" {
		t.Errorf("Clone() shares state with the original: %+v", doc)
	}

	var nilDoc *CanonicalDoc
	if nilDoc.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

func TestCanonicalDoc_RefreshStatistics(t *testing.T) {
	doc := &CanonicalDoc{Messages: []Message{
		{Role: RoleUser, Content: "one two", Timestamp: "2024-01-01T00:00:00Z"},
		{Role: RoleAssistant, Content: "three", Timestamp: "2024-01-01T00:01:30Z"},
	}}
	doc.RefreshStatistics()

	want := Statistics{MessageCount: 2, WordCount: 3, TokenCount: 4, DurationSeconds: 90}
	if doc.Metadata.Statistics != want {
		t.Errorf("statistics = %+v, want %+v", doc.Metadata.Statistics, want)
	}
}
