package internal

import (
	"testing"
)

func docWithMessages(title string, messages ...Message) *CanonicalDoc {
	return &CanonicalDoc{SchemaVersion: SchemaVersion, Metadata: Metadata{Title: title}, Messages: messages}
}

func TestDeduplicator_Deduplicate(t *testing.T) {
	hello := Message{Role: RoleUser, Content: "Hello"}
	bye := Message{Role: RoleUser, Content: "Goodbye"}

	tests := []struct {
		name       string
		docs       []*CanonicalDoc
		wantTitles []string
	}{
		{
			name: "empty",
			docs: []*CanonicalDoc{},
		},
		{
			name:       "no duplicates",
			docs:       []*CanonicalDoc{docWithMessages("a", hello), docWithMessages("b", bye)},
			wantTitles: []string{"a", "b"},
		},
		{
			name: "keeps the first of each group",
			docs: []*CanonicalDoc{
				docWithMessages("a", hello),
				docWithMessages("a-dup", hello),
				docWithMessages("b", bye),
				docWithMessages("a-dup2", hello),
			},
			wantTitles: []string{"a", "b"},
		},
		{
			name: "metadata is ignored",
			docs: []*CanonicalDoc{
				{Metadata: Metadata{Title: "x", Platform: "chatgpt"}, Messages: []Message{hello}},
				{Metadata: Metadata{Title: "y", Platform: "claude"}, Messages: []Message{hello}},
			},
			wantTitles: []string{"x"},
		},
		{
			name: "role matters",
			docs: []*CanonicalDoc{
				docWithMessages("user", hello),
				docWithMessages("assistant", Message{Role: RoleAssistant, Content: "Hello"}),
			},
			wantTitles: []string{"user", "assistant"},
		},
	}

	d := NewDeduplicator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Deduplicate(tt.docs)
			if len(got) != len(tt.wantTitles) {
				t.Fatalf("Deduplicate() returned %d docs, want %d", len(got), len(tt.wantTitles))
			}
			for i, doc := range got {
				if doc.Metadata.Title != tt.wantTitles[i] {
					t.Errorf("doc %d = %q, want %q", i, doc.Metadata.Title, tt.wantTitles[i])
				}
			}
		})
	}
}

func TestDeduplicator_Duplicates(t *testing.T) {
	d := NewDeduplicator()
	m := Message{Role: RoleUser, Content: "same"}
	docs := []*CanonicalDoc{docWithMessages("a", m), docWithMessages("b"), docWithMessages("c", m), docWithMessages("d")}

	got := d.Duplicates(docs)
	want := []int{2, 3}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Duplicates() = %v, want %v", got, want)
	}
}

func TestDeduplicator_ContentHash(t *testing.T) {
	d := NewDeduplicator()

	base := docWithMessages("a", Message{Role: RoleUser, Content: "ab"}, Message{Role: RoleUser, Content: "c"})
	shifted := docWithMessages("a", Message{Role: RoleUser, Content: "a"}, Message{Role: RoleUser, Content: "bc"})
	if d.ContentHash(base) == d.ContentHash(shifted) {
		t.Error("ContentHash() should separate message boundaries")
	}

	stamped := docWithMessages("a", Message{Role: RoleUser, Content: "ab", Timestamp: "2024-01-01T00:00:00Z"}, Message{Role: RoleUser, Content: "c"})
	if d.ContentHash(base) == d.ContentHash(stamped) {
		t.Error("ContentHash() should include timestamps")
	}

	if d.ContentHash(base) != d.ContentHash(base.Clone()) {
		t.Error("ContentHash() should be stable")
	}
}
