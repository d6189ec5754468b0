package internal

import (
	"testing"
)

func TestNewSessionView(t *testing.T) {
	inSession := func(id, content string) Message {
		m := Message{MessageID: content, Role: RoleUser, Content: content}
		if id != "" {
			m.PlatformSpecific = map[string]any{"session_id": id}
		}
		return m
	}

	tests := []struct {
		name     string
		messages []Message
		wantIDs  []string
		wantLens []int
	}{
		{
			name: "no messages",
		},
		{
			name:     "no session ids",
			messages: []Message{inSession("", "a"), inSession("", "b")},
			wantIDs:  []string{"session_1"},
			wantLens: []int{2},
		},
		{
			name:     "contiguous runs",
			messages: []Message{inSession("s1", "a"), inSession("s1", "b"), inSession("s2", "c")},
			wantIDs:  []string{"s1", "s2"},
			wantLens: []int{2, 1},
		},
		{
			name:     "returning to a session starts a new run",
			messages: []Message{inSession("s1", "a"), inSession("", "b"), inSession("s1", "c")},
			wantIDs:  []string{"s1", "session_2", "s1"},
			wantLens: []int{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &CanonicalDoc{SchemaVersion: SchemaVersion, Metadata: Metadata{Title: "T"}, Messages: tt.messages}
			view := NewSessionView(doc)

			if view.Metadata.Title != "T" || view.SchemaVersion != SchemaVersion {
				t.Errorf("view header not copied: %+v", view.Metadata)
			}
			if view.ChatSessions == nil {
				t.Fatal("ChatSessions should never be nil")
			}
			if len(view.ChatSessions) != len(tt.wantIDs) {
				t.Fatalf("got %d sessions, want %d", len(view.ChatSessions), len(tt.wantIDs))
			}
			total := 0
			for i, s := range view.ChatSessions {
				if s.SessionID != tt.wantIDs[i] {
					t.Errorf("session %d id = %q, want %q", i, s.SessionID, tt.wantIDs[i])
				}
				if len(s.Messages) != tt.wantLens[i] {
					t.Errorf("session %d has %d messages, want %d", i, len(s.Messages), tt.wantLens[i])
				}
				total += len(s.Messages)
			}
			if total != len(tt.messages) {
				t.Errorf("sessions hold %d messages, want %d", total, len(tt.messages))
			}
		})
	}
}
