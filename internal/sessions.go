package internal

import "fmt"

// ChatSession is one run of messages sharing a source session
type ChatSession struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	Messages  []Message `json:"messages" yaml:"messages"`
}

// SessionView is the nested {metadata, chat_sessions} projection of a
// canonical document. It is derived for output only and never parsed back
// as a model of its own.
type SessionView struct {
	SchemaVersion string        `json:"schema_version" yaml:"schema_version"`
	Metadata      Metadata      `json:"metadata" yaml:"metadata"`
	ChatSessions  []ChatSession `json:"chat_sessions" yaml:"chat_sessions"`
}

// NewSessionView groups contiguous messages by platform_specific.session_id.
// Runs without a session id are numbered session_<n>.
func NewSessionView(doc *CanonicalDoc) SessionView {
	view := SessionView{
		SchemaVersion: doc.SchemaVersion,
		Metadata:      doc.Metadata,
		ChatSessions:  []ChatSession{},
	}

	var current *ChatSession
	currentKey := ""
	for _, msg := range doc.Messages {
		key := msg.SessionID()
		if current == nil || key != currentKey {
			id := key
			if id == "" {
				id = fmt.Sprintf("session_%d", len(view.ChatSessions)+1)
			}
			view.ChatSessions = append(view.ChatSessions, ChatSession{SessionID: id})
			current = &view.ChatSessions[len(view.ChatSessions)-1]
			currentKey = key
		}
		current.Messages = append(current.Messages, msg)
	}
	return view
}
