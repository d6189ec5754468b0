package testutil

// Sample exports, one per supported dialect. Each holds a short two or three
// turn conversation so tests can assert on exact roles and contents.

// CanonicalJSON is a chat_history v2.0 document
const CanonicalJSON = `{
  "schema_version": "2.0",
  "metadata": {
    "chat_id": "c-123",
    "title": "Canonical chat",
    "platform": "claude",
    "exporter": "chat-convert",
    "created_at": "2024-03-01T10:00:00Z",
    "updated_at": "2024-03-01T10:01:00Z",
    "tags": ["demo"],
    "statistics": {"message_count": 2, "word_count": 3, "token_count": 4, "duration_seconds": 60}
  },
  "messages": [
    {"message_id": "msg_1", "role": "user", "content": "Hi there", "timestamp": "2024-03-01T10:00:00Z"},
    {"message_id": "msg_2", "role": "assistant", "content": "Hello!", "timestamp": "2024-03-01T10:01:00Z", "parent_message_id": "msg_1"}
  ]
}`

// CanonicalYAML is the YAML form of a v2.0 document with an unquoted version
const CanonicalYAML = `schema_version: 2.0
metadata:
  chat_id: y-1
  title: YAML chat
  platform: chatgpt
  exporter: chat-convert
  tags: []
  statistics:
    message_count: 1
    word_count: 1
    token_count: 2
    duration_seconds: 0
messages:
  - message_id: msg_1
    role: user
    content: Ping
`

// NativeExportJSON nests messages under chat_sessions
const NativeExportJSON = `{
  "format_version": "1.0",
  "metadata": {"chat_id": "n-1", "title": "Native", "platform": "claude", "exported_at": "2024-02-02T08:00:00Z"},
  "chat_sessions": [
    {"session_id": "s1", "messages": [
      {"role": "user", "content": "First question", "timestamp": 1706860800},
      {"role": "assistant", "content": "First answer", "timestamp": 1706860810}
    ]},
    {"session_id": "s2", "messages": [
      {"role": "user", "content": "Second question", "timestamp": 1706947200000}
    ]}
  ]
}`

// ChatGPTOfficialJSON is one conversation from conversations.json with an
// abandoned branch
const ChatGPTOfficialJSON = `[{
  "title": "Tree chat",
  "conversation_id": "conv-9",
  "create_time": 1700000000.5,
  "update_time": 1700000100,
  "current_node": "n3",
  "mapping": {
    "root": {"id": "root", "parent": null, "children": ["n1"], "message": null},
    "n1": {"id": "n1", "parent": "root", "children": ["n2", "n2b"], "message": {
      "id": "n1", "author": {"role": "user"}, "create_time": 1700000000,
      "content": {"content_type": "text", "parts": ["What is Go?"]}}},
    "n2b": {"id": "n2b", "parent": "n1", "children": [], "message": {
      "id": "n2b", "author": {"role": "assistant"}, "create_time": 1700000005,
      "content": {"content_type": "text", "parts": ["Abandoned answer"]}}},
    "n2": {"id": "n2", "parent": "n1", "children": ["n3"], "message": {
      "id": "n2", "author": {"role": "assistant"}, "create_time": 1700000010,
      "metadata": {"model_slug": "gpt-4o"},
      "content": {"content_type": "text", "parts": ["A programming language."]}}},
    "n3": {"id": "n3", "parent": "n2", "children": [], "message": {
      "id": "n3", "author": {"role": "user"}, "create_time": 1700000020,
      "content": {"content_type": "text", "parts": ["Thanks"]}}}
  }
}]`

// ClaudePlatformJSON is one conversation from the Claude data export
const ClaudePlatformJSON = `{
  "uuid": "cl-1",
  "name": "Claude chat",
  "created_at": "2024-04-01T09:00:00.000000Z",
  "updated_at": "2024-04-01T09:05:00.000000Z",
  "chat_messages": [
    {"uuid": "m1", "sender": "human", "text": "Summarize this", "created_at": "2024-04-01T09:00:00Z",
     "attachments": [{"file_name": "notes.txt", "file_type": "text/plain", "extracted_content": "notes"}]},
    {"uuid": "m2", "sender": "assistant", "created_at": "2024-04-01T09:05:00Z", "parent_message_uuid": "m1",
     "content": [
       {"type": "thinking", "thinking": "The user wants a summary."},
       {"type": "text", "text": "Here is the summary."}
     ]}
  ]
}`

// ClaudeExporterJSON is written by a browser extension with split export stamps
const ClaudeExporterJSON = `{
  "metadata": {"title": "Extension chat", "export_date": "2024-05-05", "export_time": "14:30:00", "link": "https://claude.ai/chat/abc-123"},
  "messages": [
    {"role": "Prompt", "say": "Hello Claude"},
    {"role": "Response", "say": "Hello human"}
  ]
}`

// ChatGPTExporterJSON is written by the "ChatGPT Exporter" extension
const ChatGPTExporterJSON = `{
  "metadata": {
    "title": "Exporter chat",
    "link": "https://chatgpt.com/c/6650a",
    "dates": {"created": "05/20/2024 at 10:00 AM", "updated": "05/20/2024 at 10:05 AM", "exported": "05/21/2024 at 08:00 PM"},
    "powered_by": "ChatGPT Exporter (https://www.chatgptexporter.com)"
  },
  "messages": [
    {"role": "Prompt", "say": "Write a haiku"},
    {"role": "Response", "say": "Gophers in the field\nchannels hum in quiet sync\ngoroutines rest"}
  ]
}`

// GenericJSON is the minimal messages-only shape
const GenericJSON = `{"messages":[{"role":"user","content":"Hi"},{"role":"assistant","content":"Hello!"}]}`

// ExporterMarkdown is the Markdown written by the "ChatGPT Exporter" extension
const ExporterMarkdown = `# Exporter chat

**User:** someone
**Created:** 5/20/2024 10:00:00
**Link:** [https://chatgpt.com/c/6650a](https://chatgpt.com/c/6650a)

## Prompt:
Write a haiku

## Response:
Gophers in the field

---

Powered by [ChatGPT Exporter](https://www.chatgptexporter.com)
`

// HeadingsMarkdown marks turns with role headings
const HeadingsMarkdown = "## User\nHello\n## Assistant\nHi there"

// BoldMarkdown marks turns with bold role labels
const BoldMarkdown = `# Bold chat

**User:** What time is it?

**Assistant:**
Time to write Go.
`

// ClassHTML marks messages with role classes
const ClassHTML = `<!DOCTYPE html>
<html><head><title>Class chat</title></head>
<body>
<div class="message user"><div class="content"><p>Hello from HTML</p></div></div>
<div class="message assistant" data-timestamp="2024-06-01T12:00:00Z"><div class="content"><p>Hi!</p><p>Second paragraph.</p></div></div>
</body></html>`

// TextHTML is a saved chat page with plain "Role:" markers
const TextHTML = `<html><head><title>Saved page</title><style>p { color: red }</style></head>
<body>
<p>User: How do I exit vim?</p>
<p>Assistant: Type :q and press enter.</p>
<p>It works in every mode after Escape.</p>
</body></html>`
