package parser

import (
	"testing"

	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLClassParser(t *testing.T) {
	doc := parseWith(t, &HTMLClassParser{}, "c.html", testutil.ClassHTML)

	assert.Equal(t, "Class chat", doc.Metadata.Title)
	assert.Equal(t, []internal.Role{internal.RoleUser, internal.RoleAssistant}, roles(doc))
	assert.Equal(t, []string{"Hello from HTML", "Hi!\n\nSecond paragraph."}, contents(doc))
	assert.Equal(t, "2024-06-01T12:00:00Z", doc.Messages[1].Timestamp)
	assert.Equal(t, internal.DialectHTMLExport, doc.Metadata.Exporter)
}

func TestHTMLClassParser_RendererConstructs(t *testing.T) {
	content := `<!DOCTYPE html><html><head>
<meta name="chat-convert:chat-id" content="h-1">
<meta name="chat-convert:platform" content="chatgpt">
<meta name="chat-convert:exporter" content="chatgpt-official">
<meta name="chat-convert:created-at" content="2024-01-01T00:00:00Z">
<meta name="chat-convert:tags" content="x,y">
<title>Rendered &amp; saved</title></head><body>
<h1>Rendered &amp; saved</h1>
<div class="message tool" data-role="tool" data-message-id="msg_1">
<div class="message-header"><span class="role">Tool</span><time datetime="2024-01-01T00:00:05Z">2024-01-01T00:00:05Z</time></div>
<details class="thinking"><summary>Thinking</summary>
<div class="thinking-body"><p>rendered</p></div>
<pre class="thinking-source" hidden>why
&lt;not a tag&gt;</pre>
</details>
<div class="content"><pre><code>a &lt; b</code></pre></div>
<pre class="message-source" hidden>a &lt; b
  indented</pre>
<ul class="attachments">
<li class="attachment" data-type="image"><span class="icon">🖼️</span><a href="https://example.com/p.png">p.png</a></li>
<li class="attachment" data-type="file"><span class="icon">📎</span><span class="attachment-name">notes.md</span></li>
</ul>
</div>
</body></html>`

	doc := parseWith(t, &HTMLClassParser{}, "r.html", content)

	assert.Equal(t, "h-1", doc.Metadata.ChatID)
	assert.Equal(t, "chatgpt", doc.Metadata.Platform)
	assert.Equal(t, "chatgpt-official", doc.Metadata.Exporter)
	assert.Equal(t, "2024-01-01T00:00:00Z", doc.Metadata.CreatedAt)
	assert.Equal(t, []string{"x", "y"}, doc.Metadata.Tags)
	assert.Equal(t, "Rendered & saved", doc.Metadata.Title)

	require.Len(t, doc.Messages, 1)
	msg := doc.Messages[0]
	assert.Equal(t, internal.RoleTool, msg.Role)
	assert.Equal(t, "a < b\n  indented", msg.Content, "the raw source wins over rendered HTML")
	assert.Equal(t, "why\n<not a tag>", msg.Thinking())
	assert.Equal(t, "2024-01-01T00:00:05Z", msg.Timestamp)
	assert.Equal(t, []internal.Attachment{
		{Type: "image", Name: "p.png", URL: "https://example.com/p.png"},
		{Type: "file", Name: "notes.md"},
	}, msg.Attachments)
}

func TestHTMLClassParser_CanHandle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"role class", `<div class="message assistant">x</div>`, true},
		{"data role", `<div data-role="user">x</div>`, true},
		{"message without role", `<div class="message">x</div>`, false},
		{"role without message", `<div class="user">x</div>`, false},
		{"span", `<span class="message user">x</span>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInput("x.html", []byte(tt.content), internal.FormatHTML, testClock)
			if got := (&HTMLClassParser{}).CanHandle(in); got != tt.want {
				t.Errorf("CanHandle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTMLTextParser(t *testing.T) {
	doc := parseWith(t, &HTMLTextParser{}, "s.html", testutil.TextHTML)

	assert.Equal(t, "Saved page", doc.Metadata.Title)
	assert.Equal(t, []internal.Role{internal.RoleUser, internal.RoleAssistant}, roles(doc))
	assert.Equal(t, []string{
		"How do I exit vim?",
		"Type :q and press enter.\n\nIt works in every mode after Escape.",
	}, contents(doc))
	assert.Equal(t, "unknown", doc.Metadata.Platform)
}

func TestHTMLTextParser_SaveMyChatbot(t *testing.T) {
	content := `<html><head><meta name="generator" content="SaveMyChatbot"></head>
<body><div>Human: hi</div><div>Claude: hello</div><script>var User = "x: y";</script></body></html>`
	doc := parseWith(t, &HTMLTextParser{}, "s.html", content)

	assert.Equal(t, "claude", doc.Metadata.Platform)
	assert.Equal(t, internal.DialectSaveMyChatbot, doc.Metadata.Exporter)
	assert.Equal(t, []string{"hi", "hello"}, contents(doc))
}

func TestBlockText(t *testing.T) {
	in := NewInput("x.html", []byte(`<body><p>one  </p><p>two<br>three</p><ul><li>a</li><li>b</li></ul><p hidden>secret</p></body>`), internal.FormatHTML, testClock)
	doc, err := in.HTML()
	require.NoError(t, err)
	assert.Equal(t, "one\n\ntwo\nthree\n\na\n\nb", bodyText(doc), "br breaks a line without a blank line")
}
