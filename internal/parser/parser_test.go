package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClock = internal.FixedClock{T: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}

// newTestInput sniffs content the way the pipeline does
func newTestInput(path, content string) *Input {
	format := internal.DetectFormat(path, []byte(content))
	in := NewInput(path, []byte(content), format, testClock)
	in.Dialect = internal.DetectSource([]byte(content), format)
	return in
}

// parseWith runs p on content, failing the test when p rejects it
func parseWith(t *testing.T, p Parser, path, content string) *internal.CanonicalDoc {
	t.Helper()
	in := newTestInput(path, content)
	require.True(t, p.CanHandle(in), "%s should accept %s", p.Name(), path)
	doc, err := p.Parse(in)
	require.NoError(t, err)
	return doc
}

func roles(doc *internal.CanonicalDoc) []internal.Role {
	out := make([]internal.Role, len(doc.Messages))
	for i, msg := range doc.Messages {
		out[i] = msg.Role
	}
	return out
}

func contents(doc *internal.CanonicalDoc) []string {
	out := make([]string, len(doc.Messages))
	for i, msg := range doc.Messages {
		out[i] = msg.Content
	}
	return out
}

func TestDefaultParsersOrder(t *testing.T) {
	var names []string
	for _, p := range DefaultParsers() {
		names = append(names, p.Name())
	}
	want := []string{
		"canonical-v2",
		"native-export",
		"chatgpt-official",
		"claude-platform",
		"claude-exporter",
		"chatgpt-exporter",
		"generic-json",
		"markdown-prompt-response",
		"markdown-headings",
		"markdown-bold",
		"html-class",
		"html-text",
	}
	assert.Equal(t, want, names)
}

func TestRegistry_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    string
	}{
		{"canonical before generic", "a.json", testutil.CanonicalJSON, "canonical-v2"},
		{"native before generic", "a.json", testutil.NativeExportJSON, "native-export"},
		{"claude exporter before chatgpt exporter", "a.json", testutil.ClaudeExporterJSON, "claude-exporter"},
		{"say messages", "a.json", testutil.ChatGPTExporterJSON, "chatgpt-exporter"},
		{"scenario A", "a.json", testutil.GenericJSON, "generic-json"},
		{"yaml generic", "a.yaml", "messages:\n  - role: user\n    content: hi\n", "generic-json"},
		{"prompt response before headings", "a.md", testutil.ExporterMarkdown, "markdown-prompt-response"},
		{"scenario B", "a.md", testutil.HeadingsMarkdown, "markdown-headings"},
		{"bold", "a.md", testutil.BoldMarkdown, "markdown-bold"},
		{"html class before text", "a.html", testutil.ClassHTML, "html-class"},
		{"html text", "a.html", testutil.TextHTML, "html-text"},
	}

	r := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Resolve(newTestInput(tt.path, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestRegistry_ResolveNoParser(t *testing.T) {
	in := newTestInput("a.json", `{"conversation": []}`)
	_, err := DefaultRegistry().Resolve(in)

	var target *internal.NoParserAvailableError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, internal.FormatJSON, target.Format)
}

// panicky accepts nothing and panics on every check
type panicky struct{ GenericJSONParser }

func (panicky) Name() string          { return "panicky" }
func (panicky) CanHandle(*Input) bool { panic("boom") }

func TestRegistry_PanickingPredicateIsSkipped(t *testing.T) {
	r := NewRegistry(&panicky{}, &GenericJSONParser{})
	p, err := r.Resolve(newTestInput("a.json", testutil.GenericJSON))
	require.NoError(t, err)
	assert.Equal(t, "generic-json", p.Name())
}

func TestRegistry_IsImmutable(t *testing.T) {
	parsers := []Parser{&GenericJSONParser{}}
	r := NewRegistry(parsers...)
	parsers[0] = &MarkdownBoldParser{}

	got := r.Parsers()
	assert.Equal(t, "generic-json", got[0].Name())
	got[0] = &MarkdownBoldParser{}
	assert.Equal(t, "generic-json", r.Parsers()[0].Name())
}

func TestRegistry_Candidates(t *testing.T) {
	r := DefaultRegistry()
	got := r.Candidates(newTestInput("chat.json", testutil.GenericJSON))
	require.Len(t, got, len(r.Parsers()))

	for i, c := range got {
		assert.Equal(t, r.Parsers()[i].Name(), c.Name)
		if !c.FormatMatch {
			assert.False(t, c.Accepts, "%s cannot accept another format", c.Name)
		}
	}

	resolved, err := r.Resolve(newTestInput("chat.json", testutil.GenericJSON))
	require.NoError(t, err)
	for _, c := range got {
		if c.Accepts {
			assert.Equal(t, resolved.Name(), c.Name, "Resolve picks the first accepting candidate")
			break
		}
	}
}

func TestRegistry_Problems(t *testing.T) {
	assert.Empty(t, DefaultRegistry().Problems())

	shadowed := NewRegistry(&GenericJSONParser{}, &NativeExportParser{})
	if problems := shadowed.Problems(); assert.Len(t, problems, 1) {
		assert.Contains(t, problems[0], "shadowed by fallback generic-json")
	}

	twice := NewRegistry(&CanonicalParser{}, &CanonicalParser{})
	if problems := twice.Problems(); assert.Len(t, problems, 1) {
		assert.Contains(t, problems[0], "registered twice")
	}
}

func TestDefaultRegistry_Shared(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestInput_Text(t *testing.T) {
	in := NewInput("a.md", []byte("\xEF\xBB\xBFline one\r\nline two"), internal.FormatMarkdown, nil)
	assert.Equal(t, "line one\nline two", in.Text())
	assert.NotNil(t, in.Clock)
}

func TestInput_TreeIsDecodedOnce(t *testing.T) {
	in := NewInput("a.json", []byte(`{"messages": []}`), internal.FormatJSON, testClock)
	first, err := in.Tree()
	require.NoError(t, err)
	second, _ := in.Tree()
	assert.Equal(t, first, second)

	in = NewInput("a.md", []byte("# x"), internal.FormatMarkdown, testClock)
	_, err = in.Tree()
	assert.Error(t, err)
}

func TestSingleObject(t *testing.T) {
	tests := []struct {
		name  string
		tree  any
		wantN int
	}{
		{"object", map[string]any{"a": 1.0}, 1},
		{"one element list", []any{map[string]any{"a": 1.0}}, 1},
		{"two element list", []any{map[string]any{}, map[string]any{}}, 2},
		{"empty list", []any{}, 0},
		{"scalar", "x", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n := singleObject(tt.tree)
			if n != tt.wantN {
				t.Errorf("singleObject() n = %d, want %d", n, tt.wantN)
			}
		})
	}
}

func TestAttachmentsFrom(t *testing.T) {
	got := attachmentsFrom([]any{
		map[string]any{"file_name": "a.txt", "file_type": "text/plain", "extracted_content": "hello"},
		map[string]any{"url": "https://example.com/x.png", "type": "image"},
		"notes.md",
		42.0,
	})
	want := []internal.Attachment{
		{Type: "text/plain", Name: "a.txt", Content: "hello"},
		{Type: "image", Name: "https://example.com/x.png", URL: "https://example.com/x.png"},
		{Type: "file", Name: "notes.md"},
	}
	assert.Equal(t, want, got)
}

func TestChatIDFromLink(t *testing.T) {
	tests := map[string]string{
		"https://chatgpt.com/c/6650a": "6650a",
		"https://claude.ai/chat/abc/": "abc",
		"":                            "",
		"no-slashes":                  "",
	}
	for link, want := range tests {
		if got := chatIDFromLink(link); got != want {
			t.Errorf("chatIDFromLink(%q) = %q, want %q", link, got, want)
		}
	}
}
