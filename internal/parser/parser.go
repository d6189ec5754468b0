package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/iksnae/chat-convert/internal"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Parser converts one dialect of chat export into a canonical document.
// CanHandle is a cheap structural check and must never panic; Parse may
// still fail with *internal.MalformedSourceError when deeper structure is
// not what CanHandle assumed.
type Parser interface {
	Name() string
	Formats() []internal.Format
	CanHandle(in *Input) bool
	Parse(in *Input) (*internal.CanonicalDoc, error)
}

// Input is one file offered to the registry. Decoded forms are computed on
// first use and shared by every parser that inspects the input.
type Input struct {
	Path    string
	Content []byte
	Format  internal.Format
	Dialect string // advisory only
	Clock   internal.Clock

	// Warnings collects non-fatal problems found while parsing
	Warnings []string

	treeOnce sync.Once
	tree     any
	treeErr  error

	htmlOnce sync.Once
	htmlDoc  *html.Node
	htmlErr  error
}

// NewInput creates an Input, defaulting the clock to the system clock
func NewInput(path string, content []byte, format internal.Format, clock internal.Clock) *Input {
	if clock == nil {
		clock = internal.SystemClock{}
	}
	return &Input{Path: path, Content: content, Format: format, Clock: clock}
}

// Text returns the content as a string with any BOM removed and CRLF line
// endings normalized
func (in *Input) Text() string {
	s := string(bytes.TrimPrefix(in.Content, []byte{0xEF, 0xBB, 0xBF}))
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Tree decodes JSON or YAML content into maps, slices and scalars
func (in *Input) Tree() (any, error) {
	in.treeOnce.Do(func() {
		var v any
		switch in.Format {
		case internal.FormatJSON:
			in.treeErr = json.Unmarshal(bytes.TrimPrefix(in.Content, []byte{0xEF, 0xBB, 0xBF}), &v)
		case internal.FormatYAML:
			in.treeErr = yaml.Unmarshal(in.Content, &v)
		default:
			in.treeErr = fmt.Errorf("%s content has no data tree", in.Format)
		}
		if in.treeErr == nil {
			in.tree = internal.NormalizeTree(v)
		}
	})
	return in.tree, in.treeErr
}

// Object returns the decoded tree when it is an object
func (in *Input) Object() (map[string]any, bool) {
	tree, err := in.Tree()
	if err != nil {
		return nil, false
	}
	obj, ok := tree.(map[string]any)
	return obj, ok
}

// HTML parses HTML content
func (in *Input) HTML() (*html.Node, error) {
	in.htmlOnce.Do(func() {
		in.htmlDoc, in.htmlErr = html.Parse(bytes.NewReader(in.Content))
	})
	return in.htmlDoc, in.htmlErr
}

// Warnf records a non-fatal problem
func (in *Input) Warnf(format string, args ...any) {
	in.Warnings = append(in.Warnings, fmt.Sprintf(format, args...))
}

// malformed builds the error a parser returns for structure it cannot use
func malformed(p Parser, in *Input, format string, args ...any) error {
	return &internal.MalformedSourceError{Parser: p.Name(), Path: in.Path, Err: fmt.Errorf(format, args...)}
}

// finish builds the document and moves builder warnings onto the input
func finish(b *internal.DocBuilder, in *Input) *internal.CanonicalDoc {
	doc := b.Build()
	in.Warnings = append(in.Warnings, b.Warnings()...)
	return doc
}

// singleObject returns the tree as an object, accepting a one-element list
// the way platform exports wrap a single conversation
func singleObject(tree any) (map[string]any, int) {
	switch t := tree.(type) {
	case map[string]any:
		return t, 1
	case []any:
		if len(t) == 0 {
			return nil, 0
		}
		obj, _ := t[0].(map[string]any)
		return obj, len(t)
	}
	return nil, 0
}

// str returns the string form of a scalar field, "" when absent
func str(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return internal.FlattenContent(v)
}

// firstOf returns the first present, non-nil field among keys
func firstOf(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// firstString returns the first non-empty scalar field among keys
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(obj, k); s != "" {
			return s
		}
	}
	return ""
}

// list returns a field as a list
func list(obj map[string]any, key string) ([]any, bool) {
	if obj == nil {
		return nil, false
	}
	l, ok := obj[key].([]any)
	return l, ok
}

// object returns a field as an object
func object(obj map[string]any, key string) (map[string]any, bool) {
	if obj == nil {
		return nil, false
	}
	m, ok := obj[key].(map[string]any)
	return m, ok
}

// stringList returns the string elements of a list field
func stringList(obj map[string]any, key string) []string {
	items, _ := list(obj, key)
	var out []string
	for _, item := range items {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			if name := firstString(t, "name", "label", "title"); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// attachmentsFrom reads attachment objects with loosely named fields
func attachmentsFrom(items []any) []internal.Attachment {
	var out []internal.Attachment
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, internal.Attachment{Type: "file", Name: s})
			}
			continue
		}
		att := internal.Attachment{
			Type:    firstString(m, "type", "file_type", "mime_type", "kind"),
			Name:    firstString(m, "name", "file_name", "filename", "title"),
			Content: firstString(m, "content", "extracted_content", "text"),
			URL:     firstString(m, "url", "link", "preview_url", "thumbnail_url"),
		}
		if att.Type == "" {
			att.Type = "file"
		}
		if att.Name == "" {
			att.Name = att.URL
		}
		out = append(out, att)
	}
	return out
}
