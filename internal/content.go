package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ContentKind tags the shape a ContentValue was built from
type ContentKind int

const (
	// ContentText is a string, number or an object carrying a text field
	ContentText ContentKind = iota
	// ContentParts is a list, or an object carrying a parts list
	ContentParts
	// ContentRaw is any other value; it flattens to its JSON encoding
	ContentRaw
)

// ContentValue is the tagged union of message content shapes found in exports
type ContentValue struct {
	Kind  ContentKind
	Text  string
	Parts []ContentValue
	Raw   any
}

// NewContentValue classifies a decoded JSON/YAML value
func NewContentValue(v any) ContentValue {
	switch t := v.(type) {
	case nil:
		return ContentValue{Kind: ContentText}
	case string:
		return ContentValue{Kind: ContentText, Text: t}
	case map[string]any:
		if parts, ok := t["parts"].([]any); ok {
			return ContentValue{Kind: ContentParts, Parts: partValues(parts)}
		}
		if text, ok := t["text"]; ok {
			return ContentValue{Kind: ContentText, Text: stringify(text)}
		}
		return ContentValue{Kind: ContentRaw, Raw: t}
	case []any:
		return ContentValue{Kind: ContentParts, Parts: partValues(t)}
	case []string:
		parts := make([]ContentValue, len(t))
		for i, s := range t {
			parts[i] = ContentValue{Kind: ContentText, Text: s}
		}
		return ContentValue{Kind: ContentParts, Parts: parts}
	}
	if s, ok := scalarString(v); ok {
		return ContentValue{Kind: ContentText, Text: s}
	}
	return ContentValue{Kind: ContentRaw, Raw: v}
}

// partValues classifies list elements: strings verbatim, objects with a text
// field as that text, anything else raw
func partValues(items []any) []ContentValue {
	parts := make([]ContentValue, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			parts = append(parts, ContentValue{Kind: ContentText, Text: t})
		case map[string]any:
			if text, ok := t["text"]; ok {
				parts = append(parts, ContentValue{Kind: ContentText, Text: stringify(text)})
				continue
			}
			parts = append(parts, ContentValue{Kind: ContentRaw, Raw: t})
		default:
			if s, ok := scalarString(item); ok {
				parts = append(parts, ContentValue{Kind: ContentText, Text: s})
				continue
			}
			parts = append(parts, ContentValue{Kind: ContentRaw, Raw: item})
		}
	}
	return parts
}

// Flatten renders the value as one text channel. A plain string flattens to
// itself.
func (c ContentValue) Flatten() string {
	switch c.Kind {
	case ContentText:
		return c.Text
	case ContentParts:
		texts := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			texts = append(texts, p.Flatten())
		}
		return strings.Join(texts, "\n")
	default:
		return jsonString(c.Raw)
	}
}

// FlattenContent coerces any decoded content value to a string
func FlattenContent(v any) string {
	return NewContentValue(v).Flatten()
}

// stringify renders a scalar verbatim and anything else as JSON
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := scalarString(v); ok {
		return s
	}
	return jsonString(v)
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func jsonString(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(NormalizeTree(v)); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// NormalizeTree converts map[any]any nodes, which YAML decoding can produce
// and encoding/json rejects, into string keyed maps
func NormalizeTree(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = NormalizeTree(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = NormalizeTree(val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = NormalizeTree(val)
		}
		return out
	}
	return v
}
