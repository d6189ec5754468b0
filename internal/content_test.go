package internal

import (
	"encoding/json"
	"testing"
)

func TestFlattenContent(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"string is verbatim", "  spaced\n", "  spaced\n"},
		{"integer", 42, "42"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"json number", json.Number("7"), "7"},
		{"text object", map[string]any{"text": "hi"}, "hi"},
		{"parts object", map[string]any{"content_type": "text", "parts": []any{"a", "b"}}, "a\nb"},
		{"list of strings", []any{"a", "b"}, "a\nb"},
		{"typed string slice", []string{"x", "y"}, "x\ny"},
		{"list of text objects", []any{map[string]any{"text": "a"}, "b"}, "a\nb"},
		{"raw object", map[string]any{"url": "https://x"}, `{"url":"https://x"}`},
		{"raw list item", []any{"a", map[string]any{"k": 1.0}}, "a\n{\"k\":1}"},
		{"html is not escaped", map[string]any{"html": "<b>"}, `{"html":"<b>"}`},
		{"yaml map", map[any]any{1: "one"}, `{"1":"one"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlattenContent(tt.input)
			if got != tt.want {
				t.Errorf("FlattenContent() = %q, want %q", got, tt.want)
			}
			// flattening flat text changes nothing
			if again := FlattenContent(got); again != got {
				t.Errorf("FlattenContent(FlattenContent()) = %q, want %q", again, got)
			}
		})
	}
}

func TestNewContentValue_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  ContentKind
	}{
		{"string", "x", ContentText},
		{"number", 3, ContentText},
		{"text object", map[string]any{"text": "x"}, ContentText},
		{"parts object", map[string]any{"parts": []any{}}, ContentParts},
		{"list", []any{"x"}, ContentParts},
		{"other object", map[string]any{"a": 1}, ContentRaw},
		{"struct", struct{}{}, ContentRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewContentValue(tt.input).Kind; got != tt.want {
				t.Errorf("Kind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeTree(t *testing.T) {
	in := map[any]any{
		"list": []any{map[any]any{2: "two"}},
		"map":  map[string]any{"inner": map[any]any{"k": "v"}},
	}
	data, err := json.Marshal(NormalizeTree(in))
	if err != nil {
		t.Fatalf("normalized tree does not encode: %v", err)
	}
	want := `{"list":[{"2":"two"}],"map":{"inner":{"k":"v"}}}`
	if string(data) != want {
		t.Errorf("NormalizeTree() = %s, want %s", data, want)
	}
}
