package internal

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the syntactic family of an input file
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatUnknown  Format = "unknown"
)

// Advisory dialect tags reported by DetectSource
const (
	DialectCanonical        = "canonical-v2"
	DialectNativeExport     = "native-export"
	DialectChatGPTOfficial  = "chatgpt-official"
	DialectChatGPTExporter  = "chatgpt-exporter"
	DialectClaudeExporter   = "claude-exporter"
	DialectClaudePlatform   = "claude-platform"
	DialectGenericJSON      = "generic-json"
	DialectExporterMarkdown = "chatgpt-exporter-markdown"
	DialectMarkdownHeadings = "markdown-headings"
	DialectMarkdownBold     = "markdown-bold"
	DialectSaveMyChatbot    = "claude-savemychatbot"
	DialectHTMLExport       = "html-export"
	DialectUnknown          = "unknown"
)

// sniffWindow is how much of a file content rules look at
const sniffWindow = 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var extensionFormats = map[string]Format{
	".json":     FormatJSON,
	".yaml":     FormatYAML,
	".yml":      FormatYAML,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
}

var (
	yamlKeyLine      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*:(\s|$)`)
	mdHeadingLine    = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	mdBoldRoleMarker = regexp.MustCompile(`(?mi)^\*\*[A-Za-z ]+:\*\*`)
	mdPromptResponse = regexp.MustCompile(`(?mi)^#{2,6}\s+(prompt|response):`)
	mdRoleHeading    = regexp.MustCompile(`(?mi)^#{2,6}\s+(user|assistant|human|ai|system)\s*$`)
	htmlOpening      = regexp.MustCompile(`(?i)^<(!doctype\s+html|html|head|body)[\s>]`)
)

// ParseFormat maps a user supplied format name to a Format
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "md", "markdown":
		return FormatMarkdown
	case "html", "htm":
		return FormatHTML
	}
	return FormatUnknown
}

// DetectFormat classifies input by extension, then by the first kilobyte of
// content. It never guesses: anything ambiguous is FormatUnknown.
func DetectFormat(path string, sample []byte) Format {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return sniffContent(sample)
}

func sniffContent(sample []byte) Format {
	if len(sample) > sniffWindow {
		sample = sample[:sniffWindow]
	}
	s := string(bytes.TrimSpace(bytes.TrimPrefix(sample, utf8BOM)))
	if s == "" {
		return FormatUnknown
	}

	switch {
	case s[0] == '{' || s[0] == '[':
		return FormatJSON
	case htmlOpening.MatchString(s):
		return FormatHTML
	case strings.HasPrefix(s, "---"):
		// Markdown with front matter also opens with a document marker
		if body, ok := afterFrontMatter(s); ok && looksLikeMarkdown(body) {
			return FormatMarkdown
		}
		return FormatYAML
	}

	firstLine := strings.SplitN(s, "\n", 2)[0]
	if yamlKeyLine.MatchString(firstLine) {
		return FormatYAML
	}
	if looksLikeMarkdown(s) {
		return FormatMarkdown
	}
	return FormatUnknown
}

func looksLikeMarkdown(s string) bool {
	return mdHeadingLine.MatchString(s) || mdBoldRoleMarker.MatchString(s)
}

// afterFrontMatter returns the text following a closing --- line
func afterFrontMatter(s string) (string, bool) {
	rest := strings.TrimPrefix(s, "---")
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", false
	}
	return rest[idx+4:], true
}

// DetectSource guesses which tool produced content. The result is advisory and
// only used for logging and metadata.
func DetectSource(content []byte, format Format) string {
	switch format {
	case FormatJSON, FormatYAML:
		return detectTreeSource(content, format)
	case FormatMarkdown:
		s := string(content)
		switch {
		case mdPromptResponse.MatchString(s):
			return DialectExporterMarkdown
		case mdRoleHeading.MatchString(s):
			return DialectMarkdownHeadings
		case mdBoldRoleMarker.MatchString(s):
			return DialectMarkdownBold
		}
	case FormatHTML:
		if bytes.Contains(bytes.ToLower(content), []byte("savemychatbot")) {
			return DialectSaveMyChatbot
		}
		return DialectHTMLExport
	}
	return DialectUnknown
}

func detectTreeSource(content []byte, format Format) string {
	var tree any
	var err error
	if format == FormatJSON {
		err = json.Unmarshal(content, &tree)
	} else {
		err = yaml.Unmarshal(content, &tree)
	}
	if err != nil {
		return DialectUnknown
	}
	tree = NormalizeTree(tree)
	if list, ok := tree.([]any); ok && len(list) > 0 {
		tree = list[0]
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return DialectUnknown
	}

	if IsSchemaVersion(obj["schema_version"]) {
		if _, ok := obj["messages"].([]any); ok {
			return DialectCanonical
		}
	}
	if _, ok := obj["chat_sessions"].([]any); ok {
		return DialectNativeExport
	}
	if _, ok := obj["mapping"].(map[string]any); ok {
		return DialectChatGPTOfficial
	}
	if _, ok := obj["chat_messages"].([]any); ok {
		return DialectClaudePlatform
	}
	if meta, ok := obj["metadata"].(map[string]any); ok {
		_, hasDate := meta["export_date"]
		_, hasTime := meta["export_time"]
		if hasDate || hasTime {
			return DialectClaudeExporter
		}
	}
	if msgs, ok := obj["messages"].([]any); ok {
		if len(msgs) > 0 {
			if first, ok := msgs[0].(map[string]any); ok {
				if _, ok := first["say"]; ok {
					return DialectChatGPTExporter
				}
			}
		}
		return DialectGenericJSON
	}
	return DialectUnknown
}
