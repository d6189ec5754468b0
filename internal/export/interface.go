package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/iksnae/chat-convert/internal"
)

// DefaultGapSeconds is the timestamp gap that starts a new session section
const DefaultGapSeconds = 300

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *internal.CanonicalDoc, w io.Writer) error
	Extension() string
}

// Options controls optional parts of the rendered output
type Options struct {
	FrontMatter     bool
	TOC             bool
	GroupByTime     bool
	GapSeconds      int
	IncludeMetadata bool
	IncludeThinking bool
	// Nested renders JSON and YAML as {metadata, chat_sessions}
	Nested bool
}

// DefaultOptions returns the options the CLI starts from
func DefaultOptions() Options {
	return Options{
		FrontMatter:     true,
		TOC:             true,
		GroupByTime:     true,
		GapSeconds:      DefaultGapSeconds,
		IncludeMetadata: true,
		IncludeThinking: true,
	}
}

// NewExporter creates a new exporter based on format
func NewExporter(format string, opts Options) (Exporter, error) {
	if opts.GapSeconds <= 0 {
		opts.GapSeconds = DefaultGapSeconds
	}
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{opts: opts}, nil
	case "yml", "yaml":
		return &YAMLExporter{nested: opts.Nested}, nil
	case "json":
		return &JSONExporter{nested: opts.Nested}, nil
	case "html", "htm":
		return newHTMLExporter(opts), nil
	default:
		return nil, &internal.ExportError{
			Format: format,
			Err:    fmt.Errorf("unsupported format (supported: md, html, json, yml, jsonl)"),
		}
	}
}

// Render runs the exporter for format and returns the output as a string
func Render(doc *internal.CanonicalDoc, format string, opts Options) (string, error) {
	e, err := NewExporter(format, opts)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := e.Export(doc, &buf); err != nil {
		return "", wrapExport(format, err)
	}
	return buf.String(), nil
}

func wrapExport(format string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*internal.ExportError); ok {
		return err
	}
	return &internal.ExportError{Format: format, Err: err}
}
