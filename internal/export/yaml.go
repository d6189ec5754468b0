package export

import (
	"io"

	"github.com/iksnae/chat-convert/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports documents in YAML format
type YAMLExporter struct {
	nested bool
}

// Export exports a document to YAML format
func (e *YAMLExporter) Export(doc *internal.CanonicalDoc, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	var v any = doc
	if e.nested {
		v = internal.NewSessionView(doc)
	}
	return wrapExport("yml", enc.Encode(v))
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yml"
}
