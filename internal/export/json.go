package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/chat-convert/internal"
)

// JSONExporter exports documents in JSON format (pretty-printed)
type JSONExporter struct {
	nested bool
}

// Export exports a document to JSON format
func (e *JSONExporter) Export(doc *internal.CanonicalDoc, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if e.nested {
		return wrapExport("json", enc.Encode(internal.NewSessionView(doc)))
	}
	return wrapExport("json", enc.Encode(doc))
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
