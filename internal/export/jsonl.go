package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/chat-convert/internal"
)

// JSONLExporter exports documents in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a document to JSONL format
func (e *JSONLExporter) Export(doc *internal.CanonicalDoc, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, msg := range doc.Messages {
		if err := enc.Encode(msg); err != nil {
			return wrapExport("jsonl", fmt.Errorf("failed to encode message %s: %w", msg.MessageID, err))
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
