package parser

import (
	"bytes"
	"encoding/json"
	"maps"

	"github.com/iksnae/chat-convert/internal"
)

var treeFormats = []internal.Format{internal.FormatJSON, internal.FormatYAML}

// CanonicalParser passes through documents already in the v2.0 schema so that
// converted output can be processed again
type CanonicalParser struct{}

func (p *CanonicalParser) Name() string               { return internal.DialectCanonical }
func (p *CanonicalParser) Formats() []internal.Format { return treeFormats }

func (p *CanonicalParser) CanHandle(in *Input) bool {
	obj, ok := in.Object()
	if !ok || !internal.IsSchemaVersion(obj["schema_version"]) {
		return false
	}
	_, ok = list(obj, "messages")
	return ok
}

// Parse decodes the document unchanged. Roles and message ids are checked
// because renderers and the chunker rely on them.
func (p *CanonicalParser) Parse(in *Input) (*internal.CanonicalDoc, error) {
	var doc internal.CanonicalDoc
	if in.Format == internal.FormatJSON {
		if err := json.Unmarshal(bytes.TrimPrefix(in.Content, []byte{0xEF, 0xBB, 0xBF}), &doc); err != nil {
			return nil, malformed(p, in, "decode: %w", err)
		}
	} else {
		// Re-encode the YAML tree so YAML and JSON share one decoding path
		obj, _ := in.Object()
		obj = maps.Clone(obj)
		obj["schema_version"] = internal.SchemaVersion
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, malformed(p, in, "re-encode: %w", err)
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, malformed(p, in, "decode: %w", err)
		}
	}

	seen := make(map[string]bool, len(doc.Messages))
	for i, msg := range doc.Messages {
		if !msg.Role.Valid() {
			return nil, malformed(p, in, "message %d: role %q is not canonical", i, msg.Role)
		}
		if msg.MessageID == "" {
			return nil, malformed(p, in, "message %d: missing message_id", i)
		}
		if seen[msg.MessageID] {
			return nil, malformed(p, in, "message %d: duplicate message_id %q", i, msg.MessageID)
		}
		seen[msg.MessageID] = true
	}
	if doc.Messages == nil {
		doc.Messages = []internal.Message{}
	}
	if doc.SchemaVersion != internal.SchemaVersion {
		return nil, malformed(p, in, "schema_version %q", doc.SchemaVersion)
	}
	return &doc, nil
}
