package internal

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/chat_history_v2.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "chat_history_v2.schema.json"

// ValidationReport carries the outcome of a best-effort validation. Warnings
// never make a conversion fail.
type ValidationReport struct {
	Warnings []string
}

// Valid reports whether validation found nothing to warn about
func (r ValidationReport) Valid() bool {
	return len(r.Warnings) == 0
}

func (r *ValidationReport) addf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator checks canonical documents against the chat_history v2.0 JSON
// Schema and the structural invariants the schema cannot express
type Validator struct {
	schema *jsonschema.Schema
	source string
	// setupWarning is reported on every validation when the schema could not be loaded
	setupWarning string
}

// NewValidator loads the schema at path, or the embedded schema when path is
// empty. A schema that cannot be loaded is not an error: schema checks are
// skipped and reported as a warning.
func NewValidator(path string) *Validator {
	v := &Validator{source: path}
	if path == "" {
		v.source = "embedded"
		sch, err := compileSchema(embeddedSchemaURL, embeddedSchema)
		if err != nil {
			v.setupWarning = fmt.Sprintf("embedded schema unusable, schema validation skipped: %v", err)
		}
		v.schema = sch
		return v
	}

	data, err := os.ReadFile(path)
	if err != nil {
		v.setupWarning = fmt.Sprintf("schema %s not available, schema validation skipped: %v", path, err)
		LogWarn("%s", v.setupWarning)
		return v
	}
	sch, err := compileSchema(path, data)
	if err != nil {
		v.setupWarning = fmt.Sprintf("schema %s unusable, schema validation skipped: %v", path, err)
		LogWarn("%s", v.setupWarning)
		return v
	}
	v.schema = sch
	return v
}

func compileSchema(url string, data []byte) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// Source names the schema in use
func (v *Validator) Source() string {
	return v.source
}

// SchemaLoaded reports whether schema checks are active
func (v *Validator) SchemaLoaded() bool {
	return v.schema != nil
}

// Validate checks doc and returns every problem found as a warning
func (v *Validator) Validate(doc *CanonicalDoc) ValidationReport {
	var report ValidationReport
	if doc == nil {
		report.addf("document is nil")
		return report
	}
	if v.setupWarning != "" {
		report.addf("%s", v.setupWarning)
	}
	if v.schema != nil {
		v.validateSchema(doc, &report)
	}
	validateStructure(doc, &report)
	return report
}

func (v *Validator) validateSchema(doc *CanonicalDoc, report *ValidationReport) {
	data, err := json.Marshal(doc)
	if err != nil {
		report.addf("document not serializable: %v", err)
		return
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		report.addf("document not serializable: %v", err)
		return
	}
	if err := v.schema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, leaf := range validationLeaves(ve) {
				report.addf("schema: %s: %s", leaf.InstanceLocation, leaf.Message)
			}
			return
		}
		report.addf("schema: %v", err)
	}
}

func validationLeaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		leaves = append(leaves, validationLeaves(c)...)
	}
	return leaves
}

// validateStructure checks invariants that span fields
func validateStructure(doc *CanonicalDoc, report *ValidationReport) {
	if doc.SchemaVersion != SchemaVersion {
		report.addf("schema_version is %q, expected %q", doc.SchemaVersion, SchemaVersion)
	}
	seen := make(map[string]bool, len(doc.Messages))
	for i, msg := range doc.Messages {
		if !msg.Role.Valid() {
			report.addf("message %d: invalid role %q", i, msg.Role)
		}
		if msg.MessageID == "" {
			report.addf("message %d: missing message_id", i)
		} else if seen[msg.MessageID] {
			report.addf("message %d: duplicate message_id %q", i, msg.MessageID)
		}
		seen[msg.MessageID] = true
	}
	if want := ComputeStatistics(doc.Messages); doc.Metadata.Statistics != want {
		report.addf("statistics out of date: have %+v, want %+v", doc.Metadata.Statistics, want)
	}
	if err := ValidateChunkCoverage(doc.Metadata.Chunking, len(doc.Messages)); err != nil {
		report.addf("chunking: %v", err)
	}
}
