package bluesky

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed post.schema.json
var postSchemaJSON []byte

// RecordValidator checks assembled post records against the app.bsky.feed.post
// schema before they are submitted to the PDS.
type RecordValidator struct {
	schema *jsonschema.Schema
}

// NewRecordValidator compiles the embedded post schema.
func NewRecordValidator() (*RecordValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(postSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse post schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("post.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add post schema: %w", err)
	}

	schema, err := compiler.Compile("post.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile post schema: %w", err)
	}

	return &RecordValidator{schema: schema}, nil
}

// Validate returns a non-nil error if the record does not conform to the
// destination schema. The record is round-tripped through JSON so the
// validated document is exactly what would go over the wire.
func (v *RecordValidator) Validate(record *PostRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	return v.schema.Validate(value)
}
