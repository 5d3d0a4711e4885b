package transform

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Submissions are flat maps of scalar values; nested objects or arrays
// mean the form layer sent something we cannot group into party records.
const payloadSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": ["string", "number", "boolean", "null"]
	}
}`

var compiledPayloadSchema = jsonschema.MustCompileString("submission.json", payloadSchema)

// ValidatePayload checks the raw submission's shape before any field
// grouping happens.
func ValidatePayload(raw map[string]any) error {
	if len(raw) == 0 {
		return &ValidationError{Reason: "submission payload is empty"}
	}
	if err := compiledPayloadSchema.Validate(map[string]any(raw)); err != nil {
		reason := err.Error()
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			reason = strings.TrimSpace(ve.Message)
			if len(ve.Causes) > 0 {
				reason = strings.TrimSpace(ve.Causes[0].Message)
			}
		}
		return &ValidationError{Reason: reason}
	}
	return nil
}
