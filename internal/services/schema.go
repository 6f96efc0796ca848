package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"alfredoptarigan/writing-feedback/internal/models"
)

// feedbackSchema encodes what a well-formed reply looks like. The normalizer
// already guarantees the shape; this adds the counts the prompt asks for.
const feedbackSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["score", "score_explanation", "strengths", "improvements", "language_issues", "next_steps", "mini_exercise"],
  "properties": {
    "score": {"type": "integer", "minimum": 1, "maximum": 10},
    "score_explanation": {"type": "string", "minLength": 1},
    "strengths": {"$ref": "#/definitions/bullets"},
    "improvements": {"$ref": "#/definitions/bullets"},
    "language_issues": {
      "type": "object",
      "required": ["grammar", "spelling"],
      "properties": {
        "grammar": {"$ref": "#/definitions/bullets"},
        "spelling": {"$ref": "#/definitions/bullets"}
      }
    },
    "next_steps": {"$ref": "#/definitions/bullets"},
    "mini_exercise": {"type": "string"}
  },
  "definitions": {
    "bullets": {
      "type": "array",
      "minItems": 3,
      "maxItems": 6,
      "items": {"type": "string"}
    }
  }
}`

var compileFeedbackSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("feedback.json", strings.NewReader(feedbackSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("feedback.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ValidateFeedback checks a normalized result against the well-formedness
// rules. A non-nil error lists every violation; callers only log it.
func ValidateFeedback(result models.FeedbackResult) error {
	schema, err := compileFeedbackSchema()
	if err != nil {
		return err
	}

	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal feedback: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("feedback does not match schema: %w", err)
	}
	return nil
}
