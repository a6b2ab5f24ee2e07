package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateJSON checks a raw JSON document against a JSON Schema definition.
func ValidateJSON(schemaJSON, documentJSON string) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewStringLoader(documentJSON)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed to run: %w", err)
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, resultErr := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   resultErr.Field(),
			Message: resultErr.Description(),
		})
	}

	return vr, nil
}

// ValidateMap checks a decoded JSON object against a JSON Schema definition.
func ValidateMap(schemaJSON string, document map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed to run: %w", err)
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, resultErr := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   resultErr.Field(),
			Message: resultErr.Description(),
		})
	}

	return vr, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Summary joins all error messages into one line for logs and error details.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
