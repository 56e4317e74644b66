package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/query-schema.json
var embeddedSchema []byte

const schemaURL = "https://canectors.io/schemas/recordfilter/v1.0.0/query-schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// getCompiledSchema returns the compiled JSON schema, compiling it on first use.
func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// ValidateConfig validates a parsed query document against the query schema.
func ValidateConfig(data map[string]interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	fail := func(errs ...ValidationError) *ValidationResult {
		result.Valid = false
		result.Errors = append(result.Errors, errs...)
		return result
	}

	if data == nil {
		return fail(ValidationError{Path: "/", Type: "required", Message: "query document is nil"})
	}
	if len(data) == 0 {
		return fail(ValidationError{Path: "/", Type: "required", Message: "query document is empty"})
	}

	schema, err := getCompiledSchema()
	if err != nil {
		return fail(ValidationError{Path: "/", Type: "schema", Message: fmt.Sprintf("failed to load schema: %v", err)})
	}

	doc, err := normalizeJSON(data)
	if err != nil {
		return fail(ValidationError{Path: "/", Type: "type", Message: fmt.Sprintf("document is not JSON compatible: %v", err)})
	}

	if err := schema.Validate(doc); err != nil {
		var detailedErr *jsonschema.ValidationError
		if errors.As(err, &detailedErr) {
			return fail(convertValidationErrors(detailedErr)...)
		}
		return fail(ValidationError{Path: "/", Type: "validation", Message: err.Error()})
	}

	return result
}

// convertValidationErrors flattens the leaf causes of a jsonschema error.
func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		return []ValidationError{{
			Path:    formatInstanceLocation(err.InstanceLocation),
			Type:    extractErrorType(err),
			Message: leafMessage(err),
		}}
	}

	var errs []ValidationError
	for _, cause := range err.Causes {
		errs = append(errs, convertValidationErrors(cause)...)
	}
	return errs
}

// formatInstanceLocation formats the instance location as a JSON pointer.
func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

// extractErrorType derives a simplified error type from the validation error.
func extractErrorType(err *jsonschema.ValidationError) string {
	msg := strings.ToLower(leafMessage(err))

	switch {
	case strings.Contains(msg, "missing propert"):
		return "required"
	case strings.Contains(msg, "additional propert"):
		return "additionalProperties"
	case strings.Contains(msg, "value must be one of"):
		return "enum"
	case strings.Contains(msg, "does not match pattern"):
		return "pattern"
	case strings.Contains(msg, "minlength"):
		return "length"
	case strings.Contains(msg, "got ") && strings.Contains(msg, "want "):
		return "type"
	default:
		return "validation"
	}
}

// leafMessage returns the message of a leaf error without the schema
// location header jsonschema prepends.
func leafMessage(err *jsonschema.ValidationError) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	msg = strings.TrimPrefix(msg, "- ")
	if strings.HasPrefix(msg, "at '") {
		if i := strings.Index(msg, "': "); i >= 0 {
			msg = msg[i+3:]
		}
	}
	return msg
}
