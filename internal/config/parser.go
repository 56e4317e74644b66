package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a JSON or YAML document from the given path.
// The format is detected from the file extension, then from the content.
func ParseFile(filepath string) *ParseResult {
	result := &ParseResult{FilePath: filepath}

	content, err := os.ReadFile(filepath)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{
			Path:    filepath,
			Message: fmt.Sprintf("failed to read file: %v", err),
			Type:    ErrorTypeIO,
		})
		return result
	}

	format := DetectFormat(filepath)
	if format == "" {
		format = detectContentFormat(string(content))
	}

	parsed := ParseString(string(content), format)
	parsed.FilePath = filepath
	for i := range parsed.Errors {
		if parsed.Errors[i].Path == "" {
			parsed.Errors[i].Path = filepath
		}
	}
	return parsed
}

// ParseString parses a JSON or YAML document from a string.
// An empty format auto-detects from content.
// The document must be an object; a null document yields no data and no error.
func ParseString(content string, format string) *ParseResult {
	if format == "" {
		format = detectContentFormat(content)
	}
	result := &ParseResult{Format: format}

	doc, parseErr := decodeDocument(content, format)
	if parseErr != nil {
		result.Errors = append(result.Errors, *parseErr)
		return result
	}
	if doc == nil {
		return result
	}

	data, ok := doc.(map[string]interface{})
	if !ok {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("invalid query file: expected %s object, got %s", strings.ToUpper(format), describe(doc)),
			Type:    ErrorTypeFormat,
		})
		return result
	}

	result.Data = data
	return result
}

// decodeDocument decodes content of the given format into generic values.
// JSON numbers are kept as json.Number so decimal values stay exact.
func decodeDocument(content string, format string) (interface{}, *ParseError) {
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{
			Message: fmt.Sprintf("empty content: expected %s document", strings.ToUpper(orDefault(format, "json"))),
			Type:    ErrorTypeSyntax,
		}
	}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(strings.NewReader(content))
		dec.UseNumber()
		var doc interface{}
		if err := dec.Decode(&doc); err != nil {
			parseErr := parseJSONError(err, content)
			return nil, &parseErr
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, &ParseError{
				Message: "unexpected content after JSON document",
				Type:    ErrorTypeSyntax,
			}
		}
		return doc, nil

	case FormatYAML:
		var doc interface{}
		if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
			parseErr := parseYAMLError(err)
			return nil, &parseErr
		}
		return doc, nil

	case "":
		return nil, &ParseError{
			Message: "unable to detect format: not valid JSON or YAML",
			Type:    ErrorTypeFormat,
		}

	default:
		return nil, &ParseError{
			Message: fmt.Sprintf("unsupported format: %s", format),
			Type:    ErrorTypeFormat,
		}
	}
}

// parseJSONError extracts detailed error information from a JSON decoding error.
func parseJSONError(err error, content string) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, syntaxErr.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		parseErr.Message = "JSON syntax error: unexpected end of input"
	}

	return parseErr
}

// offsetToLineColumn converts a byte offset to line and column numbers (1-based).
func offsetToLineColumn(content string, offset int64) (line, column int) {
	line, column = 1, 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// parseYAMLError extracts detailed error information from a YAML decoding error.
func parseYAMLError(err error) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
	}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(typeErr.Errors, "; "))
	}

	// yaml.v3 reports locations as "yaml: line X: ..."
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		parseErr.Line = line
	}

	return parseErr
}

// ParseConfig parses and validates a query file.
// Validation is skipped when parsing fails.
func ParseConfig(filepath string) *Result {
	return validated(ParseFile(filepath))
}

// ParseConfigString parses and validates query content from a string.
// If format is empty, it auto-detects from content.
func ParseConfigString(content string, format string) *Result {
	return validated(ParseString(content, format))
}

func validated(parsed *ParseResult) *Result {
	result := &Result{
		Data:        parsed.Data,
		ParseErrors: parsed.Errors,
		FilePath:    parsed.FilePath,
		Format:      parsed.Format,
	}
	if !parsed.IsValid() {
		return result
	}

	result.ValidationErrors = ValidateConfig(parsed.Data).Errors
	return result
}

// DetectFormat detects the format from file extension.
// Returns "json", "yaml", or empty string if format cannot be detected.
func DetectFormat(filepath string) string {
	switch strings.ToLower(path.Ext(filepath)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

func detectContentFormat(content string) string {
	switch {
	case IsJSON(content):
		return FormatJSON
	case IsYAML(content):
		return FormatYAML
	default:
		return ""
	}
}

// IsJSON checks if the content appears to be JSON format.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// IsYAML checks if the content appears to be valid YAML.
// Note: JSON is also valid YAML, so this may return true for JSON content.
func IsYAML(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	return err == nil && data != nil
}

// describe names the JSON type of a decoded value for error messages.
func describe(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, int, int64, uint64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// normalizeJSON re-encodes a document through encoding/json so that YAML
// values (e.g. map[string]interface{} with int values) and JSON values share
// one representation before schema validation.
func normalizeJSON(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
