// Package config reads query files and record data files (JSON or YAML),
// validates query files against the embedded schema and converts them into
// typed queries.
package config

import "fmt"

// File formats and parse error categories.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	ErrorTypeIO     = "io"
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)

// ParseResult is a decoded document before schema validation.
type ParseResult struct {
	Data     map[string]interface{}
	Errors   []ParseError
	FilePath string // empty when parsed from a string
	Format   string
}

// IsValid reports whether the document decoded without errors.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ParseError locates a read or decode failure. Line and Column are 1-based
// and zero when unknown.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Type    string // ErrorTypeIO, ErrorTypeSyntax or ErrorTypeFormat
}

func (e ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	default:
		return e.Message
	}
}

// ValidationResult holds the schema violations of a query document.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError is one schema violation. Path is a JSON pointer into the
// document, such as "/query/kind".
type ValidationError struct {
	Path     string
	Type     string // schema keyword: required, type, enum, pattern...
	Expected string
	Message  string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Result is a query file after parsing and, when parsing succeeded, schema
// validation. Validation is skipped for documents with parse errors.
type Result struct {
	Data             map[string]interface{}
	ParseErrors      []ParseError
	ValidationErrors []ValidationError
	FilePath         string
	Format           string
}
