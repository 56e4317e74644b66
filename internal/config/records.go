package config

import (
	"fmt"
	"os"
)

// ParseRecordsFile parses a record data file. The document is either a list
// of record objects or an object holding that list under "records".
func ParseRecordsFile(filepath string) ([]map[string]interface{}, []ParseError) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, []ParseError{{
			Path:    filepath,
			Message: fmt.Sprintf("failed to read file: %v", err),
			Type:    ErrorTypeIO,
		}}
	}

	format := DetectFormat(filepath)
	if format == "" {
		format = detectContentFormat(string(content))
	}

	records, parseErr := ParseRecordsString(string(content), format)
	if parseErr != nil {
		parseErr.Path = filepath
		return nil, []ParseError{*parseErr}
	}
	return records, nil
}

// ParseRecordsString parses record data from a string.
func ParseRecordsString(content string, format string) ([]map[string]interface{}, *ParseError) {
	if format == "" {
		format = detectContentFormat(content)
	}

	doc, parseErr := decodeDocument(content, format)
	if parseErr != nil {
		return nil, parseErr
	}

	if m, ok := doc.(map[string]interface{}); ok {
		inner, found := m["records"]
		if !found {
			return nil, &ParseError{
				Message: "invalid data file: object has no 'records' list",
				Type:    ErrorTypeFormat,
			}
		}
		doc = inner
	}

	return toRecordList(doc)
}

// toRecordList converts a decoded list into record maps.
func toRecordList(doc interface{}) ([]map[string]interface{}, *ParseError) {
	if doc == nil {
		return []map[string]interface{}{}, nil
	}

	items, ok := doc.([]interface{})
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid data file: expected a list of records, got %s", describe(doc)),
			Type:    ErrorTypeFormat,
		}
	}

	records := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &ParseError{
				Message: fmt.Sprintf("invalid data file: record %d is a %s, expected an object", i, describe(item)),
				Type:    ErrorTypeFormat,
			}
		}
		records = append(records, m)
	}
	return records, nil
}
