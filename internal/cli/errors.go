package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/canectors/recordfilter/internal/config"
	"github.com/canectors/recordfilter/internal/dataset"
	"github.com/canectors/recordfilter/internal/filter"
)

// PrintParseErrors prints parse errors to w.
func PrintParseErrors(w io.Writer, errs []config.ParseError, verbose bool) {
	fmt.Fprintln(w, FailureMark(), "Parse errors:")
	for _, err := range errs {
		printSingleParseError(w, err, verbose)
	}
}

// printSingleParseError prints a single parse error with location information.
func printSingleParseError(w io.Writer, err config.ParseError, verbose bool) {
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(w, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(w, "  %s\n", err.Message)
	}

	if verbose && err.Type != "" {
		fmt.Fprintf(w, "    Type: %s\n", err.Type)
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints validation errors to w.
func PrintValidationErrors(w io.Writer, errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, FailureMark(), "Validation errors:")
	for _, err := range errs {
		printSingleValidationError(w, err, verbose)
	}
	printValidationHint(w, verbose || quiet)
}

func printSingleValidationError(w io.Writer, err config.ValidationError, verbose bool) {
	path := err.Path
	if path == "" {
		path = "/"
	}

	if !verbose {
		shortMsg := err.Message
		if runes := []rune(shortMsg); len(runes) > 80 {
			shortMsg = string(runes[:77]) + "..."
		}
		fmt.Fprintf(w, "  %s: %s\n", path, shortMsg)
		return
	}

	fmt.Fprintf(w, "  %s:\n", path)
	fmt.Fprintf(w, "    Message: %s\n", err.Message)
	if err.Type != "" {
		fmt.Fprintf(w, "    Type: %s\n", err.Type)
	}
	if err.Expected != "" {
		fmt.Fprintf(w, "    Expected: %s\n", err.Expected)
	}
}

func printValidationHint(w io.Writer, suppress bool) {
	if !suppress {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}

// PrintQueryError prints rejected criteria, an invalid query document or
// malformed record data.
func PrintQueryError(w io.Writer, err error, verbose bool) {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		var critErrs []*filter.CriterionError
		for _, e := range merr.Errors {
			var critErr *filter.CriterionError
			if !errors.As(e, &critErr) {
				printSingleQueryError(w, e, verbose)
				continue
			}
			critErrs = append(critErrs, critErr)
		}
		printCriterionErrors(w, critErrs, verbose)
		return
	}
	printSingleQueryError(w, err, verbose)
}

func printSingleQueryError(w io.Writer, err error, verbose bool) {
	var critErr *filter.CriterionError
	var decodeErr *dataset.DecodeError

	switch {
	case errors.As(err, &critErr):
		printCriterionErrors(w, []*filter.CriterionError{critErr}, verbose)
	case errors.As(err, &decodeErr):
		fmt.Fprintln(w, FailureMark(), "Invalid records:")
		fmt.Fprintf(w, "  %s\n", decodeErr.Error())
	default:
		fmt.Fprintln(w, FailureMark(), "Invalid query:")
		fmt.Fprintf(w, "  %v\n", err)
	}
}

func printCriterionErrors(w io.Writer, errs []*filter.CriterionError, verbose bool) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(w, FailureMark(), "Invalid criterion:")
	for _, critErr := range errs {
		if critErr.Value != "" {
			fmt.Fprintf(w, "  %s=%s: %s\n", critErr.Criterion, critErr.Value, critErr.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", critErr.Criterion, critErr.Message)
		}
		if verbose {
			fmt.Fprintf(w, "    Code: %s\n", critErr.Code)
		}
	}
}

// IsQueryError reports whether err rejects the query itself rather than
// failing while it runs.
func IsQueryError(err error) bool {
	var critErr *filter.CriterionError
	var decodeErr *dataset.DecodeError
	return errors.As(err, &critErr) ||
		errors.As(err, &decodeErr) ||
		errors.Is(err, config.ErrInvalidQuery)
}
