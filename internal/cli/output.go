// Package cli provides CLI output formatting and display functions.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/canectors/recordfilter/internal/config"
	"github.com/canectors/recordfilter/internal/runtime"
	"github.com/canectors/recordfilter/pkg/record"
)

// Result output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	// Format is OutputText or OutputJSON
	Format string
}

// SuccessMark returns the check mark prefixed to success lines, green on a terminal.
func SuccessMark() string { return color.GreenString("✓") }

// FailureMark returns the cross prefixed to failure lines, red on a terminal.
func FailureMark() string { return color.RedString("✗") }

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text or json)", name)
	}
}

// FormatUser renders a user as a console line.
func FormatUser(u record.User) string {
	return fmt.Sprintf("Id : %d | Name : %s", u.ID, u.Name)
}

// FormatOrder renders an order as a console line.
func FormatOrder(o record.Order) string {
	return fmt.Sprintf("Order ID: %d, Total Amount: %s, Status: %s", o.ID, o.TotalAmount, o.Status)
}

// FormatProduct renders a product as a console line.
func FormatProduct(p record.Product) string {
	return fmt.Sprintf("Name : %s | Category : %s | Price : %s", p.Name, p.Category, p.Price)
}

// jsonResult is the --output json document.
type jsonResult struct {
	QueryID   string      `json:"queryId"`
	QueryName string      `json:"queryName,omitempty"`
	Kind      record.Kind `json:"kind"`
	Criteria  []string    `json:"criteria"`
	Total     int         `json:"total"`
	Matched   int         `json:"matched"`
	Records   interface{} `json:"records"`
}

// PrintResult writes the matched records of result to w, one line per
// record in text mode or as a single JSON document.
func PrintResult(w io.Writer, result *runtime.Result, opts OutputOptions) error {
	if result == nil {
		return fmt.Errorf("no execution result available")
	}

	if opts.Format == OutputJSON {
		doc := jsonResult{
			QueryID:   result.QueryID,
			QueryName: result.QueryName,
			Kind:      result.Kind,
			Criteria:  result.Criteria,
			Total:     result.Total,
			Matched:   result.Matched,
			Records:   records(result),
		}
		if doc.Criteria == nil {
			doc.Criteria = []string{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	var lines []string
	switch result.Kind {
	case record.KindUsers:
		for _, u := range result.Users {
			lines = append(lines, FormatUser(u))
		}
	case record.KindOrders:
		for _, o := range result.Orders {
			lines = append(lines, FormatOrder(o))
		}
	case record.KindProducts:
		for _, p := range result.Products {
			lines = append(lines, FormatProduct(p))
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// records returns the populated record slice of result, never nil.
func records(result *runtime.Result) interface{} {
	switch result.Kind {
	case record.KindUsers:
		if result.Users != nil {
			return result.Users
		}
		return []record.User{}
	case record.KindOrders:
		if result.Orders != nil {
			return result.Orders
		}
		return []record.Order{}
	case record.KindProducts:
		if result.Products != nil {
			return result.Products
		}
		return []record.Product{}
	default:
		return []interface{}{}
	}
}

// PrintSummary writes a one-line summary of a successful execution.
func PrintSummary(w io.Writer, result *runtime.Result, opts OutputOptions) {
	if opts.Quiet || result == nil {
		return
	}

	fmt.Fprintf(w, "%s %s of %s %s matched\n", SuccessMark(),
		humanize.Comma(int64(result.Matched)), humanize.Comma(int64(result.Total)), result.Kind)
	if opts.Verbose {
		criteria := "none"
		if len(result.Criteria) > 0 {
			criteria = strings.Join(result.Criteria, ", ")
		}
		fmt.Fprintf(w, "  Query ID: %s\n", result.QueryID)
		fmt.Fprintf(w, "  Criteria: %s\n", criteria)
		fmt.Fprintf(w, "  Duration: %v\n", result.Duration())
	}
}

// PrintExecutionError writes a failed execution to w.
func PrintExecutionError(w io.Writer, result *runtime.Result, err error) {
	fmt.Fprintln(w, FailureMark(), "Query execution failed")
	if result != nil && result.Error != nil {
		fmt.Fprintf(w, "  Code: %s\n", result.Error.Code)
		fmt.Fprintf(w, "  Error: %s\n", result.Error.Message)
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  Error: %v\n", err)
	}
}

// PrintQuerySummary prints the query name, kind and criteria of a query file.
func PrintQuerySummary(w io.Writer, q *config.Query) {
	if q == nil {
		return
	}

	fmt.Fprintf(w, "  Query: %s\n", q.Name)
	if q.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", q.Description)
	}
	fmt.Fprintf(w, "  Kind: %s\n", q.Kind)
	if q.Dataset != nil {
		fmt.Fprintf(w, "  Inline records: %s\n", humanize.Comma(int64(q.Dataset.Len(q.Kind))))
	}
}
