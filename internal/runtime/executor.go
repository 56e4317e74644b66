// Package runtime provides the query execution engine.
// It builds a typed query from a query definition, selects the records to
// scan and applies the query to them.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/canectors/recordfilter/internal/config"
	"github.com/canectors/recordfilter/internal/dataset"
	"github.com/canectors/recordfilter/internal/filter"
	"github.com/canectors/recordfilter/internal/logger"
	"github.com/canectors/recordfilter/pkg/record"
)

// Error codes for query execution errors
const (
	ErrCodeInvalidQuery = "INVALID_QUERY"
	ErrCodeCanceled     = "CANCELED"
)

// Execution status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Common errors
var (
	// ErrNilQuery is returned when the query definition is nil
	ErrNilQuery = errors.New("query definition is nil")

	// ErrUnknownKind is returned when the query names no supported record kind
	ErrUnknownKind = record.ErrUnknownKind
)

// ExecutionError describes why a query did not run.
type ExecutionError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Criterion string `json:"criterion,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Result is the outcome of one query execution.
// Only the record slice matching Kind is populated.
type Result struct {
	QueryID   string
	QueryName string
	Kind      record.Kind
	// Criteria lists the active criteria in evaluation order
	Criteria []string
	Status   string

	// Total is the number of records scanned, Matched the number kept
	Total   int
	Matched int

	Users    []record.User
	Orders   []record.Order
	Products []record.Product

	StartedAt   time.Time
	CompletedAt time.Time
	Error       *ExecutionError
}

// Duration returns the wall time of the execution.
func (r *Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

func (r *Result) logContext() logger.QueryContext {
	return logger.QueryContext{
		QueryID:   r.QueryID,
		QueryName: r.QueryName,
		Kind:      string(r.Kind),
		Criteria:  r.Criteria,
	}
}

// Executor runs query definitions against a dataset.
type Executor struct {
	data *dataset.Dataset
}

// NewExecutor creates an executor that scans data when a query carries no
// records of its own. A nil data set selects the built-in sample records.
func NewExecutor(data *dataset.Dataset) *Executor {
	return &Executor{data: data}
}

// Execute runs a query definition with a background context.
//
// For cancellation support, use ExecuteWithContext instead.
func (e *Executor) Execute(q *config.Query) (*Result, error) {
	return e.ExecuteWithContext(context.Background(), q)
}

// ExecuteWithContext runs a query definition with the given context.
//
// Execution flow:
//  1. Build the typed query for q.Kind, rejecting invalid criteria
//  2. Select q.Dataset, the executor's dataset or the sample records
//  3. Apply the query and collect the matches in input order
//
// Matching nothing is a success. The result is returned alongside any error.
func (e *Executor) ExecuteWithContext(ctx context.Context, q *config.Query) (*Result, error) {
	result := &Result{
		QueryID:   uuid.NewString(),
		Status:    StatusError,
		StartedAt: time.Now(),
	}

	if q == nil {
		logger.Error("query execution failed: nil query definition")
		return e.fail(result, ErrNilQuery)
	}
	result.QueryName = q.Name
	result.Kind = q.Kind

	data := e.selectDataset(q)

	var err error
	switch q.Kind {
	case record.KindUsers:
		var query *filter.Query[record.User]
		if query, err = filter.NewUserQuery(q.Users); err == nil {
			result.Users, err = runQuery(ctx, result, query, data.Users)
		}
	case record.KindOrders:
		var query *filter.Query[record.Order]
		if query, err = filter.NewOrderQuery(q.Orders); err == nil {
			result.Orders, err = runQuery(ctx, result, query, data.Orders)
		}
	case record.KindProducts:
		var query *filter.Query[record.Product]
		if query, err = filter.NewProductQuery(q.Products); err == nil {
			result.Products, err = runQuery(ctx, result, query, data.Products)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}
	if err != nil {
		return e.fail(result, err)
	}

	result.Status = StatusSuccess
	result.CompletedAt = time.Now()
	logger.LogQueryEnd(result.logContext(), result.Total, result.Matched, result.Duration())
	return result, nil
}

// selectDataset picks the records a query scans.
func (e *Executor) selectDataset(q *config.Query) *dataset.Dataset {
	switch {
	case q.Dataset != nil:
		return q.Dataset
	case e.data != nil:
		return e.data
	default:
		return dataset.Sample()
	}
}

// runQuery applies query to records, checking ctx between records.
// The returned slice is never nil.
func runQuery[T any](ctx context.Context, result *Result, query *filter.Query[T], records []T) ([]T, error) {
	result.Criteria = query.Criteria()
	result.Total = len(records)
	logger.LogQueryStart(result.logContext(), len(records))

	matched, err := query.Run(ctx, records)
	if err != nil {
		logger.Debug("query canceled",
			slog.String("query_id", result.QueryID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("query canceled: %w", err)
	}
	result.Matched = len(matched)
	return matched, nil
}

// fail completes result with err and logs it.
func (e *Executor) fail(result *Result, err error) (*Result, error) {
	result.Status = StatusError
	result.CompletedAt = time.Now()
	result.Error = buildExecutionError(err)

	errCtx := logger.ErrorContext{
		QueryID:      result.QueryID,
		QueryName:    result.QueryName,
		Kind:         string(result.Kind),
		ErrorCode:    result.Error.Code,
		ErrorMessage: result.Error.Message,
		Err:          err,
		Criterion:    result.Error.Criterion,
		Value:        result.Error.Value,
	}
	logger.LogError("query execution failed", errCtx)
	return result, err
}

// buildExecutionError classifies err into an ExecutionError.
func buildExecutionError(err error) *ExecutionError {
	ex := &ExecutionError{
		Code:    ErrCodeInvalidQuery,
		Message: err.Error(),
	}

	var critErr *filter.CriterionError
	switch {
	case errors.As(err, &critErr):
		ex.Code = critErr.Code
		ex.Criterion = critErr.Criterion
		ex.Value = critErr.Value
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ex.Code = ErrCodeCanceled
	}
	return ex
}
