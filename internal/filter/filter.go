// Package filter provides the record filter engine.
// A filter is an ordered set of predicates; a record is kept only when every
// predicate holds. Filtering never mutates or retains the input collection.
package filter

import (
	"context"
	"fmt"
)

// Predicate reports whether a record satisfies a criterion.
type Predicate[T any] func(T) bool

// Apply returns the records satisfying every predicate, in input order.
// Nil predicates are ignored. With no predicates the result is a copy of
// records. The result is never nil.
func Apply[T any](records []T, criteria ...Predicate[T]) []T {
	result := make([]T, 0, len(records))
	for _, r := range records {
		if matchAll(r, criteria) {
			result = append(result, r)
		}
	}
	return result
}

// ApplyContext is Apply that checks ctx before each record. Once ctx is done
// no further record is evaluated and the context error is returned.
func ApplyContext[T any](ctx context.Context, records []T, criteria ...Predicate[T]) ([]T, error) {
	var ctxErr error
	scanned := 0
	live := func(T) bool {
		if ctxErr != nil {
			return false
		}
		if ctxErr = ctx.Err(); ctxErr != nil {
			return false
		}
		scanned++
		return true
	}

	result := Apply(records, append([]Predicate[T]{live}, criteria...)...)
	if ctxErr != nil {
		return nil, fmt.Errorf("scan stopped after %d records: %w", scanned, ctxErr)
	}
	return result, nil
}

// matchAll evaluates predicates in order and stops at the first failure.
func matchAll[T any](r T, criteria []Predicate[T]) bool {
	for _, p := range criteria {
		if p != nil && !p(r) {
			return false
		}
	}
	return true
}
