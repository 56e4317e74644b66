package filter

import "context"

// criterion is a named predicate. The name is used for logging and output.
type criterion[T any] struct {
	name      string
	predicate Predicate[T]
}

// Query is a validated, immutable set of criteria over records of type T.
// A zero Query has no criteria and matches every record.
type Query[T any] struct {
	criteria []criterion[T]
}

// where appends a named predicate. Only used while a query is being built.
func (q *Query[T]) where(name string, p Predicate[T]) {
	q.criteria = append(q.criteria, criterion[T]{name: name, predicate: p})
}

// predicates returns the compiled predicates in evaluation order.
func (q *Query[T]) predicates() []Predicate[T] {
	if q == nil {
		return nil
	}
	out := make([]Predicate[T], len(q.criteria))
	for i, c := range q.criteria {
		out[i] = c.predicate
	}
	return out
}

// Criteria returns the names of the active criteria in evaluation order.
func (q *Query[T]) Criteria() []string {
	if q == nil {
		return nil
	}
	names := make([]string, len(q.criteria))
	for i, c := range q.criteria {
		names[i] = c.name
	}
	return names
}

// Run returns the matching records in input order. It stops with the
// context error once ctx is done.
func (q *Query[T]) Run(ctx context.Context, records []T) ([]T, error) {
	return ApplyContext(ctx, records, q.predicates()...)
}
