package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"github.com/canectors/recordfilter/internal/dataset"
	"github.com/canectors/recordfilter/internal/filter"
	"github.com/canectors/recordfilter/pkg/record"
)

// ErrInvalidQuery is returned when a query document cannot be converted.
var ErrInvalidQuery = errors.New("invalid query")

// Query is a typed query definition. Only the criteria matching Kind are used.
type Query struct {
	Name        string
	Description string
	Kind        record.Kind

	Users    filter.UserCriteria
	Orders   filter.OrderCriteria
	Products filter.ProductCriteria

	// Dataset holds the records to filter; nil selects the built-in samples
	Dataset *dataset.Dataset
}

// criteriaByKind lists the criteria each record kind accepts.
var criteriaByKind = map[record.Kind][]string{
	record.KindUsers:    {filter.CriterionActive},
	record.KindOrders:   {filter.CriterionMinTotal, filter.CriterionStatus},
	record.KindProducts: {filter.CriterionSearchTerm, filter.CriterionCategory, filter.CriterionMinPrice},
}

// ConvertToQuery converts a parsed query document into a Query.
// The document should have been validated against the schema first.
//
// The document is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0.0",
//	  "query": {
//	    "name": "...",
//	    "kind": "orders",
//	    "criteria": {...}
//	  },
//	  "records": [...]
//	}
//
// Criterion type or domain mismatches are returned as a *multierror.Error of
// *filter.CriterionError values; malformed records as *dataset.DecodeError.
func ConvertToQuery(data map[string]interface{}) (*Query, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrInvalidQuery)
	}

	queryData, ok := data["query"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing or invalid 'query' section", ErrInvalidQuery)
	}

	q := &Query{}
	if q.Name, ok = queryData["name"].(string); !ok || q.Name == "" {
		return nil, fmt.Errorf("%w: missing required field 'query.name'", ErrInvalidQuery)
	}
	q.Description, _ = queryData["description"].(string)

	rawKind, _ := queryData["kind"].(string)
	kind, err := record.ParseKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	q.Kind = kind

	if rawCriteria, present := queryData["criteria"]; present && rawCriteria != nil {
		criteria, ok := rawCriteria.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: 'query.criteria' must be an object", ErrInvalidQuery)
		}
		if err := q.setCriteria(criteria); err != nil {
			return nil, err
		}
	}

	if rawRecords, present := data["records"]; present {
		records, parseErr := toRecordList(rawRecords)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, parseErr.Message)
		}
		q.Dataset = &dataset.Dataset{}
		if err := q.Dataset.Decode(kind, records); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// setCriteria converts raw criterion values for the query kind.
// Every rejected criterion is reported, in name order.
func (q *Query) setCriteria(criteria map[string]interface{}) error {
	result := &multierror.Error{}

	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if !slices.Contains(criteriaByKind[q.Kind], name) {
			result = multierror.Append(result, filter.NewInvalidValueError(name, fmt.Sprint(criteria[name]),
				fmt.Errorf("criterion does not apply to %s", q.Kind)))
		}
	}

	switch q.Kind {
	case record.KindUsers:
		if v, ok := criteria[filter.CriterionActive]; ok {
			if active, ok := v.(bool); ok {
				q.Users.Active = &active
			} else {
				result = multierror.Append(result, filter.NewInvalidValueError(filter.CriterionActive, fmt.Sprint(v), errors.New("expected a boolean")))
			}
		}

	case record.KindOrders:
		if v, ok := criteria[filter.CriterionMinTotal]; ok {
			bound, err := boundCriterion(filter.CriterionMinTotal, v)
			if err != nil {
				result = multierror.Append(result, err)
			}
			q.Orders.MinTotal = bound
		}
		if v, ok := criteria[filter.CriterionStatus]; ok {
			raw, ok := v.(string)
			if !ok {
				result = multierror.Append(result, filter.NewInvalidValueError(filter.CriterionStatus, fmt.Sprint(v), errors.New("expected a string")))
				break
			}
			status, err := filter.ParseStatusCriterion(raw)
			if err != nil {
				result = multierror.Append(result, err)
			}
			q.Orders.Status = status
		}

	case record.KindProducts:
		for _, field := range []struct {
			name string
			dst  *string
		}{
			{filter.CriterionSearchTerm, &q.Products.SearchTerm},
			{filter.CriterionCategory, &q.Products.Category},
		} {
			v, ok := criteria[field.name]
			if !ok {
				continue
			}
			s, ok := v.(string)
			if !ok {
				result = multierror.Append(result, filter.NewInvalidValueError(field.name, fmt.Sprint(v), errors.New("expected a string")))
				continue
			}
			*field.dst = s
		}
		if v, ok := criteria[filter.CriterionMinPrice]; ok {
			bound, err := boundCriterion(filter.CriterionMinPrice, v)
			if err != nil {
				result = multierror.Append(result, err)
			}
			q.Products.MinPrice = bound
		}
	}

	return result.ErrorOrNil()
}

// boundCriterion converts a numeric or string bound.
func boundCriterion(name string, v interface{}) (*decimal.Decimal, error) {
	if raw, ok := v.(string); ok {
		return filter.ParseBoundCriterion(name, raw)
	}
	d, err := dataset.ToDecimal(v)
	if err != nil {
		return nil, filter.NewInvalidValueError(name, fmt.Sprint(v), err)
	}
	return filter.ParseBoundCriterion(name, d.String())
}
