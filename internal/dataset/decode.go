package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/canectors/recordfilter/pkg/record"
)

// Common errors for record decoding
var (
	// ErrMissingField is returned when a required record field is absent
	ErrMissingField = errors.New("missing required field")
	// ErrWrongType is returned when a record field has an unexpected type
	ErrWrongType = errors.New("wrong field type")
	// ErrNegativeValue is returned when a currency value is negative
	ErrNegativeValue = errors.New("value must not be negative")
	// ErrDuplicateID is returned when two records share an identifier
	ErrDuplicateID = errors.New("duplicate record id")
)

// DecodeError locates a decoding failure within a record list.
type DecodeError struct {
	Kind        record.Kind
	RecordIndex int
	Field       string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s[%d].%s: %v", e.Kind, e.RecordIndex, e.Field, e.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", e.Kind, e.RecordIndex, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode converts generic records of the given kind into d.
func (d *Dataset) Decode(kind record.Kind, raw []map[string]interface{}) error {
	var err error
	switch kind {
	case record.KindUsers:
		d.Users, err = DecodeUsers(raw)
	case record.KindOrders:
		d.Orders, err = DecodeOrders(raw)
	case record.KindProducts:
		d.Products, err = DecodeProducts(raw)
	default:
		err = fmt.Errorf("%w: %q", record.ErrUnknownKind, kind)
	}
	return err
}

// DecodeUsers converts generic records into users.
func DecodeUsers(raw []map[string]interface{}) ([]record.User, error) {
	users := make([]record.User, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for i, m := range raw {
		fail := fieldError(record.KindUsers, i)

		id, err := intField(m, "id")
		if err != nil {
			return nil, fail("id", err)
		}
		if seen[id] {
			return nil, fail("id", fmt.Errorf("%w: %d", ErrDuplicateID, id))
		}
		seen[id] = true

		name, err := stringField(m, "name")
		if err != nil {
			return nil, fail("name", err)
		}

		active, err := boolField(m, "active")
		if err != nil {
			return nil, fail("active", err)
		}

		users = append(users, record.User{ID: id, Name: name, Active: active})
	}
	return users, nil
}

// DecodeOrders converts generic records into orders.
func DecodeOrders(raw []map[string]interface{}) ([]record.Order, error) {
	orders := make([]record.Order, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for i, m := range raw {
		fail := fieldError(record.KindOrders, i)

		id, err := intField(m, "id")
		if err != nil {
			return nil, fail("id", err)
		}
		if seen[id] {
			return nil, fail("id", fmt.Errorf("%w: %d", ErrDuplicateID, id))
		}
		seen[id] = true

		amount, err := amountField(m, "totalAmount")
		if err != nil {
			return nil, fail("totalAmount", err)
		}

		rawStatus, err := stringField(m, "status")
		if err != nil {
			return nil, fail("status", err)
		}
		status, err := record.ParseOrderStatus(rawStatus)
		if err != nil {
			return nil, fail("status", err)
		}

		orders = append(orders, record.Order{ID: id, TotalAmount: amount, Status: status})
	}
	return orders, nil
}

// DecodeProducts converts generic records into products.
func DecodeProducts(raw []map[string]interface{}) ([]record.Product, error) {
	products := make([]record.Product, 0, len(raw))
	for i, m := range raw {
		fail := fieldError(record.KindProducts, i)

		name, err := stringField(m, "name")
		if err != nil {
			return nil, fail("name", err)
		}

		category, err := stringField(m, "category")
		if err != nil {
			return nil, fail("category", err)
		}

		price, err := amountField(m, "price")
		if err != nil {
			return nil, fail("price", err)
		}

		products = append(products, record.Product{Name: name, Category: category, Price: price})
	}
	return products, nil
}

// ToDecimal converts a parsed JSON/YAML scalar into a decimal.
// Strings are parsed exactly; floats go through their shortest decimal form.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not a decimal number", ErrWrongType, n)
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not a decimal number", ErrWrongType, n)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return decimal.Zero, fmt.Errorf("%w: %d overflows", ErrWrongType, n)
		}
		return decimal.NewFromInt(int64(n)), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v is not a finite number", ErrWrongType, n)
		}
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: expected number or decimal string, got %T", ErrWrongType, v)
	}
}

func fieldError(kind record.Kind, index int) func(field string, err error) error {
	return func(field string, err error) error {
		return &DecodeError{Kind: kind, RecordIndex: index, Field: field, Err: err}
	}
}

func lookup(m map[string]interface{}, key string) (interface{}, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, ErrMissingField
	}
	return v, nil
}

func intField(m map[string]interface{}, key string) (int, error) {
	v, err := lookup(m, key)
	if err != nil {
		return 0, err
	}

	var i int64
	switch n := v.(type) {
	case int:
		i = int64(n)
	case int64:
		i = n
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d is out of range", ErrWrongType, n)
		}
		i = int64(n)
	case json.Number:
		if i, err = n.Int64(); err != nil {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrWrongType, n)
		}
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrWrongType, n)
		}
		i = int64(n)
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrWrongType, v)
	}

	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d is out of range", ErrWrongType, i)
	}
	return int(i), nil
}

func stringField(m map[string]interface{}, key string) (string, error) {
	v, err := lookup(m, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrWrongType, v)
	}
	return s, nil
}

func boolField(m map[string]interface{}, key string) (bool, error) {
	v, err := lookup(m, key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected boolean, got %T", ErrWrongType, v)
	}
	return b, nil
}

func amountField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, err := lookup(m, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := ToDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeValue, d)
	}
	return d, nil
}
