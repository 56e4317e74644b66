// Package record provides the public record types filtered by the runtime.
// This package is intended to be importable by external projects that build
// their own collections and hand them to the filter engine.
package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Common errors for record parsing
var (
	// ErrUnknownStatus is returned when an order status is outside the closed set
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrUnknownKind is returned when a record kind is not supported
	ErrUnknownKind = errors.New("unknown record kind")
)

// User represents a user account.
type User struct {
	// ID is unique within a collection
	ID int `json:"id"`

	// Name is the display name of the user
	Name string `json:"name"`

	// Active indicates whether the account is active
	Active bool `json:"active"`
}

// Order represents a customer order.
type Order struct {
	// ID is unique within a collection
	ID int `json:"id"`

	// TotalAmount is the non-negative order total
	TotalAmount decimal.Decimal `json:"totalAmount"`

	// Status is the order lifecycle status
	Status OrderStatus `json:"status"`
}

// Product represents a catalog product.
type Product struct {
	// Name is the product name
	Name string `json:"name"`

	// Category is the catalog category
	Category string `json:"category"`

	// Price is the non-negative unit price
	Price decimal.Decimal `json:"price"`
}

// OrderStatus is the lifecycle status of an order.
type OrderStatus int

// Order status values. The set is closed.
const (
	OrderStatusPending OrderStatus = iota
	OrderStatusCompleted
	OrderStatusCancelled
)

var orderStatusNames = [...]string{
	OrderStatusPending:   "Pending",
	OrderStatusCompleted: "Completed",
	OrderStatusCancelled: "Cancelled",
}

// OrderStatuses returns all valid order statuses in declaration order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled}
}

// Valid reports whether s is one of the declared statuses.
func (s OrderStatus) Valid() bool {
	return s >= OrderStatusPending && s <= OrderStatusCancelled
}

// String returns the canonical status name.
func (s OrderStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
	return orderStatusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s OrderStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseOrderStatus parses a status name. Matching ignores case and
// surrounding whitespace.
func ParseOrderStatus(s string) (OrderStatus, error) {
	name := strings.TrimSpace(s)
	for _, status := range OrderStatuses() {
		if strings.EqualFold(name, orderStatusNames[status]) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownStatus, s, strings.Join(orderStatusNames[:], ", "))
}

// Kind identifies one of the supported record collections.
type Kind string

// Supported record kinds
const (
	KindUsers    Kind = "users"
	KindOrders   Kind = "orders"
	KindProducts Kind = "products"
)

// Kinds returns all supported record kinds.
func Kinds() []Kind {
	return []Kind{KindUsers, KindOrders, KindProducts}
}

// ParseKind parses a record kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindUsers, KindOrders, KindProducts:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}
