// Package dataset provides record collections for the filter runtime:
// the built-in sample collections and decoding of records parsed from
// JSON/YAML files.
package dataset

import (
	"github.com/shopspring/decimal"

	"github.com/canectors/recordfilter/pkg/record"
)

// Dataset groups one collection per record kind.
type Dataset struct {
	Users    []record.User
	Orders   []record.Order
	Products []record.Product
}

// Len returns the number of records of the given kind.
func (d *Dataset) Len(kind record.Kind) int {
	if d == nil {
		return 0
	}
	switch kind {
	case record.KindUsers:
		return len(d.Users)
	case record.KindOrders:
		return len(d.Orders)
	case record.KindProducts:
		return len(d.Products)
	default:
		return 0
	}
}

// Sample returns a fresh copy of every sample collection.
func Sample() *Dataset {
	return &Dataset{
		Users:    SampleUsers(),
		Orders:   SampleOrders(),
		Products: SampleProducts(),
	}
}

// SampleUsers returns the sample user collection.
func SampleUsers() []record.User {
	return []record.User{
		{ID: 1, Name: "Alice", Active: true},
		{ID: 2, Name: "Bob", Active: false},
		{ID: 3, Name: "Charlie", Active: true},
		{ID: 4, Name: "David", Active: false},
		{ID: 5, Name: "Eve", Active: true},
	}
}

// SampleOrders returns the sample order collection.
func SampleOrders() []record.Order {
	return []record.Order{
		{ID: 1, TotalAmount: decimal.NewFromInt(500), Status: record.OrderStatusCompleted},
		{ID: 2, TotalAmount: decimal.NewFromInt(1500), Status: record.OrderStatusCompleted},
		{ID: 3, TotalAmount: decimal.NewFromInt(750), Status: record.OrderStatusPending},
		{ID: 4, TotalAmount: decimal.NewFromInt(1200), Status: record.OrderStatusCompleted},
		{ID: 5, TotalAmount: decimal.NewFromInt(300), Status: record.OrderStatusCancelled},
	}
}

// SampleProducts returns the sample product collection.
func SampleProducts() []record.Product {
	return []record.Product{
		{Name: "Labtop", Category: "Elec", Price: decimal.NewFromInt(1000)},
		{Name: "TV", Category: "Elec", Price: decimal.NewFromInt(800)},
		{Name: "Phone", Category: "IOS", Price: decimal.NewFromInt(4000)},
	}
}
