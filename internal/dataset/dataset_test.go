package dataset

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/canectors/recordfilter/pkg/record"
)

func TestSample_ReturnsFreshCopies(t *testing.T) {
	first := SampleUsers()
	first[0].Name = "Mallory"

	second := SampleUsers()
	if second[0].Name != "Alice" {
		t.Errorf("sample data shared between calls: got %q", second[0].Name)
	}
}

func TestSample_Len(t *testing.T) {
	d := Sample()

	tests := []struct {
		kind record.Kind
		want int
	}{
		{record.KindUsers, 5},
		{record.KindOrders, 5},
		{record.KindProducts, 3},
		{record.Kind("invoices"), 0},
	}
	for _, tt := range tests {
		if got := d.Len(tt.kind); got != tt.want {
			t.Errorf("Len(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}

	var empty *Dataset
	if got := empty.Len(record.KindUsers); got != 0 {
		t.Errorf("nil Len() = %d, want 0", got)
	}
}

func TestDecodeUsers(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": 1, "name": "Alice", "active": true},
		{"id": float64(2), "name": "Bob", "active": false},
	}

	got, err := DecodeUsers(raw)
	if err != nil {
		t.Fatalf("DecodeUsers() error = %v", err)
	}

	want := []record.User{
		{ID: 1, Name: "Alice", Active: true},
		{ID: 2, Name: "Bob", Active: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeUsers() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOrders(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": 1, "totalAmount": 500, "status": "Completed"},
		{"id": 2, "totalAmount": "1000.01", "status": "pending"},
		{"id": 3, "totalAmount": 12.5, "status": "Cancelled"},
	}

	got, err := DecodeOrders(raw)
	if err != nil {
		t.Fatalf("DecodeOrders() error = %v", err)
	}

	want := []record.Order{
		{ID: 1, TotalAmount: decimal.NewFromInt(500), Status: record.OrderStatusCompleted},
		{ID: 2, TotalAmount: decimal.RequireFromString("1000.01"), Status: record.OrderStatusPending},
		{ID: 3, TotalAmount: decimal.RequireFromString("12.5"), Status: record.OrderStatusCancelled},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeOrders() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeProducts(t *testing.T) {
	raw := []map[string]interface{}{
		{"name": "TV", "category": "Elec", "price": 800},
	}

	got, err := DecodeProducts(raw)
	if err != nil {
		t.Fatalf("DecodeProducts() error = %v", err)
	}

	want := []record.Product{{Name: "TV", Category: "Elec", Price: decimal.NewFromInt(800)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeProducts() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		kind      record.Kind
		raw       []map[string]interface{}
		wantErr   error
		wantField string
		wantIndex int
	}{
		{
			name:      "missing name",
			kind:      record.KindUsers,
			raw:       []map[string]interface{}{{"id": 1, "active": true}},
			wantErr:   ErrMissingField,
			wantField: "name",
		},
		{
			name:      "active is not a boolean",
			kind:      record.KindUsers,
			raw:       []map[string]interface{}{{"id": 1, "name": "A", "active": "yes"}},
			wantErr:   ErrWrongType,
			wantField: "active",
		},
		{
			name: "duplicate user id",
			kind: record.KindUsers,
			raw: []map[string]interface{}{
				{"id": 1, "name": "A", "active": true},
				{"id": 1, "name": "B", "active": true},
			},
			wantErr:   ErrDuplicateID,
			wantField: "id",
			wantIndex: 1,
		},
		{
			name:      "fractional id",
			kind:      record.KindOrders,
			raw:       []map[string]interface{}{{"id": 1.5, "totalAmount": 1, "status": "Pending"}},
			wantErr:   ErrWrongType,
			wantField: "id",
		},
		{
			name:      "negative amount",
			kind:      record.KindOrders,
			raw:       []map[string]interface{}{{"id": 1, "totalAmount": -1, "status": "Pending"}},
			wantErr:   ErrNegativeValue,
			wantField: "totalAmount",
		},
		{
			name:      "unknown status",
			kind:      record.KindOrders,
			raw:       []map[string]interface{}{{"id": 1, "totalAmount": 1, "status": "Shipped"}},
			wantErr:   record.ErrUnknownStatus,
			wantField: "status",
		},
		{
			name:      "price is not a number",
			kind:      record.KindProducts,
			raw:       []map[string]interface{}{{"name": "TV", "category": "Elec", "price": "cheap"}},
			wantErr:   ErrWrongType,
			wantField: "price",
		},
		{
			name:      "json number id out of range",
			kind:      record.KindUsers,
			raw:       []map[string]interface{}{{"id": json.Number("4294967296"), "name": "A", "active": true}},
			wantErr:   ErrWrongType,
			wantField: "id",
		},
		{
			name:      "yaml int64 id out of range",
			kind:      record.KindUsers,
			raw:       []map[string]interface{}{{"id": int64(4294967296), "name": "A", "active": true}},
			wantErr:   ErrWrongType,
			wantField: "id",
		},
		{
			name:      "yaml uint64 id out of range",
			kind:      record.KindOrders,
			raw:       []map[string]interface{}{{"id": uint64(18446744073709551615), "totalAmount": 1, "status": "Pending"}},
			wantErr:   ErrWrongType,
			wantField: "id",
		},
		{
			name:      "negative price",
			kind:      record.KindProducts,
			raw:       []map[string]interface{}{{"name": "TV", "category": "Elec", "price": "-0.01"}},
			wantErr:   ErrNegativeValue,
			wantField: "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dataset{}
			err := d.Decode(tt.kind, tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if decodeErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", decodeErr.Field, tt.wantField)
			}
			if decodeErr.RecordIndex != tt.wantIndex {
				t.Errorf("RecordIndex = %d, want %d", decodeErr.RecordIndex, tt.wantIndex)
			}
		})
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	d := &Dataset{}
	if err := d.Decode(record.Kind("invoices"), nil); !errors.Is(err, record.ErrUnknownKind) {
		t.Errorf("Decode() error = %v, want ErrUnknownKind", err)
	}
}

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    string
		wantErr bool
	}{
		{name: "int", in: 1000, want: "1000"},
		{name: "int64", in: int64(7), want: "7"},
		{name: "uint64", in: uint64(9), want: "9"},
		{name: "float", in: 1000.01, want: "1000.01"},
		{name: "string", in: " 80.50 ", want: "80.5"},
		{name: "json number", in: json.Number("1000.01"), want: "1000.01"},
		{name: "bad json number", in: json.Number("1e"), wantErr: true},
		{name: "bad string", in: "eighty", wantErr: true},
		{name: "bool", in: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToDecimal(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ToDecimal(%v) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToDecimal(%v) error = %v", tt.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ToDecimal(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeOrders_JSONNumbers(t *testing.T) {
	orders, err := DecodeOrders([]map[string]interface{}{
		{"id": json.Number("2"), "totalAmount": json.Number("1000.01"), "status": "completed"},
	})
	if err != nil {
		t.Fatalf("DecodeOrders() error = %v", err)
	}

	want := []record.Order{{ID: 2, TotalAmount: decimal.RequireFromString("1000.01"), Status: record.OrderStatusCompleted}}
	if diff := cmp.Diff(want, orders); diff != "" {
		t.Errorf("DecodeOrders() mismatch (-want +got):\n%s", diff)
	}
}
