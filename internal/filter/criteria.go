package filter

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/canectors/recordfilter/internal/logger"
	"github.com/canectors/recordfilter/pkg/record"
)

// Criterion names as they appear in query files, flags and logs
const (
	CriterionActive     = "active"
	CriterionMinTotal   = "minTotal"
	CriterionStatus     = "status"
	CriterionSearchTerm = "searchTerm"
	CriterionCategory   = "category"
	CriterionMinPrice   = "minPrice"
)

// UserCriteria holds the optional criteria for users.
// A nil field imposes no constraint.
type UserCriteria struct {
	// Active keeps users whose active flag equals the value
	Active *bool
}

// OrderCriteria holds the optional criteria for orders.
type OrderCriteria struct {
	// MinTotal keeps orders whose total is strictly greater than the value
	MinTotal *decimal.Decimal
	// Status keeps orders with exactly this status
	Status *record.OrderStatus
}

// ProductCriteria holds the optional criteria for products.
// Blank text fields impose no constraint.
type ProductCriteria struct {
	// SearchTerm keeps products whose name contains the term (case-sensitive)
	SearchTerm string
	// Category keeps products whose category equals the value exactly
	Category string
	// MinPrice keeps products whose price is at least the value
	MinPrice *decimal.Decimal
}

// NewUserQuery builds a query from user criteria.
func NewUserQuery(c UserCriteria) (*Query[record.User], error) {
	q := &Query[record.User]{}
	if c.Active != nil {
		active := *c.Active
		q.where(CriterionActive, func(u record.User) bool {
			return u.Active == active
		})
	}

	logger.Debug("user query built",
		slog.Any("criteria", q.Criteria()),
		slog.String("active", formatBool(c.Active)),
	)
	return q, nil
}

// NewOrderQuery builds a query from order criteria.
// Returns a *CriterionError for a negative MinTotal or an unknown Status.
func NewOrderQuery(c OrderCriteria) (*Query[record.Order], error) {
	q := &Query[record.Order]{}

	if c.MinTotal != nil {
		minTotal := *c.MinTotal
		if minTotal.IsNegative() {
			return nil, newCriterionError(ErrCodeNegativeBound, CriterionMinTotal, minTotal.String(),
				"minimum total must not be negative", ErrNegativeBound)
		}
		q.where(CriterionMinTotal, func(o record.Order) bool {
			return o.TotalAmount.GreaterThan(minTotal)
		})
	}

	if c.Status != nil {
		status := *c.Status
		if !status.Valid() {
			return nil, newCriterionError(ErrCodeUnknownStatus, CriterionStatus, strconv.Itoa(int(status)),
				"status must be one of Pending, Completed, Cancelled", ErrUnknownStatus)
		}
		q.where(CriterionStatus, func(o record.Order) bool {
			return o.Status == status
		})
	}

	logger.Debug("order query built",
		slog.Any("criteria", q.Criteria()),
		slog.String("min_total", formatDecimal(c.MinTotal)),
	)
	return q, nil
}

// NewProductQuery builds a query from product criteria.
// Returns a *CriterionError for a negative MinPrice.
func NewProductQuery(c ProductCriteria) (*Query[record.Product], error) {
	q := &Query[record.Product]{}

	if !isBlank(c.SearchTerm) {
		term := c.SearchTerm
		q.where(CriterionSearchTerm, func(p record.Product) bool {
			return strings.Contains(p.Name, term)
		})
	}

	if !isBlank(c.Category) {
		category := c.Category
		q.where(CriterionCategory, func(p record.Product) bool {
			return p.Category == category
		})
	}

	if c.MinPrice != nil {
		minPrice := *c.MinPrice
		if minPrice.IsNegative() {
			return nil, newCriterionError(ErrCodeNegativeBound, CriterionMinPrice, minPrice.String(),
				"minimum price must not be negative", ErrNegativeBound)
		}
		q.where(CriterionMinPrice, func(p record.Product) bool {
			return p.Price.GreaterThanOrEqual(minPrice)
		})
	}

	logger.Debug("product query built",
		slog.Any("criteria", q.Criteria()),
		slog.String("min_price", formatDecimal(c.MinPrice)),
	)
	return q, nil
}

// ParseStatusCriterion parses a raw status value into a status criterion.
// Blank text is an absent criterion: both return values are nil.
func ParseStatusCriterion(raw string) (*record.OrderStatus, error) {
	if isBlank(raw) {
		return nil, nil
	}
	status, err := record.ParseOrderStatus(raw)
	if err != nil {
		return nil, newCriterionError(ErrCodeUnknownStatus, CriterionStatus, raw,
			"status must be one of Pending, Completed, Cancelled", ErrUnknownStatus)
	}
	return &status, nil
}

// ParseBoundCriterion parses a raw decimal lower bound for the named criterion.
// Blank text is an absent criterion: both return values are nil.
func ParseBoundCriterion(name, raw string) (*decimal.Decimal, error) {
	if isBlank(raw) {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, NewInvalidValueError(name, raw, err)
	}
	if d.IsNegative() {
		return nil, newCriterionError(ErrCodeNegativeBound, name, raw,
			"bound must not be negative", ErrNegativeBound)
	}
	return &d, nil
}

// isBlank reports whether s is empty or whitespace only.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func formatBool(b *bool) string {
	if b == nil {
		return "unset"
	}
	return strconv.FormatBool(*b)
}

func formatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "unset"
	}
	return d.String()
}
