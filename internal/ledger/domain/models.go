package domain

import (
	"context"
	"errors"
	"time"
)

const StatusPaid = "paid"

var (
	ErrUpstream      = errors.New("ledger_upstream_error")
	ErrNotConfigured = errors.New("ledger_not_configured")
	ErrInvalidCursor = errors.New("ledger_invalid_cursor")
)

// Invoice is a read-only payment record pulled from the payment provider.
type Invoice struct {
	ID             string
	AmountPaid     int64
	Currency       string
	SubscriptionID string
	CreatedAt      time.Time
	PaidAt         *time.Time
	Lines          []InvoiceLine
}

// InvoiceLine references the price, and through it the product, a line bills for.
type InvoiceLine struct {
	PriceID   string
	ProductID string
}

// HasSubscription reports whether the record is tied to a recurring subscription.
func (i Invoice) HasSubscription() bool {
	return i.SubscriptionID != ""
}

// SettledAt is the paid instant, falling back to creation when the provider
// did not report a payment transition.
func (i Invoice) SettledAt() time.Time {
	if i.PaidAt != nil && !i.PaidAt.IsZero() {
		return *i.PaidAt
	}
	return i.CreatedAt
}

// PrimaryProductID returns the product referenced by the first line item only.
// Multi-line invoices attribute their full amount to that product.
func (i Invoice) PrimaryProductID() (string, bool) {
	if len(i.Lines) == 0 {
		return "", false
	}
	first := i.Lines[0]
	if first.PriceID == "" || first.ProductID == "" {
		return "", false
	}
	return first.ProductID, true
}

// TimeRange bounds record creation, inclusive on both ends.
type TimeRange struct {
	From time.Time
	To   time.Time
}

type ListInvoicesRequest struct {
	Status  string
	Created *TimeRange
	Cursor  string
}

// InvoicePage is one page from the provider. NextCursor is opaque.
type InvoicePage struct {
	Invoices   []Invoice
	HasMore    bool
	NextCursor string
}

// Source is a paginated payment ledger.
type Source interface {
	ListInvoices(ctx context.Context, req ListInvoicesRequest) (InvoicePage, error)
}
