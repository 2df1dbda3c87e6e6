package service

import (
	"context"
	"time"

	"github.com/smallbiznis/civicdash/internal/catalog"
	ledgerdomain "github.com/smallbiznis/civicdash/internal/ledger/domain"
	"github.com/smallbiznis/civicdash/internal/membershipmetrics/domain"
	"github.com/smallbiznis/civicdash/internal/observability/metrics"
)

// revenueTotals are per-bucket sums in minor currency units.
type revenueTotals struct {
	membership []int64
	other      []int64
}

type lifecycleCounts struct {
	created  []int
	renewals []int
	churns   []int
}

// revenueByCategory sums paid subscription invoices inside the window into
// membership or other revenue, attributing each invoice to its first line item.
func (s *Service) revenueByCategory(ctx context.Context, w window, cat catalog.Catalog) (revenueTotals, error) {
	totals := revenueTotals{
		membership: make([]int64, len(w.buckets)),
		other:      make([]int64, len(w.buckets)),
	}

	req := ledgerdomain.ListInvoicesRequest{
		Status:  ledgerdomain.StatusPaid,
		Created: &ledgerdomain.TimeRange{From: w.start(), To: w.end()},
	}
	err := ledgerdomain.Walk(ctx, s.ledger, req, s.pageObserver(metrics.PassRevenue), func(inv ledgerdomain.Invoice) {
		if !inv.HasSubscription() {
			s.skip(ctx, metrics.PassRevenue, metrics.SkipNoSubscription, inv.ID)
			return
		}
		idx, ok := w.lookup(inv.SettledAt())
		if !ok {
			s.skip(ctx, metrics.PassRevenue, metrics.SkipOutsideWindow, inv.ID)
			return
		}
		productID, ok := s.primaryProduct(ctx, metrics.PassRevenue, inv)
		if !ok {
			return
		}
		if cat.IsMembership(productID) {
			totals.membership[idx] += inv.AmountPaid
		} else {
			totals.other[idx] += inv.AmountPaid
		}
	})
	if err != nil {
		return revenueTotals{}, err
	}
	return totals, nil
}

// membershipLifecycle counts new memberships, renewals and implied churn per
// bucket. Churn lands one calendar year after the last renewal, once that
// date has passed, for memberships that are not active.
func (s *Service) membershipLifecycle(ctx context.Context, w window, now time.Time) (lifecycleCounts, error) {
	if s.memberships == nil {
		return lifecycleCounts{}, domain.ErrMembershipStoreNotConfigured
	}
	rows, err := s.memberships.ListForMetrics(ctx, s.db)
	if err != nil {
		return lifecycleCounts{}, err
	}

	counts := lifecycleCounts{
		created:  make([]int, len(w.buckets)),
		renewals: make([]int, len(w.buckets)),
		churns:   make([]int, len(w.buckets)),
	}
	for _, m := range rows {
		createdKey := ""
		if m.CreatedAt != nil {
			createdKey = w.key(*m.CreatedAt)
			if idx, ok := w.lookup(*m.CreatedAt); ok {
				counts.created[idx]++
			}
		}

		if m.LastRenewal == nil {
			continue
		}
		if w.key(*m.LastRenewal) != createdKey {
			if idx, ok := w.lookup(*m.LastRenewal); ok {
				counts.renewals[idx]++
			}
		}

		expected := m.LastRenewal.In(w.loc).AddDate(1, 0, 0)
		if idx, ok := w.lookup(expected); ok && !m.IsActive() && !expected.After(now) {
			counts.churns[idx]++
		}
	}
	return counts, nil
}

type monthAccumulator struct {
	total int64
	years map[int]struct{}
}

type productAccumulator struct {
	months [12]monthAccumulator
}

// productAverages walks the full paid history and averages each product's
// revenue per calendar month over the distinct years that month was seen.
func (s *Service) productAverages(ctx context.Context, loc *time.Location, cat catalog.Catalog) ([]domain.ProductMonthlyAverages, error) {
	var order []string
	products := make(map[string]*productAccumulator)

	req := ledgerdomain.ListInvoicesRequest{Status: ledgerdomain.StatusPaid}
	err := ledgerdomain.Walk(ctx, s.ledger, req, s.pageObserver(metrics.PassAverages), func(inv ledgerdomain.Invoice) {
		if !inv.HasSubscription() {
			s.skip(ctx, metrics.PassAverages, metrics.SkipNoSubscription, inv.ID)
			return
		}
		productID, ok := s.primaryProduct(ctx, metrics.PassAverages, inv)
		if !ok {
			return
		}

		acc, seen := products[productID]
		if !seen {
			acc = &productAccumulator{}
			products[productID] = acc
			order = append(order, productID)
		}

		paid := inv.SettledAt().In(loc)
		slot := &acc.months[paid.Month()-1]
		slot.total += inv.AmountPaid
		if slot.years == nil {
			slot.years = make(map[int]struct{})
		}
		slot.years[paid.Year()] = struct{}{}
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProductMonthlyAverages, 0, len(order))
	for _, productID := range order {
		acc := products[productID]
		entry := domain.ProductMonthlyAverages{
			ProductID:   productID,
			ProductName: cat.Name(productID),
		}
		for i := range acc.months {
			slot := acc.months[i]
			if len(slot.years) == 0 {
				continue
			}
			entry.MonthlyAverages.Set(time.Month(i+1), float64(slot.total)/float64(len(slot.years))/100)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) primaryProduct(ctx context.Context, pass string, inv ledgerdomain.Invoice) (string, bool) {
	if len(inv.Lines) == 0 {
		s.skip(ctx, pass, metrics.SkipNoLineItem, inv.ID)
		return "", false
	}
	productID, ok := inv.PrimaryProductID()
	if !ok {
		s.skip(ctx, pass, metrics.SkipNoProduct, inv.ID)
		return "", false
	}
	return productID, true
}

func (s *Service) pageObserver(pass string) ledgerdomain.PageObserver {
	return func(ledgerdomain.InvoicePage) {
		s.metrics.IncLedgerPage(pass)
	}
}
