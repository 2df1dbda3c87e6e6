package domain

import (
	"context"
	"fmt"
)

// PageObserver is notified after each page is fetched.
type PageObserver func(page InvoicePage)

// Walk pages through src until it reports no further pages, invoking visit for
// every record. An empty page ends the walk even when has_more is set. A failed
// page aborts the walk; nothing is retried.
func Walk(ctx context.Context, src Source, req ListInvoicesRequest, onPage PageObserver, visit func(Invoice)) error {
	if src == nil {
		return ErrNotConfigured
	}

	cursor := req.Cursor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageReq := req
		pageReq.Cursor = cursor
		page, err := src.ListInvoices(ctx, pageReq)
		if err != nil {
			return err
		}
		if onPage != nil {
			onPage(page)
		}

		for _, inv := range page.Invoices {
			visit(inv)
		}

		if !page.HasMore || page.NextCursor == "" {
			return nil
		}
		if page.NextCursor == cursor {
			return fmt.Errorf("%w: has_more without advancing cursor", ErrInvalidCursor)
		}
		cursor = page.NextCursor
	}
}
