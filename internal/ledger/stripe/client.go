package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/civicdash/internal/config"
	"github.com/smallbiznis/civicdash/internal/ledger/domain"
)

const (
	defaultBaseURL  = "https://api.stripe.com"
	defaultPageSize = 100
	maxPageSize     = 100
	invoicesPath    = "/v1/invoices"
)

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type invoiceList struct {
	Data    []stripeInvoice `json:"data"`
	HasMore bool            `json:"has_more"`
}

type stripeInvoice struct {
	ID                string       `json:"id"`
	AmountPaid        int64        `json:"amount_paid"`
	Currency          string       `json:"currency"`
	Subscription      expandableID `json:"subscription"`
	Created           int64        `json:"created"`
	StatusTransitions struct {
		PaidAt *int64 `json:"paid_at"`
	} `json:"status_transitions"`
	Lines struct {
		Data []struct {
			Price *struct {
				ID      string       `json:"id"`
				Product expandableID `json:"product"`
			} `json:"price"`
		} `json:"data"`
	} `json:"lines"`
}

// expandableID accepts either a bare id or an expanded object carrying one.
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*e = expandableID(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

// Client reads paid invoices from the Stripe REST API.
type Client struct {
	apiKey    string
	accountID string
	baseURL   string
	pageSize  int
	client    *http.Client
}

var _ domain.Source = (*Client)(nil)

func NewClient(cfg config.StripeConfig) *Client {
	return newClient(cfg, &http.Client{Timeout: 12 * time.Second})
}

func newClient(cfg config.StripeConfig, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.SecretKey),
		accountID: strings.TrimSpace(cfg.AccountID),
		baseURL:   baseURL,
		pageSize:  pageSize,
		client:    httpClient,
	}
}

func (c *Client) ListInvoices(ctx context.Context, req domain.ListInvoicesRequest) (domain.InvoicePage, error) {
	if c == nil || c.apiKey == "" {
		return domain.InvoicePage{}, domain.ErrNotConfigured
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(c.pageSize))
	if req.Status != "" {
		values.Set("status", req.Status)
	}
	if req.Created != nil {
		values.Set("created[gte]", strconv.FormatInt(req.Created.From.Unix(), 10))
		values.Set("created[lte]", strconv.FormatInt(req.Created.To.Unix(), 10))
	}
	if req.Cursor != "" {
		values.Set("starting_after", req.Cursor)
	}

	var list invoiceList
	if err := c.doRequest(ctx, http.MethodGet, invoicesPath, values, &list); err != nil {
		return domain.InvoicePage{}, err
	}

	page := domain.InvoicePage{
		Invoices: make([]domain.Invoice, 0, len(list.Data)),
		HasMore:  list.HasMore,
	}
	for _, item := range list.Data {
		page.Invoices = append(page.Invoices, item.toDomain())
	}
	if n := len(list.Data); n > 0 {
		page.NextCursor = list.Data[n-1].ID
	}
	return page, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	out any,
) error {
	endpoint := c.baseURL + path
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.accountID != "" {
		req.Header.Set("Stripe-Account", c.accountID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s", domain.ErrUpstream, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		message := "stripe_request_failed"
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err == nil {
			if m := strings.TrimSpace(stripeErr.Error.Message); m != "" {
				message = m
			}
		}
		return fmt.Errorf("%w: %s", domain.ErrUpstream, message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: stripe_response_invalid", domain.ErrUpstream)
	}
	return nil
}

func (s stripeInvoice) toDomain() domain.Invoice {
	inv := domain.Invoice{
		ID:             s.ID,
		AmountPaid:     s.AmountPaid,
		Currency:       strings.ToUpper(s.Currency),
		SubscriptionID: string(s.Subscription),
		CreatedAt:      time.Unix(s.Created, 0).UTC(),
	}
	if s.StatusTransitions.PaidAt != nil && *s.StatusTransitions.PaidAt > 0 {
		paidAt := time.Unix(*s.StatusTransitions.PaidAt, 0).UTC()
		inv.PaidAt = &paidAt
	}
	for _, line := range s.Lines.Data {
		if line.Price == nil {
			inv.Lines = append(inv.Lines, domain.InvoiceLine{})
			continue
		}
		inv.Lines = append(inv.Lines, domain.InvoiceLine{
			PriceID:   line.Price.ID,
			ProductID: string(line.Price.Product),
		})
	}
	return inv
}
