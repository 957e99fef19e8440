package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bankdash/internal/bank"
	"bankdash/internal/core"
)

// TokenSource supplies the current bearer credential; empty means
// anonymous. The session store's Token method fits this signature.
type TokenSource func() string

// Client talks JSON to the bank API under a versioned base path and
// attaches a bearer header whenever a token is present.
type Client struct {
	base  string
	http  *http.Client
	token TokenSource
}

var _ bank.Client = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// NewClient builds a client for baseURL, e.g. "https://api.bank131.com".
// The /v1 version prefix is appended here so callers never spell it.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/") + "/v1",
		http: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate satisfies session.Authenticator.
func (c *Client) Authenticate(ctx context.Context, email, password string) (core.User, string, error) {
	var out struct {
		User  core.User `json:"user"`
		Token string    `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return core.User{}, "", err
	}
	return out.User, out.Token, nil
}

func (c *Client) Accounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Account(ctx context.Context, id string) (core.Account, error) {
	var out core.Account
	err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) Transactions(ctx context.Context, filters core.TransactionFilters) (core.TransactionPage, error) {
	var out core.TransactionPage
	err := c.do(ctx, http.MethodGet, "/transactions", filterQuery(filters), nil, &out)
	return out, err
}

func (c *Client) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	var out core.Transaction
	err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) Analytics(ctx context.Context, period core.Period) (core.Analytics, error) {
	var out core.Analytics
	q := url.Values{"period": {string(period)}}
	err := c.do(ctx, http.MethodGet, "/analytics", q, nil, &out)
	return out, err
}

func (c *Client) SearchTransactions(ctx context.Context, term string) ([]core.Transaction, error) {
	var out []core.Transaction
	q := url.Values{"q": {term}}
	if err := c.do(ctx, http.MethodGet, "/transactions/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExchangeRates(ctx context.Context) (core.ExchangeRates, error) {
	var out core.ExchangeRates
	err := c.do(ctx, http.MethodGet, "/exchange-rates", nil, nil, &out)
	return out, err
}

func (c *Client) CreateTransfer(ctx context.Context, form core.TransferForm) (core.Transaction, error) {
	var out core.Transaction
	if err := form.Validate(); err != nil {
		return out, &bank.Error{Op: "create transfer", Status: 400, Err: err}
	}
	err := c.do(ctx, http.MethodPost, "/transfers", nil, form, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, update core.ProfileUpdate) (core.User, error) {
	var out core.User
	err := c.do(ctx, http.MethodPatch, "/profile", nil, update, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &bank.Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &bank.Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &bank.Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		cause := fmt.Errorf("api error")
		if resp.StatusCode == http.StatusNotFound {
			cause = bank.ErrNotFound
		}
		// The body may carry a message; keep it short if it does.
		if msg := readErrorMessage(resp.Body); msg != "" {
			cause = fmt.Errorf("%s: %w", msg, cause)
		}
		return &bank.Error{Op: op, Status: resp.StatusCode, Err: cause}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &bank.Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func filterQuery(f core.TransactionFilters) url.Values {
	q := url.Values{}
	if f.AccountID != "" {
		q.Set("accountId", f.AccountID)
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.StartDate != nil {
		q.Set("startDate", f.StartDate.Format(time.RFC3339))
	}
	if f.EndDate != nil {
		q.Set("endDate", f.EndDate.Format(time.RFC3339))
	}
	if f.MinAmount != nil {
		q.Set("minAmount", f.MinAmount.String())
	}
	if f.MaxAmount != nil {
		q.Set("maxAmount", f.MaxAmount.String())
	}
	return q
}
