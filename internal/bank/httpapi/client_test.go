package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"bankdash/internal/bank"
	"bankdash/internal/core"
)

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]core.Account{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenSource(func() string { return "tok-123" }))
	if _, err := c.Accounts(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotPath != "/v1/accounts" {
		t.Fatalf("path %q, versioned base path missing", gotPath)
	}
}

func TestAnonymousRequestHasNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(core.ExchangeRates{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenSource(func() string { return "" }))
	if _, err := c.ExchangeRates(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous request must not send Authorization, got %q", gotAuth)
	}
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "account missing"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Account(context.Background(), "42")
	if !errors.Is(err, bank.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if bank.IsTransient(err) {
		t.Fatalf("404 must be terminal")
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Accounts(context.Background())
	if !bank.IsTransient(err) {
		t.Fatalf("502 must be transient, got %v", err)
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL)
	_, err := c.Accounts(context.Background())
	if !bank.IsTransient(err) {
		t.Fatalf("network failure must be transient, got %v", err)
	}
}

func TestTransferRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var form core.TransferForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			t.Errorf("decode form: %v", err)
		}
		json.NewEncoder(w).Encode(core.Transaction{
			ID:          "t-1",
			Type:        core.TypeTransfer,
			Amount:      form.Amount.Neg(),
			Status:      core.StatusPending,
			Description: form.Description,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	tx, err := c.CreateTransfer(context.Background(), core.TransferForm{
		RecipientAccount: "4081781000005678",
		Amount:           decimal.NewFromInt(100),
		Currency:         core.RUB,
		Description:      "аренда",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != "t-1" || !tx.Amount.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("bad transaction: %+v", tx)
	}
}

func TestFilterQuery(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		json.NewEncoder(w).Encode(core.TransactionPage{})
	}))
	defer srv.Close()

	min := decimal.NewFromInt(-1000)
	c := NewClient(srv.URL)
	_, err := c.Transactions(context.Background(), core.TransactionFilters{
		AccountID: "1",
		Type:      core.TypeExpense,
		MinAmount: &min,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "accountId=1&minAmount=-1000&type=expense" {
		t.Fatalf("query %q", got)
	}
}
