package bank

import (
	"context"
	"errors"
	"fmt"

	"bankdash/internal/core"
)

// ErrNotFound reports a missing account or transaction id.
var ErrNotFound = errors.New("not found")

// Client is the outbound port to the bank API. The query layer is the
// only intended caller; it adds caching, dedup and retries on top.
type Client interface {
	Accounts(ctx context.Context) ([]core.Account, error)
	Account(ctx context.Context, id string) (core.Account, error)
	Transactions(ctx context.Context, filters core.TransactionFilters) (core.TransactionPage, error)
	Transaction(ctx context.Context, id string) (core.Transaction, error)
	Analytics(ctx context.Context, period core.Period) (core.Analytics, error)
	SearchTransactions(ctx context.Context, term string) ([]core.Transaction, error)
	ExchangeRates(ctx context.Context) (core.ExchangeRates, error)
	CreateTransfer(ctx context.Context, form core.TransferForm) (core.Transaction, error)
	UpdateProfile(ctx context.Context, update core.ProfileUpdate) (core.User, error)
}

// Error is a transport-level failure. Status 0 means the request never
// produced an HTTP response (network failure, timeout).
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is worth retrying: network
// errors and server-side 5xx responses are; 4xx responses are not.
func (e *Error) Transient() bool {
	return e.Status == 0 || e.Status >= 500
}

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Transient()
}
