package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankdash/internal/bank"
	"bankdash/internal/core"
)

// Backend is an in-memory stand-in for the bank API. It seeds a small
// demo dataset and applies transfers to it, which keeps the query layer
// fully exercisable without network access.
type Backend struct {
	mu           sync.Mutex
	user         core.User
	accounts     []core.Account
	transactions []core.Transaction
	rates        core.ExchangeRates
	now          func() time.Time
}

var _ bank.Client = (*Backend)(nil)

func New() *Backend {
	now := time.Now()
	b := &Backend{now: time.Now}

	b.user = core.User{
		ID:          "1",
		Email:       "ivanov@example.com",
		FirstName:   "Евгений",
		LastName:    "Иванов",
		PhoneNumber: "+79991234567",
		IsVerified:  true,
		CreatedAt:   time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
	}

	b.accounts = []core.Account{
		{
			ID:               "1",
			AccountNumber:    "4081 7810 0000 1234",
			Type:             core.AccountChecking,
			Currency:         core.RUB,
			Balance:          decimal.NewFromInt(150000),
			AvailableBalance: decimal.NewFromInt(150000),
			IsActive:         true,
			CreatedAt:        time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:               "2",
			AccountNumber:    "4081 7810 0000 5678",
			Type:             core.AccountSavings,
			Currency:         core.USD,
			Balance:          decimal.NewFromInt(2500),
			AvailableBalance: decimal.NewFromInt(2500),
			IsActive:         true,
			CreatedAt:        time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	completed := func(t time.Time) *time.Time { return &t }
	b.transactions = []core.Transaction{
		{
			ID: "1", AccountID: "1", Type: core.TypeExpense,
			Amount: decimal.NewFromInt(-1200), Currency: core.RUB,
			Description: "Продуктовый магазин", Status: core.StatusCompleted,
			CreatedAt: now.AddDate(0, 0, -1), CompletedAt: completed(now.AddDate(0, 0, -1)),
			Category: core.CategoryFood,
		},
		{
			ID: "2", AccountID: "1", Type: core.TypeIncome,
			Amount: decimal.NewFromInt(75000), Currency: core.RUB,
			Description: "Зарплата", Status: core.StatusCompleted,
			CreatedAt: now.AddDate(0, 0, -2), CompletedAt: completed(now.AddDate(0, 0, -2)),
			Category: core.CategorySalary,
		},
		{
			ID: "3", AccountID: "1", Type: core.TypeExpense,
			Amount: decimal.NewFromInt(-800), Currency: core.RUB,
			Description: "Заправка автомобиля", Status: core.StatusCompleted,
			CreatedAt: now.AddDate(0, 0, -3), CompletedAt: completed(now.AddDate(0, 0, -3)),
			Category: core.CategoryTransport,
		},
	}

	b.rates = core.ExchangeRates{
		core.USD:             decimal.RequireFromString("90.25"),
		core.EUR:             decimal.RequireFromString("97.80"),
		core.Currency("CNY"): decimal.RequireFromString("12.45"),
		core.Currency("GBP"): decimal.RequireFromString("114.30"),
	}

	return b
}

// Authenticate accepts any structurally valid credentials, mirroring a
// demo environment. It satisfies session.Authenticator.
func (b *Backend) Authenticate(_ context.Context, email, password string) (core.User, string, error) {
	if !core.IsValidEmail(email) || password == "" {
		return core.User{}, "", &bank.Error{Op: "authenticate", Status: 401, Err: fmt.Errorf("invalid credentials")}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.user.Email = email
	return b.user, "token-" + uuid.NewString(), nil
}

func (b *Backend) Accounts(_ context.Context) ([]core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Account(nil), b.accounts...), nil
}

func (b *Backend) Account(_ context.Context, id string) (core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, &bank.Error{Op: "account", Status: 404, Err: fmt.Errorf("account %s: %w", id, bank.ErrNotFound)}
}

func (b *Backend) Transactions(_ context.Context, filters core.TransactionFilters) (core.TransactionPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []core.Transaction
	for _, t := range b.transactions {
		if filters.Matches(t) {
			matched = append(matched, t)
		}
	}
	matched = core.SortTransactionsByDate(matched)

	return core.TransactionPage{
		Data: matched,
		Pagination: core.Pagination{
			Page:  1,
			Limit: 10,
			Total: len(matched),
		},
	}, nil
}

func (b *Backend) Transaction(_ context.Context, id string) (core.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, &bank.Error{Op: "transaction", Status: 404, Err: fmt.Errorf("transaction %s: %w", id, bank.ErrNotFound)}
}

func (b *Backend) Analytics(_ context.Context, period core.Period) (core.Analytics, error) {
	if !period.Valid() {
		return core.Analytics{}, &bank.Error{Op: "analytics", Status: 400, Err: core.ErrInvalidPeriod}
	}

	b.mu.Lock()
	txs := append([]core.Transaction(nil), b.transactions...)
	b.mu.Unlock()

	return core.BuildAnalytics(period, txs), nil
}

func (b *Backend) SearchTransactions(_ context.Context, term string) ([]core.Transaction, error) {
	b.mu.Lock()
	txs := append([]core.Transaction(nil), b.transactions...)
	b.mu.Unlock()

	// Description match plus the recipient convenience the web UI layers
	// on top.
	matched := core.SearchTransactions(term, txs)
	needle := strings.ToLower(term)
	for _, t := range txs {
		if t.Recipient != "" && strings.Contains(strings.ToLower(t.Recipient), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func (b *Backend) ExchangeRates(_ context.Context) (core.ExchangeRates, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rates := make(core.ExchangeRates, len(b.rates))
	for k, v := range b.rates {
		rates[k] = v
	}
	return rates, nil
}

func (b *Backend) CreateTransfer(_ context.Context, form core.TransferForm) (core.Transaction, error) {
	if err := form.Validate(); err != nil {
		return core.Transaction{}, &bank.Error{Op: "create transfer", Status: 400, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	source := &b.accounts[0]
	if source.AvailableBalance.LessThan(form.Amount) {
		return core.Transaction{}, &bank.Error{Op: "create transfer", Status: 422, Err: fmt.Errorf("insufficient funds")}
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		AccountID:   source.ID,
		Type:        core.TypeTransfer,
		Amount:      form.Amount.Neg(),
		Currency:    form.Currency,
		Description: form.Description,
		Recipient:   form.RecipientAccount,
		Status:      core.StatusPending,
		CreatedAt:   b.now(),
		Category:    core.CategoryTransfer,
	}
	b.transactions = append(b.transactions, tx)
	source.Balance = source.Balance.Sub(form.Amount)
	source.AvailableBalance = source.AvailableBalance.Sub(form.Amount)
	return tx, nil
}

func (b *Backend) UpdateProfile(_ context.Context, update core.ProfileUpdate) (core.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.user = update.Apply(b.user)
	return b.user, nil
}
