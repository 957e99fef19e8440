package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCredit   AccountType = "credit"
)

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

type (
	AccountType       string
	Currency          string
	TransactionType   string
	TransactionStatus string
	Period            string

	User struct {
		ID          string    `json:"id"`
		Email       string    `json:"email"`
		FirstName   string    `json:"firstName"`
		LastName    string    `json:"lastName"`
		PhoneNumber string    `json:"phoneNumber"`
		Avatar      string    `json:"avatar,omitempty"`
		IsVerified  bool      `json:"isVerified"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Account struct {
		ID               string          `json:"id"`
		AccountNumber    string          `json:"accountNumber"`
		Type             AccountType     `json:"type"`
		Currency         Currency        `json:"currency"`
		Balance          decimal.Decimal `json:"balance"`
		AvailableBalance decimal.Decimal `json:"availableBalance"`
		IsActive         bool            `json:"isActive"`
		CreatedAt        time.Time       `json:"createdAt"`
	}

	Transaction struct {
		ID          string            `json:"id"`
		AccountID   string            `json:"accountId"`
		Type        TransactionType   `json:"type"`
		Amount      decimal.Decimal   `json:"amount"`
		Currency    Currency          `json:"currency"`
		Description string            `json:"description"`
		Recipient   string            `json:"recipient,omitempty"`
		Sender      string            `json:"sender,omitempty"`
		Status      TransactionStatus `json:"status"`
		CreatedAt   time.Time         `json:"createdAt"`
		CompletedAt *time.Time        `json:"completedAt,omitempty"`
		Category    Category          `json:"category"`
	}

	MonthlyData struct {
		Month   string          `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	Analytics struct {
		Period          Period                       `json:"period"`
		TotalIncome     decimal.Decimal              `json:"totalIncome"`
		TotalExpense    decimal.Decimal              `json:"totalExpense"`
		CategorySummary map[Category]decimal.Decimal `json:"categorySummary"`
		MonthlyData     []MonthlyData                `json:"monthlyData"`
	}

	TransferForm struct {
		RecipientAccount string          `json:"recipientAccount"`
		Amount           decimal.Decimal `json:"amount"`
		Currency         Currency        `json:"currency"`
		Description      string          `json:"description"`
		ScheduleDate     *time.Time      `json:"scheduleDate,omitempty"`
	}

	// ProfileUpdate is a partial user update; nil fields are left untouched.
	ProfileUpdate struct {
		FirstName   *string `json:"firstName,omitempty"`
		LastName    *string `json:"lastName,omitempty"`
		PhoneNumber *string `json:"phoneNumber,omitempty"`
		Avatar      *string `json:"avatar,omitempty"`
	}

	TransactionFilters struct {
		AccountID string            `json:"accountId,omitempty"`
		Type      TransactionType   `json:"type,omitempty"`
		Category  Category          `json:"category,omitempty"`
		StartDate *time.Time        `json:"startDate,omitempty"`
		EndDate   *time.Time        `json:"endDate,omitempty"`
		MinAmount *decimal.Decimal  `json:"minAmount,omitempty"`
		MaxAmount *decimal.Decimal  `json:"maxAmount,omitempty"`
		Status    TransactionStatus `json:"status,omitempty"`
	}

	Pagination struct {
		Page    int  `json:"page"`
		Limit   int  `json:"limit"`
		Total   int  `json:"total"`
		HasNext bool `json:"hasNext"`
		HasPrev bool `json:"hasPrev"`
	}

	TransactionPage struct {
		Data       []Transaction `json:"data"`
		Pagination Pagination    `json:"pagination"`
	}

	// ExchangeRates maps a foreign currency to its quote in rubles.
	ExchangeRates map[Currency]decimal.Decimal
)

var (
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyRecipient     = errors.New("empty recipient account")
	ErrCardNumberTooShort = errors.New("card number too short")
)

func (c Currency) Valid() bool {
	switch c {
	case RUB, USD, EUR:
		return true
	}
	return false
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	}
	return false
}

func (f TransferForm) Validate() error {
	if strings.TrimSpace(f.RecipientAccount) == "" {
		return ErrEmptyRecipient
	}
	if f.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !f.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(f.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// Apply merges the partial update onto u and returns the result.
func (p ProfileUpdate) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// Matches reports whether the transaction passes every set filter field.
func (f TransactionFilters) Matches(t Transaction) bool {
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.StartDate != nil && t.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.CreatedAt.After(*f.EndDate) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}
