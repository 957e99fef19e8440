package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The aggregation functions below are pure: they never mutate their
// inputs and are safe to call from any number of goroutines.

// GroupTransactionsByCategory buckets transactions by category,
// preserving input order within each bucket.
func GroupTransactionsByCategory(transactions []Transaction) map[Category][]Transaction {
	groups := make(map[Category][]Transaction)
	for _, t := range transactions {
		groups[t.Category] = append(groups[t.Category], t)
	}
	return groups
}

// CalculateCategorySummary sums signed amounts per category. Categories
// absent from the input are absent from the result; BuildAnalytics
// zero-fills when a complete table is needed.
func CalculateCategorySummary(transactions []Transaction) map[Category]decimal.Decimal {
	summary := make(map[Category]decimal.Decimal)
	for _, t := range transactions {
		summary[t.Category] = summary[t.Category].Add(t.Amount)
	}
	return summary
}

// FilterTransactionsByPeriod keeps transactions created within
// [start, end], bounds inclusive.
func FilterTransactionsByPeriod(start, end time.Time, transactions []Transaction) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortTransactionsByDate returns a new slice sorted newest first. The
// sort is stable: ties keep their original relative order.
func SortTransactionsByDate(transactions []Transaction) []Transaction {
	sorted := append([]Transaction(nil), transactions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// GetRecentTransactions returns the n newest transactions, newest first.
func GetRecentTransactions(n int, transactions []Transaction) []Transaction {
	if n <= 0 {
		return nil
	}
	sorted := SortTransactionsByDate(transactions)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// CalculateTotalBalance sums balances across accounts. Mixed currencies
// are summed without conversion; callers wanting a cross-currency total
// must pre-convert.
func CalculateTotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// GetActiveAccounts filters active accounts, preserving order.
func GetActiveAccounts(accounts []Account) []Account {
	var out []Account
	for _, a := range accounts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out
}

// GroupTransactionsByMonth buckets by calendar month of CreatedAt and
// sums income and expense amounts per bucket, months ascending. Months
// with no transactions are not synthesized; within a present month a
// type with no transactions sums to zero.
func GroupTransactionsByMonth(transactions []Transaction) []MonthlyData {
	type bucket struct {
		month   time.Time
		income  decimal.Decimal
		expense decimal.Decimal
	}

	buckets := make(map[time.Time]*bucket)
	for _, t := range transactions {
		m := startOfMonth(t.CreatedAt)
		b, ok := buckets[m]
		if !ok {
			b = &bucket{month: m}
			buckets[m] = b
		}
		switch t.Type {
		case TypeIncome:
			b.income = b.income.Add(t.Amount)
		case TypeExpense:
			b.expense = b.expense.Add(t.Amount)
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].month.Before(ordered[j].month)
	})

	out := make([]MonthlyData, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, MonthlyData{
			Month:   b.month.Format("Jan 2006"),
			Income:  b.income,
			Expense: b.expense,
		})
	}
	return out
}

// SearchTransactions matches the term case-insensitively against the
// description only. Recipient matching is layered on by callers that
// need it.
func SearchTransactions(term string, transactions []Transaction) []Transaction {
	needle := strings.ToLower(term)
	var out []Transaction
	for _, t := range transactions {
		if strings.Contains(strings.ToLower(t.Description), needle) {
			out = append(out, t)
		}
	}
	return out
}

// BuildAnalytics assembles the derived analytics view for a set of
// transactions: signed totals, a zero-filled summary covering every
// category, and per-month income/expense rows.
func BuildAnalytics(period Period, transactions []Transaction) Analytics {
	summary := CalculateCategorySummary(transactions)
	for _, c := range Categories {
		if _, ok := summary[c]; !ok {
			summary[c] = decimal.Zero
		}
	}

	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case TypeIncome:
			income = income.Add(t.Amount)
		case TypeExpense:
			expense = expense.Add(t.Amount)
		}
	}

	return Analytics{
		Period:          period,
		TotalIncome:     income,
		TotalExpense:    expense.Abs(),
		CategorySummary: summary,
		MonthlyData:     GroupTransactionsByMonth(transactions),
	}
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
