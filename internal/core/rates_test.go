package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvertCurrency(t *testing.T) {
	cases := []struct {
		from, to Currency
		amount   string
		want     string
	}{
		{RUB, USD, "1000", "11"},
		{USD, RUB, "10", "900"},
		{EUR, USD, "100", "118"},
		{RUB, RUB, "42.42", "42.42"},
		{RUB, USD, "123.45", "1.36"}, // 1.35795 rounds half away from zero
		{"GBP", USD, "5", "5"},       // unknown pair falls back to rate 1
	}
	for i, tc := range cases {
		got := ConvertCurrency(tc.from, tc.to, decimal.RequireFromString(tc.amount))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("case %d got %s want %s", i, got, tc.want)
		}
	}
}

func TestParseRateTable(t *testing.T) {
	table, err := ParseRateTable([]byte("RUB:\n  USD: 0.02\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := table.Convert(RUB, USD, decimal.NewFromInt(100))
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("got %s", got)
	}
}

func TestParseRateTableInvalid(t *testing.T) {
	if _, err := ParseRateTable([]byte("RUB: [not, a, mapping]\n")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCategoryColorTotal(t *testing.T) {
	if CategoryColor(CategoryFood) != "#FF6B6B" {
		t.Fatalf("food color changed")
	}
	if CategoryColor(Category("unknown")) != CategoryColor(CategoryOther) {
		t.Fatalf("unknown category must fall back to other")
	}
	if ParseCategory("garbage") != CategoryOther {
		t.Fatalf("unknown category must parse to other")
	}
}
