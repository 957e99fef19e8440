package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		currency Currency
		amount   string
		want     string
	}{
		{RUB, "1500", "1\u00a0500,00\u00a0₽"},
		{RUB, "-1200", "-1\u00a0200,00\u00a0₽"},
		{USD, "2500.5", "2\u00a0500,50\u00a0$"},
		{EUR, "0.009", "0,01\u00a0€"},
		{RUB, "1234567.89", "1\u00a0234\u00a0567,89\u00a0₽"},
	}
	for i, tc := range cases {
		got, err := FormatCurrency(tc.currency, decimal.RequireFromString(tc.amount))
		if err != nil {
			t.Fatalf("case %d unexpected error: %v", i, err)
		}
		if got != tc.want {
			t.Fatalf("case %d got %q want %q", i, got, tc.want)
		}
	}
}

func TestFormatCurrencyUnknownCode(t *testing.T) {
	_, err := FormatCurrency("GBP", decimal.NewFromInt(10))
	if !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestFormatAccountNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"4081781000001234", "4081 7810 0000 1234"},
		{"4081 7810 0000 1234", "4081 7810 0000 1234"},
		{"40817810000012345", "4081 7810 0000 1234 5"},
		{"40", "40"},
		{"", ""},
	}
	for i, tc := range cases {
		if got := FormatAccountNumber(tc.in); got != tc.want {
			t.Fatalf("case %d got %q want %q", i, got, tc.want)
		}
	}
}

func TestMaskCardNumber(t *testing.T) {
	got, err := MaskCardNumber("4081781000001234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "**** **** **** 1234" {
		t.Fatalf("got %q", got)
	}

	// Non-digits are stripped before masking.
	got, err = MaskCardNumber("4081-7810-0000-9876")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "**** **** **** 9876" {
		t.Fatalf("got %q", got)
	}

	if _, err := MaskCardNumber("12 3"); !errors.Is(err, ErrCardNumberTooShort) {
		t.Fatalf("expected ErrCardNumberTooShort, got %v", err)
	}
}

func TestIsValidCardNumber(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"4532015112830366", true},
		{"4532 0151 1283 0366", true},
		{"4532015112830367", false}, // last digit flipped
		{"4532015112830356", false}, // inner digit flipped
		{"123456789012", false},     // 12 digits, too short
		{"12345678901234567890", false},
	}
	for i, tc := range cases {
		if got := IsValidCardNumber(tc.in); got != tc.ok {
			t.Fatalf("case %d (%q) got %v want %v", i, tc.in, got, tc.ok)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"ivanov@example.com", true},
		{"a.b+tag@mail.co", true},
		{"not-an-email", false},
		{"@example.com", false},
		{"user@host", false},
	}
	for i, tc := range cases {
		if got := IsValidEmail(tc.in); got != tc.ok {
			t.Fatalf("case %d (%q) got %v want %v", i, tc.in, got, tc.ok)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"+79991234567", true},
		{"79991234567", true},
		{"+0123", false}, // leading zero
		{"+7", false},    // too short
		{"phone", false},
	}
	for i, tc := range cases {
		if got := IsValidPhone(tc.in); got != tc.ok {
			t.Fatalf("case %d (%q) got %v want %v", i, tc.in, got, tc.ok)
		}
	}
}
