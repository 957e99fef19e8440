package core

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Monetary values render the way the bank's web UI always has: ru-RU
// digit grouping with non-breaking spaces, comma decimal separator,
// trailing currency symbol.
const nbsp = "\u00a0"

var currencySymbols = map[Currency]string{
	RUB: "₽",
	USD: "$",
	EUR: "€",
}

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// FormatCurrency renders amount with exactly two fraction digits and the
// symbol for the given currency. Unknown codes fail with ErrInvalidCurrency.
func FormatCurrency(c Currency, amount decimal.Decimal) (string, error) {
	symbol, ok := currencySymbols[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, c)
	}

	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.Sign() < 0 {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(nbsp)
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	b.WriteString(nbsp)
	b.WriteString(symbol)
	return b.String(), nil
}

// FormatAccountNumber strips whitespace and regroups the digits into
// blocks of four. A length not divisible by four leaves a short trailing
// group.
func FormatAccountNumber(raw string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	var groups []string
	for len(stripped) > 4 {
		groups = append(groups, stripped[:4])
		stripped = stripped[4:]
	}
	if stripped != "" {
		groups = append(groups, stripped)
	}
	return strings.Join(groups, " ")
}

// MaskCardNumber reveals only the last four digits of a card number.
func MaskCardNumber(raw string) (string, error) {
	digits := digitsOnly(raw)
	if len(digits) < 4 {
		return "", ErrCardNumberTooShort
	}
	return "**** **** **** " + digits[len(digits)-4:], nil
}

// IsValidCardNumber performs a structural Luhn check. Card numbers
// outside 13..19 digits are rejected outright.
func IsValidCardNumber(raw string) bool {
	digits := digitsOnly(raw)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

func IsValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
