package core

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	yaml "gopkg.in/yaml.v2"
)

//go:embed rates.yaml
var defaultRatesYAML []byte

// RateTable holds static from→to conversion rates. It is not a market
// feed; rates change only when the table is reloaded.
type RateTable map[Currency]map[Currency]decimal.Decimal

var defaultTable = sync.OnceValue(func() RateTable {
	table, err := ParseRateTable(defaultRatesYAML)
	if err != nil {
		// The embedded table is part of the build; a parse failure is a
		// programming error.
		panic(fmt.Sprintf("embedded rate table: %v", err))
	}
	return table
})

// DefaultRates returns the built-in rate table.
func DefaultRates() RateTable {
	return defaultTable()
}

// LoadRateTable reads a YAML rate table from disk.
func LoadRateTable(path string) (RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}
	return ParseRateTable(data)
}

// ParseRateTable decodes a YAML mapping of the form from -> to -> rate.
func ParseRateTable(data []byte) (RateTable, error) {
	var raw map[string]map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}

	table := make(RateTable, len(raw))
	for from, tos := range raw {
		row := make(map[Currency]decimal.Decimal, len(tos))
		for to, rate := range tos {
			row[Currency(to)] = decimal.NewFromFloat(rate)
		}
		table[Currency(from)] = row
	}
	return table, nil
}

// Convert converts amount using the table rate, rounded to two decimal
// places (half away from zero). An unknown pair falls back to rate 1;
// that keeps the function total at the cost of a lossy identity
// conversion.
func (rt RateTable) Convert(from, to Currency, amount decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromInt(1)
	if row, ok := rt[from]; ok {
		if r, ok := row[to]; ok {
			rate = r
		}
	}
	return amount.Mul(rate).Round(2)
}

// ConvertCurrency converts using the built-in rate table.
func ConvertCurrency(from, to Currency, amount decimal.Decimal) decimal.Decimal {
	return DefaultRates().Convert(from, to, amount)
}
