package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		// Swedish thousands grouping with comma decimal
		{"1 234,56", 1234.56},
		{"12 345 678,90", 12345678.90},
		// European dot-thousands with comma decimal
		{"1.234,56", 1234.56},
		{"7.303,08", 7303.08},
		// Three digits after a lone comma reads as thousands
		{"1,049", 1049},
		{"12,500", 12500},
		// Plain comma decimal
		{"123,45", 123.45},
		{"0,5", 0.5},
		// Plain dot decimal and integers pass through
		{"144.00", 144},
		{"184", 184},
		{"-250,00", -250},
		// Currency noise is stripped before shape detection
		{"1 234,56 kr", 1234.56},
		{"SEK 999,90", 999.90},
		{"€1.234,56", 1234.56},
		// Unparseable input yields zero
		{"abc", 0},
		{"", 0},
		{"  ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseNumber(tt.input), 1e-9)
		})
	}
}

func TestParseNumberSmallFractionGuard(t *testing.T) {
	// A mis-split separator can shrink "144" to sub-1 scale; the digit
	// string wins when it reads as an integer above 100.
	assert.InDelta(t, 144, ParseNumber(".144"), 1e-9)
	// Small genuine fractions survive: "05" is not above 100.
	assert.InDelta(t, 0.5, ParseNumber("0,5"), 1e-9)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024-03-23", "2024-03-23"},
		{"23.03.2024", "2024-03-23"},
		{"23/03/2024", "2024-03-23"},
		{"2024.03.23", "2024-03-23"},
		{"2024/03/23", "2024-03-23"},
		{"23 mar 22", "2022-03-23"},
		{"1 maj 2023", "2023-05-01"},
		{"15 augusti 21", "2021-08-15"},
		{"20240323", "2024-03-23"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.input))
		})
	}
}

func TestParseDateFallsBackToToday(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, today, ParseDate("not a date"))
	assert.Equal(t, today, ParseDate(""))
	// Impossible calendar dates are rejected, not normalized into March.
	assert.Equal(t, today, ParseDate("31.02.2024"))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		raw    string
		want   string
	}{
		{"euro symbol beats raw field", "€", "USD", "EUR"},
		{"dollar symbol", "$", "", "USD"},
		{"pound symbol", "£", "", "GBP"},
		{"valid raw code", "", "USD", "USD"},
		{"raw code normalized to upper", "", "eur", "EUR"},
		{"word variant EURO", "", "EURO", "EUR"},
		{"word variant DOLLARS", "", "DOLLARS", "USD"},
		{"kr is ambiguous, base wins", "kr", "", "SEK"},
		{"unknown everything, base wins", "", "XYZ", "SEK"},
		{"empty everything, base wins", "", "", "SEK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCurrency(tt.symbol, tt.raw, "SEK")
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 3, "currency must always be a 3-letter code")
		})
	}
}

func TestNormalizeCurrencyIsTotal(t *testing.T) {
	// Even a junk base currency resolves to a valid code.
	assert.Equal(t, "SEK", NormalizeCurrency("", "", ""))
	assert.Equal(t, "SEK", NormalizeCurrency("", "", "kronor"))
	assert.Equal(t, "NOK", NormalizeCurrency("", "", "NOK"))
}
