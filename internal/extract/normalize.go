package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The normalizers in this file are pure and total: any input yields a
// usable value, never an error. They absorb the locale chaos of scanned
// Swedish/European documents so the mapper only ever sees typed data.

var (
	// "1 234,56": Swedish thousands grouping with comma decimal
	reSpaceGrouped = regexp.MustCompile(`^-?\d{1,3}(?: \d{3})+(?:,\d+)?$`)
	// "1.234,56": European dot-thousands with comma decimal
	reDotGrouped = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	// "1,049": exactly three digits after a lone comma reads as a
	// thousands separator, not 1.049. Known misparse risk for genuine
	// 3-decimal currency amounts; kept deliberately.
	reCommaThousands = regexp.MustCompile(`^-?\d{1,3},\d{3}$`)
	// "123,45": plain comma decimal
	reCommaDecimal = regexp.MustCompile(`^-?\d+,\d+$`)

	reNonAmount = regexp.MustCompile(`[^0-9 .,\-]`)
	reNonDigit  = regexp.MustCompile(`[^0-9]`)
)

// ParseNumber turns a human-readable monetary string into a float64.
// Shape detection runs in priority order: Swedish space-grouped, European
// dot-grouped, comma-as-thousands, comma-as-decimal, then a plain parse.
// Unparseable input yields 0.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	// Strip currency symbols, codes and any other non-numeric noise,
	// keeping the separators the shape detection needs.
	s = reNonAmount.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	var cleaned string
	switch {
	case reSpaceGrouped.MatchString(s):
		cleaned = strings.ReplaceAll(s, " ", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case reDotGrouped.MatchString(s):
		cleaned = strings.ReplaceAll(s, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case reCommaThousands.MatchString(s):
		cleaned = strings.ReplaceAll(s, ",", "")
	case reCommaDecimal.MatchString(s):
		cleaned = strings.ReplaceAll(s, ",", ".")
	default:
		cleaned = strings.ReplaceAll(s, " ", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}

	// A sub-1 result from a digit string that reads as a large integer
	// means a separator was mis-split ("144.00" scale noise ending up as
	// "1.00"-scale). Prefer the integer reading.
	if value > 0 && value < 1 {
		digits := reNonDigit.ReplaceAllString(s, "")
		if n, err := strconv.Atoi(digits); err == nil && n > 100 {
			return float64(n)
		}
	}

	return value
}

var swedishMonths = map[string]time.Month{
	"jan": time.January, "januari": time.January,
	"feb": time.February, "februari": time.February,
	"mar": time.March, "mars": time.March,
	"apr": time.April, "april": time.April,
	"maj": time.May,
	"jun": time.June, "juni": time.June,
	"jul": time.July, "juli": time.July,
	"aug": time.August, "augusti": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	reISODate       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reDayFirstDate  = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})$`)
	reYearFirstDate = regexp.MustCompile(`^(\d{4})[./](\d{1,2})[./](\d{1,2})$`)
	reMonthNameDate = regexp.MustCompile(`^(\d{1,2})\s+([a-zåäö]+)\.?\s+(\d{2,4})$`)
)

// fallbackDateLayouts are tried in order when no shape regex matches.
var fallbackDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006-01-02T15:04:05Z07:00",
	"2 January 2006",
	"January 2, 2006",
	"02-01-2006",
}

// ParseDate normalizes a date string to ISO YYYY-MM-DD. It accepts ISO,
// day-first European, reversed year-first, and Swedish month-name forms;
// anything else falls back to today's date. Never errors.
func ParseDate(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	if m := reISODate.FindStringSubmatch(s); m != nil {
		return s
	}
	if m := reDayFirstDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := buildDate(year, month, day); ok {
			return d
		}
	}
	if m := reYearFirstDate.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := buildDate(year, month, day); ok {
			return d
		}
	}
	if m := reMonthNameDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month, ok := swedishMonths[m[2]]; ok {
			if d, ok := buildDate(year, int(month), day); ok {
				return d
			}
		}
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return time.Now().Format("2006-01-02")
}

// buildDate validates the components by round-tripping through time.Date:
// an impossible date like 31.02 normalizes away and is rejected.
func buildDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// validCurrencies is the fixed set of ISO 4217 codes this pipeline emits.
var validCurrencies = map[string]bool{
	"SEK": true, "EUR": true, "USD": true, "GBP": true,
	"NOK": true, "DKK": true, "CHF": true,
}

// NormalizeCurrency resolves a detected symbol hint plus a raw currency
// field to one ISO 4217 code. The rule list is ordered: an unambiguous
// symbol beats the raw field; the raw field is checked against the
// allowlist, then against word variants; the base currency is the total
// fallback. Always returns a valid code, never an empty string.
func NormalizeCurrency(symbol, raw, base string) string {
	if !validCurrencies[base] {
		base = "SEK"
	}

	sym := strings.ToLower(strings.TrimSpace(symbol))
	switch {
	case strings.Contains(sym, "€") || strings.Contains(sym, "eur"):
		return "EUR"
	case strings.Contains(sym, "$") || strings.Contains(sym, "dollar"):
		return "USD"
	case strings.Contains(sym, "£") || strings.Contains(sym, "pound") || strings.Contains(sym, "pund"):
		return "GBP"
	}

	code := strings.ToUpper(strings.TrimSpace(raw))
	if validCurrencies[code] {
		return code
	}
	switch code {
	case "EURO", "EUROS", "€":
		return "EUR"
	case "DOLLAR", "DOLLARS", "US$", "$":
		return "USD"
	case "POUND", "POUNDS", "PUND", "£":
		return "GBP"
	}

	// "kr" is ambiguous between SEK/NOK/DKK, so it intentionally falls
	// through to the base currency.
	return base
}
