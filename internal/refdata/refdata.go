// Package refdata loads the static reference tables the mapper consults:
// the known-supplier table, the BAS chart-of-accounts slice, and the
// representation keyword list.
//
// Tables ship as embedded YAML defaults and can be overridden per table
// with a file path. They are loaded once at process start and are
// read-only afterwards; all lookups key on normalized strings.
package refdata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/suppliers.yaml
var defaultSuppliersYAML []byte

//go:embed defaults/accounts.yaml
var defaultAccountsYAML []byte

//go:embed defaults/keywords.yaml
var defaultKeywordsYAML []byte

// DefaultExpenseAccount is the hardcoded landing account when no rule and
// no collaborator suggestion produces anything better.
const DefaultExpenseAccount = "6990"

// Fixed posting accounts referenced by the voucher builder.
const (
	AccountPayables = "2440" // Leverantörsskulder
	AccountInputVAT = "2640" // Ingående moms
	AccountBank     = "1930" // Företagskonto (card payments)
	AccountCash     = "1910" // Kassa
)

// Supplier is one known-supplier table row.
type Supplier struct {
	Name        string `yaml:"name"`
	Account     string `yaml:"account"`
	AccountName string `yaml:"account_name"`
	CostCenter  string `yaml:"cost_center"`
}

// Account is one chart-of-accounts row.
type Account struct {
	Number   string   `yaml:"number"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// KeywordCategory groups related representation keywords.
type KeywordCategory struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

// Tables is the immutable bundle of loaded reference data.
type Tables struct {
	suppliers       []Supplier
	supplierByName  map[string]*Supplier
	accounts        []Account
	accountByNumber map[string]*Account
	keywords        []KeywordCategory
}

type supplierFile struct {
	Suppliers []Supplier `yaml:"suppliers"`
}

type accountFile struct {
	Accounts []Account `yaml:"accounts"`
}

type keywordFile struct {
	KeywordCategories []KeywordCategory `yaml:"keyword_categories"`
}

// Load builds the tables from the embedded defaults, overriding any table
// whose path argument is non-empty.
func Load(supplierPath, accountPath, keywordPath string) (*Tables, error) {
	const op = "Load"

	supplierData, err := readOrDefault(supplierPath, defaultSuppliersYAML)
	if err != nil {
		return nil, fmt.Errorf("%s: supplier table: %w", op, err)
	}
	accountData, err := readOrDefault(accountPath, defaultAccountsYAML)
	if err != nil {
		return nil, fmt.Errorf("%s: account table: %w", op, err)
	}
	keywordData, err := readOrDefault(keywordPath, defaultKeywordsYAML)
	if err != nil {
		return nil, fmt.Errorf("%s: keyword table: %w", op, err)
	}

	var sf supplierFile
	if err := yaml.Unmarshal(supplierData, &sf); err != nil {
		return nil, fmt.Errorf("%s: parse supplier table: %w", op, err)
	}
	var af accountFile
	if err := yaml.Unmarshal(accountData, &af); err != nil {
		return nil, fmt.Errorf("%s: parse account table: %w", op, err)
	}
	var kf keywordFile
	if err := yaml.Unmarshal(keywordData, &kf); err != nil {
		return nil, fmt.Errorf("%s: parse keyword table: %w", op, err)
	}

	t := &Tables{
		suppliers:       sf.Suppliers,
		supplierByName:  make(map[string]*Supplier, len(sf.Suppliers)),
		accounts:        af.Accounts,
		accountByNumber: make(map[string]*Account, len(af.Accounts)),
		keywords:        kf.KeywordCategories,
	}
	for i := range t.suppliers {
		t.supplierByName[NormalizeName(t.suppliers[i].Name)] = &t.suppliers[i]
	}
	for i := range t.accounts {
		t.accountByNumber[t.accounts[i].Number] = &t.accounts[i]
	}

	if _, ok := t.accountByNumber[DefaultExpenseAccount]; !ok {
		return nil, fmt.Errorf("%s: account table is missing the default expense account %s", op, DefaultExpenseAccount)
	}

	return t, nil
}

// MustLoadDefaults loads the embedded tables and panics on failure; the
// embedded defaults are compiled in and validated by tests, so a failure
// here is a programming error.
func MustLoadDefaults() *Tables {
	t, err := Load("", "", "")
	if err != nil {
		panic(err)
	}
	return t
}

func readOrDefault(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	return os.ReadFile(path)
}

// NormalizeName lowercases and collapses whitespace for table lookups.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// LookupSupplier finds a known supplier by exact normalized name, then by
// substring in either direction. Substring candidates shorter than four
// characters are skipped so initials do not swallow unrelated names.
func (t *Tables) LookupSupplier(name string) (*Supplier, bool) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, false
	}
	if s, ok := t.supplierByName[normalized]; ok {
		return s, true
	}
	for i := range t.suppliers {
		key := NormalizeName(t.suppliers[i].Name)
		if len(key) < 4 {
			continue
		}
		if strings.Contains(normalized, key) {
			return &t.suppliers[i], true
		}
		if len(normalized) >= 4 && strings.Contains(key, normalized) {
			return &t.suppliers[i], true
		}
	}
	return nil, false
}

// Account returns the chart row for a 4-digit account number.
func (t *Tables) Account(number string) (*Account, bool) {
	a, ok := t.accountByNumber[number]
	return a, ok
}

// MatchAccountByKeywords returns the first expense account with a keyword
// occurring in the given text, in chart order.
func (t *Tables) MatchAccountByKeywords(text string) (*Account, bool) {
	haystack := NormalizeName(text)
	if haystack == "" {
		return nil, false
	}
	for i := range t.accounts {
		for _, kw := range t.accounts[i].Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				return &t.accounts[i], true
			}
		}
	}
	return nil, false
}

// Alternatives lists up to max other accounts sharing chosen's category.
func (t *Tables) Alternatives(chosen string, max int) []Account {
	base, ok := t.accountByNumber[chosen]
	if !ok || max <= 0 {
		return nil
	}
	var out []Account
	for i := range t.accounts {
		if t.accounts[i].Number == chosen || t.accounts[i].Category != base.Category {
			continue
		}
		out = append(out, t.accounts[i])
		if len(out) == max {
			break
		}
	}
	return out
}

// ExpenseAccounts lists the accounts eligible as collaborator fallback
// suggestions: every account carrying keywords, plus the default.
func (t *Tables) ExpenseAccounts() []Account {
	var out []Account
	for i := range t.accounts {
		if len(t.accounts[i].Keywords) > 0 || t.accounts[i].Number == DefaultExpenseAccount {
			out = append(out, t.accounts[i])
		}
	}
	return out
}

// KeywordCategoryHits counts how many keyword categories have at least one
// word present in the text.
func (t *Tables) KeywordCategoryHits(text string) int {
	haystack := NormalizeName(text)
	if haystack == "" {
		return 0
	}
	hits := 0
	for _, cat := range t.keywords {
		for _, w := range cat.Words {
			if strings.Contains(haystack, strings.ToLower(w)) {
				hits++
				break
			}
		}
	}
	return hits
}
