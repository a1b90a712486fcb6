package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	tables, err := Load("", "", "")
	require.NoError(t, err)

	// Fixed posting accounts must exist in the chart.
	for _, number := range []string{AccountPayables, AccountInputVAT, AccountBank, AccountCash, DefaultExpenseAccount} {
		_, ok := tables.Account(number)
		assert.True(t, ok, "account %s missing from default chart", number)
	}
}

func TestLookupSupplier(t *testing.T) {
	tables := MustLoadDefaults()

	s, ok := tables.LookupSupplier("Espresso House")
	require.True(t, ok)
	assert.Equal(t, "6071", s.Account)
	assert.Equal(t, "REP", s.CostCenter)

	// Case and whitespace insensitive
	s, ok = tables.LookupSupplier("  espresso   HOUSE ")
	require.True(t, ok)
	assert.Equal(t, "6071", s.Account)

	// Substring: the printed name often carries legal suffixes
	s, ok = tables.LookupSupplier("Espresso House Sverige AB")
	require.True(t, ok)
	assert.Equal(t, "6071", s.Account)

	_, ok = tables.LookupSupplier("Okänd Firma AB")
	assert.False(t, ok)

	_, ok = tables.LookupSupplier("")
	assert.False(t, ok)
}

func TestMatchAccountByKeywords(t *testing.T) {
	tables := MustLoadDefaults()

	a, ok := tables.MatchAccountByKeywords("Taxi till Arlanda")
	require.True(t, ok)
	assert.Equal(t, "5800", a.Number)

	a, ok = tables.MatchAccountByKeywords("Microsoft 365 licens, årsavtal")
	require.True(t, ok)
	assert.Equal(t, "6540", a.Number)

	_, ok = tables.MatchAccountByKeywords("helt omatchbar beskrivning")
	assert.False(t, ok)
}

func TestAlternatives(t *testing.T) {
	tables := MustLoadDefaults()

	alts := tables.Alternatives("5800", 3)
	require.NotEmpty(t, alts)
	assert.LessOrEqual(t, len(alts), 3)
	for _, a := range alts {
		assert.NotEqual(t, "5800", a.Number, "alternatives must exclude the chosen account")
		assert.Equal(t, "resor", a.Category)
	}

	assert.Nil(t, tables.Alternatives("0000", 3), "unknown account has no alternatives")
	assert.Nil(t, tables.Alternatives("5800", 0))
}

func TestKeywordCategoryHits(t *testing.T) {
	tables := MustLoadDefaults()

	assert.Equal(t, 0, tables.KeywordCategoryHits("Skruvdragare 18V"))
	assert.Equal(t, 1, tables.KeywordCategoryHits("Kaffe att ta med"))
	// meal + beverage + venue
	assert.Equal(t, 3, tables.KeywordCategoryHits("Lunch och kaffe på restaurang Prinsen"))
	assert.Equal(t, 0, tables.KeywordCategoryHits(""))
}

func TestExpenseAccountsIncludeDefault(t *testing.T) {
	tables := MustLoadDefaults()

	accounts := tables.ExpenseAccounts()
	require.NotEmpty(t, accounts)
	found := false
	for _, a := range accounts {
		if a.Number == DefaultExpenseAccount {
			found = true
		}
	}
	assert.True(t, found)
}
