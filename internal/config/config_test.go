package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svedin/kontera/internal/llm"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestLoadDefaultsAndAliases(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("BASE_CURRENCY", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "")
	t.Setenv("GOOGLE_SHEET_URL", "")
	t.Setenv("COMPANY_NAME", "Svedin Konsult AB")
	t.Setenv("COMPANY_ALIASES", "Svedin, SKAB, ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "SEK", cfg.BaseCurrency)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "Svedin Konsult AB", cfg.CompanyName)
	assert.Equal(t, []string{"Svedin", "SKAB"}, cfg.CompanyAliases)
	assert.False(t, cfg.DocumentAIEnabled())
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadRejectsBadBaseCurrency(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BASE_CURRENCY", "KRONOR")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE_CURRENCY")
}
