package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/logger"
)

// Config carries everything the pipeline and its adapters read from the
// environment. Loaded once in main; treated as read-only afterwards.
type Config struct {
	// OpenAI (classification / extraction / account-suggestion collaborator)
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float32
	OpenAIMaxRetries  int

	// Company context used in prompts
	CompanyName    string
	CompanyAliases []string

	// Accounting defaults
	BaseCurrency string

	// Optional Google Cloud adapters (OCR front-end, Document AI cross-check)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Optional Google Sheets voucher sink
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Reference table overrides (embedded defaults used when empty)
	SupplierTablePath string
	AccountTablePath  string
	KeywordTablePath  string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature:     getFloatEnv("OPENAI_TEMPERATURE", 0.1),
		OpenAIMaxRetries:      getIntEnv("OPENAI_MAX_RETRIES", 3),
		CompanyName:           getEnv("COMPANY_NAME", ""),
		BaseCurrency:          getEnv("BASE_CURRENCY", "SEK"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "eu"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Vouchers"),
		SupplierTablePath:     getEnv("SUPPLIER_TABLE_PATH", ""),
		AccountTablePath:      getEnv("ACCOUNT_TABLE_PATH", ""),
		KeywordTablePath:      getEnv("KEYWORD_TABLE_PATH", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if aliases := getEnv("COMPANY_ALIASES", ""); aliases != "" {
		for _, a := range strings.Split(aliases, ",") {
			if a = strings.TrimSpace(a); a != "" {
				config.CompanyAliases = append(config.CompanyAliases, a)
			}
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required: %w", llm.ErrMissingAPIKey)
	}
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("BASE_CURRENCY must be a 3-letter ISO 4217 code, got %q", c.BaseCurrency)
	}
	return nil
}

// DocumentAIEnabled reports whether the Document AI cross-check is configured.
func (c *Config) DocumentAIEnabled() bool {
	return c.GoogleCloudProject != "" && c.DocumentAIProcessorID != ""
}

// SheetsEnabled reports whether the Google Sheets voucher sink is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSheetURL != ""
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}
