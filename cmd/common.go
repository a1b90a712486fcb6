package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/config"
	"github.com/svedin/kontera/internal/llm"
	"github.com/svedin/kontera/internal/refdata"
)

// maxInputSizeBytes caps documents read from disk, matching the limits of
// the downstream Google APIs.
const maxInputSizeBytes = 20 * 1024 * 1024

// loadConfig loads the environment configuration for a subcommand run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLLMClient builds the collaborator client from configuration.
func newLLMClient(cfg *config.Config) llm.Client {
	return llm.NewOpenAIClient(cfg.OpenAIAPIKey, llm.ClientConfig{
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		MaxRetries:  cfg.OpenAIMaxRetries,
	})
}

// loadTables loads the reference tables, honoring per-table overrides.
func loadTables(cfg *config.Config) (*refdata.Tables, error) {
	tables, err := refdata.Load(cfg.SupplierTablePath, cfg.AccountTablePath, cfg.KeywordTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference tables: %w", err)
	}
	return tables, nil
}

// loadDocument reads a document file and derives its media type from the
// extension.
func loadDocument(path string, log zerolog.Logger) (classify.Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return classify.Input{}, fmt.Errorf("document file not found: %s", path)
		}
		return classify.Input{}, fmt.Errorf("error accessing document file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return classify.Input{}, fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return classify.Input{}, fmt.Errorf("document file is empty: %s", path)
	}
	if info.Size() > maxInputSizeBytes {
		return classify.Input{}, fmt.Errorf("document too large (%d bytes), maximum is %d bytes", info.Size(), maxInputSizeBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return classify.Input{}, fmt.Errorf("failed to read document file: %w", err)
	}

	mediaType := mediaTypeFor(path)
	log.Debug().
		Str("file", path).
		Int64("size", info.Size()).
		Str("media_type", mediaType).
		Msg("Document loaded")

	return classify.Input{Document: data, MediaType: mediaType}, nil
}

func mediaTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// commandContext creates a context with the given timeout that also
// cancels on SIGINT/SIGTERM.
func commandContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("Received signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// writeJSON marshals v with indentation to outputPath, or stdout when the
// path is empty.
func writeJSON(v interface{}, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("file", outputPath).Msg("Output written")
	return nil
}
