package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/config"
	"github.com/svedin/kontera/internal/docai"
	"github.com/svedin/kontera/internal/extract"
	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/internal/mapping"
	"github.com/svedin/kontera/internal/ocr"
	"github.com/svedin/kontera/internal/pipeline"
	"github.com/svedin/kontera/internal/sheets"
	"github.com/svedin/kontera/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process [document-file]",
	Short: "Run the full pipeline: classify, extract, map",
	Long: `Process one document end to end and print the complete run result:
classification, normalized extraction and the voucher proposal.

Optional adapters activate based on flags and configuration:
  --ocr          run the document through Cloud Vision first and attach
                 the recognized text to the collaborator prompts
  (automatic)    the Document AI cross-check runs when
                 GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID are set
  --publish      append the voucher to the configured Google Sheet`,
	Example: `  # Full pipeline on a scanned receipt
  kontera process kvitto.jpg

  # OCR first, publish the voucher to the review sheet
  kontera process faktura.pdf --ocr --publish`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("ocr", false, "Recognize text with Cloud Vision before classification")
	processCmd.Flags().Bool("publish", false, "Publish the voucher to the configured Google Sheet")
	processCmd.Flags().Bool("no-crosscheck", false, "Skip the Document AI cross-check even when configured")
	processCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().Int("timeout", 300, "Timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process-cmd")

	useOCR, _ := cmd.Flags().GetBool("ocr")
	publish, _ := cmd.Flags().GetBool("publish")
	noCrossCheck, _ := cmd.Flags().GetBool("no-crosscheck")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := loadDocument(args[0], log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	if useOCR {
		if err := attachRecognizedText(ctx, &in); err != nil {
			return err
		}
	}

	p, cleanup, err := buildPipeline(ctx, cfg, publish, noCrossCheck)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.Process(ctx, in)
	if err != nil {
		return err
	}

	printSummary(cmd, result)
	return writeJSON(result, outputPath, log)
}

// attachRecognizedText runs the document through Cloud Vision and puts the
// recognized text on the input.
func attachRecognizedText(ctx context.Context, in *classify.Input) error {
	recognizer, err := ocr.NewVisionRecognizer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create OCR recognizer: %w", err)
	}
	defer recognizer.Close()

	result, err := recognizer.Recognize(ctx, in.Document, in.MediaType)
	if err != nil {
		return fmt.Errorf("OCR failed: %w", err)
	}
	in.Text = result.Text
	return nil
}

// buildPipeline assembles the pipeline with whatever optional adapters the
// configuration and flags enable. The returned cleanup closes adapter
// clients.
func buildPipeline(ctx context.Context, cfg *config.Config, publish, noCrossCheck bool) (p *pipeline.Pipeline, cleanup func(), err error) {
	client := newLLMClient(cfg)

	tables, err := loadTables(cfg)
	if err != nil {
		return nil, nil, err
	}

	var opts []pipeline.Option
	cleanup = func() {}

	if cfg.DocumentAIEnabled() && !noCrossCheck {
		processor, err := docai.NewProcessor(ctx, docai.Config{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Document AI processor: %w", err)
		}
		cleanup = func() { _ = processor.Close() }
		opts = append(opts, pipeline.WithCrossCheck(docai.NewCrossCheck(processor)))
	}

	if publish {
		if !cfg.SheetsEnabled() {
			return nil, nil, fmt.Errorf("--publish requires GOOGLE_SHEET_URL to be set")
		}
		svc, err := sheets.NewService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sheets sink: %w", err)
		}
		opts = append(opts, pipeline.WithSink(&sheetSink{service: svc, worksheet: cfg.GoogleSheetWorksheet}))
	}

	p = pipeline.New(
		classify.NewLLMClassifier(client),
		extract.NewLLMExtractor(client, cfg.BaseCurrency).
			WithCompany(cfg.CompanyName, cfg.CompanyAliases),
		mapping.NewRuleMapper(tables, client),
		opts...,
	)
	return p, cleanup, nil
}

// sheetSink adapts the sheets service to the pipeline Sink interface.
type sheetSink struct {
	service   *sheets.Service
	worksheet string
}

func (s *sheetSink) Publish(ctx context.Context, mapping *models.LedgerMapping) error {
	return s.service.AppendMapping(ctx, mapping, s.worksheet)
}

// printSummary writes a short human-readable recap to stderr so the JSON
// on stdout stays machine-readable.
func printSummary(cmd *cobra.Command, result *pipeline.Result) {
	m := result.Mapping
	fmt.Fprintf(cmd.ErrOrStderr(), "\n%s -> %s, %d voucher lines, confidence %.2f",
		result.Classification.DocumentType, m.VoucherType, len(m.VoucherLines), m.OverallConfidence)
	if m.RequiresReview {
		fmt.Fprint(cmd.ErrOrStderr(), " [REVIEW]")
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	for _, w := range m.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "  warning: %s\n", w)
	}
}
