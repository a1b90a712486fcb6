package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/extract"
	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [document-file]",
	Short: "Extract normalized structured data from a document",
	Long: `Run classification plus the extraction stage and print the normalized
result as JSON: supplier identity, document identity, amounts, payment
metadata and line items.

With --type the classification stage is skipped and the given document
type is assumed.`,
	Example: `  # Classify, then extract
  kontera extract faktura.pdf

  # Skip classification, treat the document as a receipt
  kontera extract kvitto.jpg --type RECEIPT`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("type", "", "Assume this document type (INVOICE, RECEIPT, ...) instead of classifying")
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("timeout", 120, "Timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract-cmd")

	typeFlag, _ := cmd.Flags().GetString("type")
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

	client := newLLMClient(cfg)

	docType := models.ParseDocumentType(typeFlag)
	if typeFlag == "" {
		classification, err := classify.NewLLMClassifier(client).Classify(ctx, in)
		if err != nil {
			return err
		}
		docType = classification.DocumentType
		fmt.Fprintf(cmd.ErrOrStderr(), "Classified as %s (confidence %.2f)\n",
			docType, classification.Confidence)
	}

	extractor := extract.NewLLMExtractor(client, cfg.BaseCurrency).
		WithCompany(cfg.CompanyName, cfg.CompanyAliases)
	data, err := extractor.Extract(ctx, in, docType)
	if err != nil {
		return err
	}

	return writeJSON(data, outputPath, log)
}
