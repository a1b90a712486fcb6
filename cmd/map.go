package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/internal/mapping"
	"github.com/svedin/kontera/pkg/models"
)

var mapCmd = &cobra.Command{
	Use:   "map [extraction-file]",
	Short: "Map extracted data onto BAS ledger accounts",
	Long: `Run only the mapping stage: read a JSON extraction (as produced by
the extract command) and print the resulting voucher proposal.

The document type drives the voucher construction; pass it with --type
or accept the default SUPPLIER_INVOICE treatment of an INVOICE.`,
	Example: `  # Map a previously extracted invoice
  kontera map extraction.json --type INVOICE

  # Offline mapping without the collaborator fallback
  kontera map extraction.json --type RECEIPT --no-llm`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().String("type", "INVOICE", "Document type of the extraction (INVOICE, RECEIPT, ...)")
	mapCmd.Flags().Bool("no-llm", false, "Disable the collaborator fallback in the suggestion chain")
	mapCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	mapCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runMap(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("map-cmd")

	typeFlag, _ := cmd.Flags().GetString("type")
	noLLM, _ := cmd.Flags().GetBool("no-llm")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read extraction file: %w", err)
	}
	var data models.ExtractedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse extraction file: %w", err)
	}

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	mapper := mapping.NewRuleMapper(tables, nil)
	if !noLLM {
		mapper = mapping.NewRuleMapper(tables, newLLMClient(cfg))
	}

	result, err := mapper.Map(ctx, models.ParseDocumentType(typeFlag), &data)
	if err != nil {
		return err
	}

	return writeJSON(result, outputPath, log)
}
