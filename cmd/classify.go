package cmd

import (
	"github.com/spf13/cobra"

	"github.com/svedin/kontera/internal/classify"
	"github.com/svedin/kontera/internal/logger"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [document-file]",
	Short: "Classify a document (invoice, receipt, credit note, ...)",
	Long: `Run only the classification stage and print the result as JSON.

The document is sent to the collaborator as an image or PDF attachment.
With --text, the given plain text is classified instead of a file.`,
	Example: `  # Classify a scanned receipt
  kontera classify kvitto.jpg

  # Classify pre-extracted text
  kontera classify --text "ESPRESSO HOUSE  Totalt 184,00 kr"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().String("text", "", "Classify this text instead of a file")
	classifyCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	classifyCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("classify-cmd")

	text, _ := cmd.Flags().GetString("text")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if len(args) == 0 && text == "" {
		return cmd.Usage()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := classify.Input{Text: text}
	if len(args) == 1 {
		in, err = loadDocument(args[0], log)
		if err != nil {
			return err
		}
		in.Text = text
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	classifier := classify.NewLLMClassifier(newLLMClient(cfg))
	result, err := classifier.Classify(ctx, in)
	if err != nil {
		return err
	}

	return writeJSON(result, outputPath, log)
}
