package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/svedin/kontera/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "kontera",
	Short: "Kontera - document pipeline for Swedish bookkeeping",
	Long: `Kontera turns scanned financial documents into double-entry voucher
proposals. A document runs through three stages: classification
(invoice, receipt, credit note, ...), field extraction with Swedish
number and date normalization, and mapping onto BAS ledger accounts.

Each stage is available as its own subcommand for debugging; the
process command runs the whole pipeline.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Kontera CLI - use --help to see available commands.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l := logger.WithComponent("cmd")
		l.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
