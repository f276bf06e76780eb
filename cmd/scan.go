// =============================================================================
// shiftpay - Scan Command
// =============================================================================
//
// This file defines the 'scan' command, which prints the report for an
// existing .xlsx schedule without converting or deleting anything.
//
// COMMAND USAGE:
//   shiftpay scan <file.xlsx> [--target NAME] [--style grid]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/shiftpay/internal/report"
	"github.com/spf13/cobra"
)

// scanCmd represents the 'scan' command.
var scanCmd = &cobra.Command{
	Use:   "scan <file.xlsx>",
	Short: "Report the shifts in an existing .xlsx schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		a, err := newAnalyzer(cfg)
		if err != nil {
			return err
		}

		rep, err := a.Analyze(args[0])
		if err != nil {
			return err
		}

		st, _ := report.ParseStyle(cfg.ReportStyle)
		return report.NewPrinter(cmd.OutOrStdout(), st).Print(rep)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addReportFlags(scanCmd)
}
