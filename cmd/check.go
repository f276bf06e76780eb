// =============================================================================
// shiftpay - Check Command
// =============================================================================
//
// This file defines the 'check' command, which validates the layout of a
// schedule without printing a pay report.
//
// COMMAND USAGE:
//   shiftpay check <file> [--target NAME]
//
// EXIT STATUS:
//   Non-zero when the schedule has error issues (e.g. no header row).
//   Warnings are printed but do not fail the command.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/shiftpay/internal/validation"
	"github.com/spf13/cobra"
)

// checkCmd represents the 'check' command.
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate the layout of a schedule",
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

		res, err := a.Check(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Header rows: %d\n", res.HeadersFound)
		fmt.Fprintf(out, "Rows for %s: %d\n\n", cfg.TargetName, res.TargetRows)
		fmt.Fprint(out, validation.FormatIssues(res.Issues))

		if !res.IsValid {
			return errors.New("schedule has layout errors")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&target, "target", "t", "", "Employee name to look for (overrides target_name)")
}
