// =============================================================================
// shiftpay - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which only converts legacy .xls
// schedules to .xlsx, keeping the cell fill colours.
//
// COMMAND USAGE:
//   shiftpay convert <file.xls> [more files...]
//
// OUTPUT:
//   One line per file with the path of the .xlsx written next to it. Modern
//   .xlsx inputs are reported unchanged.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/shiftpay/internal/converter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert <file> [file...]",
	Short: "Convert legacy .xls schedules to .xlsx",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var errs []error
		for _, path := range args {
			res, err := converter.ConvertFile(path)
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("Conversion failed")
				errs = append(errs, err)
				continue
			}
			log.Debug().
				Str("file", path).
				Int("sheets", res.Stats.Sheets).
				Int("cells", res.Stats.Cells).
				Int("fills", res.Stats.Fills).
				Msg("Converted")
			fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
