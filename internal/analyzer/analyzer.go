// =============================================================================
// shiftpay - Analyzer
// =============================================================================
//
// This module runs the pipeline for one schedule file:
//
//   1. Convert the legacy .xls to .xlsx (identity for .xlsx inputs)
//   2. Parse the chosen worksheet into a grid of cells and fills
//   3. Check that a header row and the target can be located
//   4. Scan the grid for the target's highlighted slots
//   5. Price the shifts and build the report
//   6. Print the report
//   7. Delete the temporary files
//
// Finding no shifts is not an error: the report prints its "no shifts" line.
//
// =============================================================================

package analyzer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ginjaninja78/shiftpay/internal/converter"
	"github.com/ginjaninja78/shiftpay/internal/pay"
	"github.com/ginjaninja78/shiftpay/internal/report"
	"github.com/ginjaninja78/shiftpay/internal/schedule"
	"github.com/ginjaninja78/shiftpay/internal/types"
	"github.com/ginjaninja78/shiftpay/internal/validation"
	"github.com/ginjaninja78/shiftpay/internal/xlsxparser"
	"github.com/ginjaninja78/shiftpay/pkg/utils"
	"github.com/rs/zerolog/log"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures an Analyzer.
type Options struct {
	// Target is the employee name matched against the first cell of each row.
	Target string

	// HeaderToken marks header rows. Empty means schedule.DefaultHeaderToken.
	HeaderToken string

	// Sheet selects the worksheet. Empty means the first sheet.
	Sheet string

	// Employer names the shifts in the table layout.
	Employer string

	// Style is the report layout.
	Style report.Style

	// Calculator prices each shift.
	Calculator pay.Calculator

	// Cleanup deletes the converted workbook and any extra files once a
	// file has been processed, whether or not it succeeded.
	Cleanup bool
}

// =============================================================================
// RESULT
// =============================================================================

// Result describes one processed file.
type Result struct {
	// InputPath is the schedule as acquired.
	InputPath string

	// ModernPath is the workbook that was scanned.
	ModernPath string

	// Report holds the shifts and totals.
	Report *types.Report

	// Removed lists the temporary files deleted afterwards.
	Removed []string

	// Duration is how long the pipeline took.
	Duration time.Duration
}

// =============================================================================
// ANALYZER
// =============================================================================

// Analyzer runs the pipeline and prints reports to one output.
type Analyzer struct {
	opts    Options
	printer *report.Printer
}

// New returns an Analyzer writing reports to out.
func New(out io.Writer, opts Options) *Analyzer {
	return &Analyzer{
		opts:    opts,
		printer: report.NewPrinter(out, opts.Style),
	}
}

// Process runs the whole pipeline for one file.
//
// PARAMETERS:
//   - inputPath: A .xls or .xlsx schedule.
//   - extra: Further files to delete together with the converted workbook
//     when cleanup is on, e.g. a downloaded input.
//
// RETURNS:
//   - The result, including the report.
//   - An error from conversion, loading or printing. Cleanup runs whether
//     or not the pipeline succeeded, and its failures are logged only.
func (a *Analyzer) Process(inputPath string, extra ...string) (*Result, error) {
	start := time.Now()
	res := &Result{InputPath: inputPath}

	modern, err := converter.Convert(inputPath)
	if err != nil {
		a.cleanup(res, extra)
		return res, fmt.Errorf("failed to convert %s: %w", inputPath, err)
	}
	res.ModernPath = modern

	temp := extra
	if modern != inputPath {
		temp = append([]string{modern}, extra...)
	}
	defer a.cleanup(res, temp)

	rep, err := a.Analyze(modern)
	if err != nil {
		return res, err
	}
	res.Report = rep

	if err := a.printer.Print(rep); err != nil {
		return res, fmt.Errorf("failed to print report: %w", err)
	}

	res.Duration = time.Since(start)
	log.Debug().
		Str("file", inputPath).
		Int("shifts", len(rep.Records)).
		Dur("elapsed", res.Duration).
		Msg("Processed schedule")
	return res, nil
}

// cleanup deletes temp when cleanup is on and records what went.
func (a *Analyzer) cleanup(res *Result, temp []string) {
	if !a.opts.Cleanup || len(temp) == 0 {
		return
	}

	removed, err := utils.RemoveFiles(temp...)
	for _, p := range removed {
		log.Info().Str("file", p).Msg("Deleted temporary file")
	}
	if err != nil {
		log.Warn().Err(err).Msg("Cleanup incomplete")
	}
	res.Removed = removed
}

// Analyze reads a modern workbook and builds its report without printing.
// Validation issues are logged as warnings.
func (a *Analyzer) Analyze(modernPath string) (*types.Report, error) {
	sheet, err := xlsxparser.Parse(modernPath, xlsxparser.Options{Sheet: a.opts.Sheet})
	if err != nil {
		return nil, err
	}

	for _, issue := range a.validator().Validate(sheet).Issues {
		log.Warn().
			Str("rule", issue.Rule).
			Str("value", issue.Value).
			Msg(issue.Message)
	}

	scanner := schedule.NewScanner(a.opts.Target)
	if a.opts.HeaderToken != "" {
		scanner.HeaderToken = a.opts.HeaderToken
	}

	spans, err := scanner.Scan(sheet)
	switch {
	case errors.Is(err, schedule.ErrNoShiftsFound):
		log.Info().Str("target", a.opts.Target).Str("sheet", sheet.Name).Msg("No colored shifts found")
	case err != nil:
		return nil, fmt.Errorf("failed to scan %s: %w", modernPath, err)
	default:
		log.Info().Str("target", a.opts.Target).Int("shifts", len(spans)).Msg("Shifts detected")
	}

	return a.opts.Calculator.BuildReport(a.opts.Target, a.opts.Employer, spans), nil
}

// Check converts inputPath if needed and validates its layout. The converted
// copy is deleted afterwards when cleanup is on.
func (a *Analyzer) Check(inputPath string) (*validation.Result, error) {
	modern, err := converter.Convert(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", inputPath, err)
	}
	if a.opts.Cleanup && modern != inputPath {
		defer utils.RemoveFiles(modern)
	}

	sheet, err := xlsxparser.Parse(modern, xlsxparser.Options{Sheet: a.opts.Sheet})
	if err != nil {
		return nil, err
	}
	return a.validator().Validate(sheet), nil
}

func (a *Analyzer) validator() *validation.Validator {
	v := validation.NewValidator(a.opts.Target)
	if a.opts.HeaderToken != "" {
		v.HeaderToken = a.opts.HeaderToken
	}
	return v
}
