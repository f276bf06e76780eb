// =============================================================================
// shiftpay - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline:
// acquire a schedule, convert it, scan it, print the report and clean up.
//
// COMMAND USAGE:
//   shiftpay process [flags]
//
// FLAGS:
//   --file    : Schedule to process (overrides input_file)
//   --source  : "local" or "telegram" (overrides source)
//   --watch   : Keep going until interrupted
//   --target  : Employee name (overrides target_name)
//   --style   : Report layout (overrides report_style)
//
// ACQUISITION:
//   local            : the --file / input_file schedule, once
//   local --watch    : every schedule that appears in input_dir; processed
//                      files are moved to archive_dir
//   telegram         : the next schedule sent to the bot
//   telegram --watch : every schedule sent to the bot
//
// CLEANUP:
//   When cleanup is enabled the converted .xlsx (if it differs from the input)
//   and downloaded inputs are deleted after the report is printed. Local
//   inputs are never deleted.
//
// Ctrl+C stops a waiting bot or watch loop.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ginjaninja78/shiftpay/internal/analyzer"
	"github.com/ginjaninja78/shiftpay/internal/config"
	"github.com/ginjaninja78/shiftpay/internal/pay"
	"github.com/ginjaninja78/shiftpay/internal/report"
	"github.com/ginjaninja78/shiftpay/internal/telegram"
	"github.com/ginjaninja78/shiftpay/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// filePath is the schedule to process in local mode.
var filePath string

// source overrides the configured input source.
var source string

// watch keeps processing schedules until interrupted.
var watch bool

// target overrides the configured employee name.
var target string

// style overrides the configured report layout.
var style string

// errNoInput is returned when local mode has nothing to process.
var errNoInput = errors.New("no schedule given: use --file, input_file, --watch or --source telegram")

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert a schedule, extract your shifts and print the pay report",
	Long: `The process command acquires a schedule (local file, watched directory or
Telegram bot), converts legacy .xls files to .xlsx keeping the fill colours,
finds the coloured slots of the target employee, and prints the shifts with
the weekly totals.

Finding no shifts is not an error: the report says so and the command exits 0.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&filePath, "file", "f", "", "Schedule file to process (.xls or .xlsx)")
	processCmd.Flags().StringVar(&source, "source", "", "Input source: local or telegram")
	processCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep processing schedules until interrupted")
	addReportFlags(processCmd)
}

// addReportFlags registers the flags shared by process and scan.
func addReportFlags(c *cobra.Command) {
	c.Flags().StringVarP(&target, "target", "t", "", "Employee name to look for (overrides target_name)")
	c.Flags().StringVar(&style, "style", "", "Report layout: calendar, table or grid")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess loads the configuration and dispatches on the input source.
func runProcess(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("target", cfg.TargetName).
		Str("source", cfg.Source).
		Bool("watch", watch).
		Msg("Starting shiftpay")

	switch {
	case cfg.Source == config.SourceTelegram:
		return runTelegram(ctx, cfg, a)
	case watch:
		return runWatch(ctx, cfg, a)
	case cfg.InputFile != "":
		_, err := a.Process(cfg.InputFile)
		return err
	default:
		return errNoInput
	}
}

// flagOverrides copies the command-line flags that were set into cfg.
func flagOverrides(cfg *config.Config) {
	if target != "" {
		cfg.TargetName = target
	}
	if style != "" {
		cfg.ReportStyle = style
	}
	if source != "" {
		cfg.Source = source
	}
	if filePath != "" {
		cfg.InputFile = filePath
	}
}

// newAnalyzer builds the pipeline from a validated configuration.
func newAnalyzer(cfg *config.Config) (*analyzer.Analyzer, error) {
	st, err := report.ParseStyle(cfg.ReportStyle)
	if err != nil {
		return nil, err
	}

	return analyzer.New(os.Stdout, analyzer.Options{
		Target:      cfg.TargetName,
		HeaderToken: cfg.HeaderToken,
		Sheet:       cfg.Sheet,
		Employer:    cfg.Employer,
		Style:       st,
		Calculator:  pay.NewCalculator(cfg.HourlyRate, cfg.TaxRate),
		Cleanup:     cfg.CleanupEnabled(),
	}), nil
}

// =============================================================================
// TELEGRAM SOURCE
// =============================================================================

// runTelegram waits for schedules sent to the bot. Without --watch it stops
// after the first one.
func runTelegram(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer) error {
	dl, err := telegram.Connect(cfg.BotToken(), telegram.Options{
		Dir:         cfg.DownloadDir,
		NameFormat:  cfg.FileNameFormat,
		PollTimeout: cfg.Telegram.PollTimeout,
		Retry:       cfg.RetryPolicy(),
	})
	if err != nil {
		return err
	}
	defer dl.Close()

	for {
		log.Info().Msg("Waiting for a schedule file...")
		path, err := dl.WaitForSchedule(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Stopped")
				return nil
			}
			return err
		}

		// The downloaded input is temporary too.
		if _, err := a.Process(path, path); err != nil {
			if !watch {
				return err
			}
			log.Error().Err(err).Str("file", path).Msg("Failed to process schedule")
		}

		if !watch {
			return nil
		}
	}
}

// =============================================================================
// WATCHED DIRECTORY
// =============================================================================

// runWatch processes every schedule that appears in the input directory and
// archives it, until ctx is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer) error {
	fm := utils.NewFileManager(cfg.DownloadDir, cfg.InputDir, cfg.ArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	log.Info().
		Str("input_dir", cfg.InputDir).
		Dur("interval", cfg.WatchInterval).
		Msg("Watching for schedules")

	failed := make(map[string]bool)
	ticker := time.NewTicker(cfg.WatchInterval)
	defer ticker.Stop()

	for {
		processWatched(fm, a, failed)

		if cfg.ArchiveRetention > 0 {
			if n, err := fm.CleanOldArchives(cfg.ArchiveRetention); err != nil {
				log.Warn().Err(err).Msg("Failed to clean archive")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("Cleaned old archives")
			}
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// processWatched handles one pass over the input directory. Files that fail
// stay in place and are not retried until they change name.
func processWatched(fm *utils.FileManager, a *analyzer.Analyzer, failed map[string]bool) {
	files, err := fm.DiscoverSchedules()
	if err != nil {
		log.Error().Err(err).Msg("Failed to scan input directory")
		return
	}

	for _, path := range files {
		if failed[path] {
			continue
		}

		res, err := a.Process(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to process schedule")
			failed[path] = true
			continue
		}

		// A converted copy kept with cleanup off must not be picked up again.
		if res.ModernPath != path && utils.FileExists(res.ModernPath) {
			if _, err := fm.ArchiveFile(res.ModernPath); err != nil {
				log.Warn().Err(err).Str("file", res.ModernPath).Msg("Failed to archive converted file")
			}
		}

		archived, err := fm.ArchiveFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to archive schedule")
			failed[path] = true
			continue
		}
		log.Info().Str("file", path).Str("archive", archived).Msg("Archived schedule")
	}
}
