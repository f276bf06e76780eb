// =============================================================================
// shiftpay - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (shiftpay)
//   ├── processCmd (shiftpay process)
//   ├── convertCmd (shiftpay convert)
//   ├── scanCmd    (shiftpay scan)
//   ├── checkCmd   (shiftpay check)
//   └── versionCmd (shiftpay version)
//
// ENVIRONMENT:
//   Before any command runs, the root command:
//   1. Loads a .env file from the working directory, if present
//   2. Points the global zerolog logger at stderr
//   3. Sets the log level from LOGLEVEL, or debug with --verbose
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/shiftpay/internal/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// Empty means config.yaml in the current directory, which may be absent.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "shiftpay",
	Short: "shiftpay - Extract your shifts from a colour-coded schedule and total the pay",

	Long: `shiftpay reads a weekly work schedule spreadsheet in which each employee's
shifts are marked by filling hour-slot cells with colour. It finds the rows of
one employee, turns the coloured slots into shifts, and prints them with the
weekly hours, gross pay and net pay.

Legacy .xls schedules are converted to .xlsx first, keeping the fill colours.
Schedules can be given as a local file or sent to a Telegram bot.

Example Usage:
  shiftpay process --file week.xls        # Convert, scan and report one file
  shiftpay process --source telegram      # Wait for a schedule sent to the bot
  shiftpay process --watch                # Keep processing schedules from input_dir
  shiftpay convert week.xls               # Only convert .xls to .xlsx
  shiftpay scan week.xlsx --target Farid  # Report from an existing .xlsx
  shiftpay check week.xls                 # Validate the schedule layout`,

	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupEnvironment()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	// --config flag: Allows the user to specify a custom configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is config.yaml)",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// ENVIRONMENT AND LOGGING
// =============================================================================

// setupEnvironment loads the .env file and configures zerolog output and level.
func setupEnvironment() {
	err := godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	setLogLevel(os.Getenv("LOGLEVEL"))

	// Reported only now so that the logger is ready.
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found; using the existing environment.")
	}
}

// setLogLevel applies a level name. --verbose always wins.
func setLogLevel(name string) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}

	switch strings.ToLower(name) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown log level '%s', defaulting to info.", name)
	}
}

// loadConfig reads the configuration with the command-line overrides and
// applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile, flagOverrides)
	if err != nil {
		return nil, err
	}
	setLogLevel(cfg.LogLevel)
	return cfg, nil
}
