// =============================================================================
// shiftpay - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// SOURCES (later ones win):
//   1. Built-in defaults
//   2. The YAML file (config.yaml, or the path given with --config)
//   3. Environment variables, including those loaded from a .env file:
//        TARGET_NAME, HOURLY_RATE, TAX_RATE, EMPLOYER, REPORT_STYLE, LOGLEVEL
//
// The bot token is never stored in the YAML file; it is read from the
// environment variable named by telegram.token_env (BOT_TOKEN by default).
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/shiftpay/internal/retry"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "config.yaml"

// Input sources.
const (
	SourceLocal    = "local"
	SourceTelegram = "telegram"
)

// ReportStyles lists the valid report_style values.
var ReportStyles = []string{"calendar", "table", "grid"}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// SCHEDULE SETTINGS
	// =========================================================================

	// TargetName is the employee whose shifts are extracted. It is matched
	// case-insensitively against the first cell of each row.
	TargetName string `yaml:"target_name"`

	// HeaderToken is the slot label that marks a header row.
	// Default: "10-11"
	HeaderToken string `yaml:"header_token"`

	// Sheet is the worksheet to scan. Empty selects the first sheet.
	Sheet string `yaml:"sheet"`

	// =========================================================================
	// PAY SETTINGS
	// =========================================================================

	// HourlyRate is the gross pay per hour.
	HourlyRate float64 `yaml:"hourly_rate"`

	// TaxRate is the fraction withheld from gross pay, between 0 and 1.
	TaxRate float64 `yaml:"tax_rate"`

	// =========================================================================
	// REPORT SETTINGS
	// =========================================================================

	// Employer names the shifts in the table report.
	// Default: "Work"
	Employer string `yaml:"employer"`

	// ReportStyle is "calendar", "table" or "grid".
	// Default: "calendar"
	ReportStyle string `yaml:"report_style"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// Source is where schedules come from: "local" or "telegram".
	// Default: "local"
	Source string `yaml:"source"`

	// InputFile is the schedule processed in local mode when no --file flag
	// is given.
	InputFile string `yaml:"input_file"`

	// InputDir is watched for schedules in local watch mode.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// ArchiveDir receives schedules processed from InputDir.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveRetention removes archived schedules older than this. Zero keeps
	// them forever.
	ArchiveRetention time.Duration `yaml:"archive_retention"`

	// WatchInterval is how often InputDir is scanned in watch mode.
	// Default: 10s
	WatchInterval time.Duration `yaml:"watch_interval"`

	// DownloadDir is where bot downloads are saved.
	// Default: "./downloads"
	DownloadDir string `yaml:"download_dir"`

	// FileNameFormat names downloaded files.
	// Placeholders: {unique}, {original}, {uuid}, {timestamp}, {date}, {time}
	// Default: "{unique}_{original}"
	FileNameFormat string `yaml:"file_name_format"`

	// Cleanup deletes the converted workbook and downloaded inputs after the
	// report is printed.
	// Default: true
	Cleanup *bool `yaml:"cleanup"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error", "disabled"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// NESTED SETTINGS
	// =========================================================================

	Telegram TelegramConfig `yaml:"telegram"`
	Retry    RetryConfig    `yaml:"retry"`
}

// TelegramConfig configures the bot downloader.
type TelegramConfig struct {
	// TokenEnv is the environment variable holding the bot token.
	// Default: "BOT_TOKEN"
	TokenEnv string `yaml:"token_env"`

	// PollTimeout is the long-poll timeout in seconds.
	// Default: 30
	PollTimeout int `yaml:"poll_timeout"`
}

// RetryConfig configures download retries.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first. 0 turns
	// retries off. Default: 3
	MaxRetries *int          `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration.
//
// PARAMETERS:
//   - configPath: The YAML file. Empty means DefaultPath, which may be
//     missing; an explicit path must exist.
//   - overrides: Applied after the environment and before defaults and
//     validation, e.g. command-line flags.
//
// RETURNS:
//   - The merged, validated configuration.
//   - An error if the file cannot be read or parsed, or a value is invalid.
func Load(configPath string, overrides ...func(*Config)) (*Config, error) {
	cfg := &Config{}

	path, explicit := configPath, configPath != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// Defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("TARGET_NAME"); ok && v != "" {
		cfg.TargetName = v
	}
	if v, ok := lookup("EMPLOYER"); ok && v != "" {
		cfg.Employer = v
	}
	if v, ok := lookup("REPORT_STYLE"); ok && v != "" {
		cfg.ReportStyle = v
	}
	if v, ok := lookup("LOGLEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"HOURLY_RATE", &cfg.HourlyRate},
		{"TAX_RATE", &cfg.TaxRate},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.key, v, err)
		}
		*f.dst = n
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.HeaderToken == "" {
		cfg.HeaderToken = "10-11"
	}
	if cfg.Employer == "" {
		cfg.Employer = "Work"
	}
	if cfg.ReportStyle == "" {
		cfg.ReportStyle = "calendar"
	}
	if cfg.Source == "" {
		cfg.Source = SourceLocal
	}
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./archive"
	}
	if cfg.WatchInterval == 0 {
		cfg.WatchInterval = 10 * time.Second
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "./downloads"
	}
	if cfg.FileNameFormat == "" {
		cfg.FileNameFormat = "{unique}_{original}"
	}
	if cfg.Cleanup == nil {
		on := true
		cfg.Cleanup = &on
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Telegram.TokenEnv == "" {
		cfg.Telegram.TokenEnv = "BOT_TOKEN"
	}
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = 30
	}

	def := retry.DefaultConfig()
	if cfg.Retry.MaxRetries == nil {
		n := def.MaxRetries
		cfg.Retry.MaxRetries = &n
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = def.BaseDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = def.MaxDelay
	}
	if cfg.Retry.Timeout == 0 {
		cfg.Retry.Timeout = def.Timeout
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the values that the pipeline cannot work around.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TargetName) == "" {
		errs = append(errs, errors.New("target_name is required"))
	}
	if c.HourlyRate < 0 {
		errs = append(errs, fmt.Errorf("hourly_rate must not be negative, got %v", c.HourlyRate))
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		errs = append(errs, fmt.Errorf("tax_rate must be between 0 and 1, got %v", c.TaxRate))
	}
	if !contains(ReportStyles, strings.ToLower(c.ReportStyle)) {
		errs = append(errs, fmt.Errorf("report_style must be one of %s, got %q", strings.Join(ReportStyles, ", "), c.ReportStyle))
	}
	if c.Source != SourceLocal && c.Source != SourceTelegram {
		errs = append(errs, fmt.Errorf("source must be %q or %q, got %q", SourceLocal, SourceTelegram, c.Source))
	}
	if c.WatchInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch_interval must be positive, got %s", c.WatchInterval))
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("retry.max_retries must not be negative"))
	}

	return errors.Join(errs...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// CleanupEnabled reports whether temporary files are deleted after a run.
func (c *Config) CleanupEnabled() bool {
	return c.Cleanup == nil || *c.Cleanup
}

// BotToken reads the bot token from the configured environment variable.
func (c *Config) BotToken() string {
	return os.Getenv(c.Telegram.TokenEnv)
}

// RetryPolicy converts the retry settings for the retry package.
func (c *Config) RetryPolicy() retry.Config {
	maxRetries := retry.DefaultConfig().MaxRetries
	if c.Retry.MaxRetries != nil {
		maxRetries = *c.Retry.MaxRetries
	}
	return retry.Config{
		MaxRetries: maxRetries,
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
		Timeout:    c.Retry.Timeout,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
