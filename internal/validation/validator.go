// =============================================================================
// shiftpay - Schedule Validation
// =============================================================================
//
// This module checks that a schedule grid can be scanned at all: that at
// least one header row carrying the header token can be located (error), and
// that some row belongs to the target (warning). It also counts both kinds of
// row for the 'check' command.
//
// ERROR HANDLING:
//   - Issues are collected, not returned one at a time
//   - Only "error" issues make the result invalid
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/shiftpay/internal/schedule"
	"github.com/ginjaninja78/shiftpay/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ISSUE TYPES
// =============================================================================

// Issue is a single finding.
type Issue struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Rule names the check that produced the issue.
	Rule string

	// Value is the cell text involved, if any.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	if i.Value != "" {
		return fmt.Sprintf("[%s] %s (value: '%s')", strings.ToUpper(i.Severity), i.Message, i.Value)
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(i.Severity), i.Message)
}

// Rule names.
const (
	RuleNoHeader = "no-header"
	RuleNoTarget = "no-target"
)

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the results of validation.
type Result struct {
	// IsValid is true if there are no error issues.
	IsValid bool

	// Issues contains every finding.
	Issues []*Issue

	// ErrorCount is the number of error issues.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// HeadersFound is the number of header rows.
	HeadersFound int

	// TargetRows is the number of rows that matched the target.
	TargetRows int
}

func (r *Result) add(issue *Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks schedule grids for one target.
type Validator struct {
	// Target is matched like the scanner matches it.
	Target string

	// HeaderToken marks header rows. Empty means schedule.DefaultHeaderToken.
	HeaderToken string
}

// NewValidator creates a Validator for target with the default header token.
func NewValidator(target string) *Validator {
	return &Validator{Target: target, HeaderToken: schedule.DefaultHeaderToken}
}

// Validate checks the whole sheet.
//
// PARAMETERS:
//   - sheet: The grid returned by the modern reader.
//
// RETURNS:
//   - The collected issues. A nil sheet yields a single no-header error.
func (v *Validator) Validate(sheet *types.Sheet) *Result {
	result := &Result{IsValid: true}
	if sheet == nil {
		result.add(&Issue{Severity: SeverityError, Rule: RuleNoHeader, Message: "no sheet to validate"})
		return result
	}

	token := v.HeaderToken
	if token == "" {
		token = schedule.DefaultHeaderToken
	}
	target := strings.ToLower(v.Target)

	for _, row := range sheet.Rows {
		if len(row) == 0 {
			continue
		}
		if isHeader(row, token) {
			result.HeadersFound++
			continue
		}
		if target != "" && strings.Contains(strings.ToLower(row[0].Text), target) {
			result.TargetRows++
		}
	}

	if result.HeadersFound == 0 {
		result.add(&Issue{
			Severity: SeverityError,
			Rule:     RuleNoHeader,
			Value:    token,
			Message:  "no header row contains the header token",
		})
	} else if target != "" && result.TargetRows == 0 {
		result.add(&Issue{
			Severity: SeverityWarning,
			Rule:     RuleNoTarget,
			Value:    v.Target,
			Message:  "no row starts with the target name",
		})
	}

	return result
}

func isHeader(row types.Row, token string) bool {
	for _, c := range row {
		if c.Text == token {
			return true
		}
	}
	return false
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FormatIssues formats issues for display.
//
// RETURNS:
//   - A formatted string containing all issues.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "No schedule issues found.\n"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d issue(s):\n\n", len(issues)))
	for i, issue := range issues {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue.Error()))
	}
	return builder.String()
}
