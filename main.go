// =============================================================================
// shiftpay - Main Entry Point
// =============================================================================
//
// This is the main entry point for the shiftpay CLI application. It delegates
// command execution to the cmd package.
//
// USAGE:
//   shiftpay process       - Convert a schedule, find your shifts, print pay
//   shiftpay convert       - Convert legacy .xls schedules to .xlsx
//   shiftpay scan          - Report from an existing .xlsx schedule
//   shiftpay check         - Validate the layout of a schedule
//   shiftpay version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (legacy reader, converter, scanner, pay)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/shiftpay/cmd"
)

func main() {
	cmd.Execute()
}
