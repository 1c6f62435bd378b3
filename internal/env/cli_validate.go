package env

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// PrintValidation prints results as a table and a summary line.
// Returns exit code: 0 if all valid, 1 if any invalid
func PrintValidation(out io.Writer, mode ValidationMode, results []ValidationResult) int {
	fmt.Fprintln(out)
	if mode == ValidationModeDeep {
		color.New(color.FgCyan).Fprintln(out, "=== Deep Validation (API Verification) ===")
	} else {
		color.New(color.FgCyan).Fprintln(out, "=== Fast Validation (Format Checks Only) ===")
	}
	fmt.Fprintln(out)

	printValidationTableHeader(out)

	for _, result := range results {
		switch {
		case result.Skipped:
			printValidationRow(out, result.Name, "SKIP", "-", color.FgHiBlack)
		case result.Valid && result.Verified:
			printValidationRow(out, result.Name, "VERIFIED", "-", color.FgGreen)
		case result.Valid:
			printValidationRow(out, result.Name, "OK", "-", color.FgGreen)
		default:
			printValidationRow(out, result.Name, "FAIL", result.Error.Error(), color.FgRed)
		}
	}

	fmt.Fprintln(out)

	if HasFailures(results) {
		color.New(color.FgRed).Fprintln(out, "Validation failed")
		if mode == ValidationModeFast {
			color.New(color.FgYellow).Fprintln(out, "Run 'validate --deep' to verify credentials with API calls")
		}
		return 1
	}

	color.New(color.FgGreen).Fprintln(out, "Validation passed")
	return 0
}

// printValidationTableHeader prints the table header
func printValidationTableHeader(out io.Writer) {
	color.New(color.FgCyan, color.Bold).Fprintf(out, "%-25s %-10s %s\n", "Field", "Status", "Error")
	fmt.Fprintln(out, "----------------------------------------------------------------")
}

// printValidationRow prints a single validation result row
func printValidationRow(out io.Writer, field, status, errorMsg string, statusColor color.Attribute) {
	fmt.Fprintf(out, "%-25s ", field)
	color.New(statusColor).Fprintf(out, "%-10s ", status)

	if errorMsg != "-" {
		color.New(color.FgRed).Fprintln(out, errorMsg)
	} else {
		fmt.Fprintln(out, errorMsg)
	}
}
