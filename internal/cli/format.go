package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// fatih/color disables colors itself when output is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
	overlayColor = color.New(color.FgMagenta, color.Bold)
)

// PrintSection prints a section header
func PrintSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
	fmt.Fprintln(w)
}

// PrintSuccess prints a success message with a checkmark
func PrintSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

// PrintWarning prints a warning message with a warning symbol
func PrintWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

// PrintError prints an error message
func PrintError(w io.Writer, msg string) {
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

// PrintInfo prints an informational message
func PrintInfo(w io.Writer, msg string) {
	fmt.Fprintln(w, msg)
}

// PrintLabelValue prints a label-value pair with proper formatting
func PrintLabelValue(w io.Writer, label, value string) {
	_, _ = labelColor.Fprintf(w, "  %s: ", label)
	_, _ = valueColor.Fprintln(w, value)
}

// PrintList prints a list of items with bullet points
func PrintList(w io.Writer, items []string, indent int) {
	indentStr := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Fprintf(w, "%s• %s\n", indentStr, item)
	}
}

// PrintTable prints a simple table. Cells of rows marked in highlight are
// printed in the overlay color.
func PrintTable(w io.Writer, headers []string, rows [][]string, highlight map[int]bool) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	// Calculate column widths
	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	// Print header
	fmt.Fprint(w, "  ")
	for i, header := range headers {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		_, _ = headerColor.Fprintf(w, "%-*s", colWidths[i], header)
	}
	fmt.Fprintln(w)

	// Print separator
	fmt.Fprint(w, "  ")
	for i, width := range colWidths {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	// Print rows
	for r, row := range rows {
		clr := valueColor
		if highlight[r] {
			clr = overlayColor
		}
		fmt.Fprint(w, "  ")
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			_, _ = clr.Fprintf(w, "%-*s", colWidths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

// PrintEmptyState prints a message when there's no data to show
func PrintEmptyState(w io.Writer, msg string) {
	_, _ = dimColor.Fprintf(w, "  %s\n", msg)
}

// PrintCount prints a count with proper formatting
func PrintCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
