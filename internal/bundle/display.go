package bundle

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// maxRows is the number of inputs shown unless details are requested
const maxRows = 10

// DisplayAnalysis prints the bundle analysis as a table
func DisplayAnalysis(w io.Writer, report *Report, showDetails bool) {
	_, _ = fmt.Fprintf(w, "\n=== Bundle Analysis: %s ===\n", report.Bundle)
	_, _ = fmt.Fprintf(w, "Total bundle size: %s\n", formatBytesHuman(report.TotalBytes))

	if len(report.Externals) > 0 {
		_, _ = fmt.Fprintln(w, "\nExternal modules (resolved by the host at runtime):")
		for _, ext := range report.Externals {
			_, _ = fmt.Fprintf(w, "  - %s\n", ext)
		}
	}

	if len(report.Inputs) > 0 {
		_, _ = fmt.Fprintln(w)

		limit := maxRows
		if showDetails || len(report.Inputs) < limit {
			limit = len(report.Inputs)
		}

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Input", "Source", "In bundle", "Share", "Imports"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetColumnAlignment([]int{
			tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_RIGHT,
			tablewriter.ALIGN_RIGHT,
			tablewriter.ALIGN_RIGHT,
			tablewriter.ALIGN_RIGHT,
		})
		for _, in := range report.Inputs[:limit] {
			table.Append([]string{
				truncatePath(in.Path, 50),
				formatBytesHuman(in.Bytes),
				formatBytesHuman(in.BytesInOutput),
				fmt.Sprintf("%.1f%%", in.Percentage),
				strconv.Itoa(in.ImportCount),
			})
		}
		table.Render()

		if remaining := len(report.Inputs) - limit; remaining > 0 {
			_, _ = fmt.Fprintf(w, "  ... and %d more files\n", remaining)
		}
	}

	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range report.Warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warn)
		}
	}

	_, _ = fmt.Fprintln(w)
}

// DisplayCoverage prints the extensions reachable from the entry point and
// which of them no rule covers
func DisplayCoverage(w io.Writer, report *CoverageReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Extension", "Status"})
	table.SetBorder(false)
	for _, ext := range report.Extensions {
		status := "covered"
		if files, ok := report.Uncovered[ext]; ok {
			status = fmt.Sprintf("UNCOVERED (%d files)", len(files))
		} else if slices.Contains(report.Native, ext) {
			status = "native"
		}
		table.Append([]string{displayExt(ext), status})
	}
	for _, ext := range report.Externals {
		table.Append([]string{ext, "external"})
	}
	table.Render()
}

// formatBytesHuman formats bytes in human-readable format
func formatBytesHuman(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// truncatePath shortens a path if it's too long
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
