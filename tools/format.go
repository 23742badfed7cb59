package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/runner"
)

// FormatSearchResults formats matching records as human-readable text, one
// block per record in catalog order.
func FormatSearchResults(results []library.Record, totalMatches int) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	if totalMatches > len(results) {
		builder.WriteString(fmt.Sprintf("Found %d records (showing %d):\n\n", totalMatches, len(results)))
	} else {
		builder.WriteString(fmt.Sprintf("Found %d records:\n\n", totalMatches))
	}

	for i, r := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", r.Path))
		builder.WriteString(fmt.Sprintf("  %s\n", describe(r)))
		if len(r.Keywords) > 0 {
			builder.WriteString(fmt.Sprintf("  keywords: %s\n", strings.Join(r.Keywords, ", ")))
		}
	}

	return builder.String()
}

// FormatFileResults formats glob matches. nameOnly prints bare paths.
func FormatFileResults(results []library.Record, nameOnly bool) string {
	if len(results) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(results)))

	for _, r := range results {
		if nameOnly {
			builder.WriteString(r.Path)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %s)\n", r.Path, r.Type, r.Publisher))
		}
	}

	return builder.String()
}

// FormatRecord prints every field of a record, including its search tokens.
func FormatRecord(r *library.Record) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s ──\n", r.Path))
	field := func(name, value string) {
		if value == "" {
			value = "-"
		}
		builder.WriteString(fmt.Sprintf("%-13s %s\n", name+":", value))
	}
	field("Filename", r.Filename)
	field("Title", r.Title)
	field("Author", r.Author)
	field("Publisher", r.Publisher)
	field("Year/edition", r.YearEdition)
	field("Type", r.Type)
	field("Keywords", strings.Join(r.Keywords, ", "))
	field("Content hash", r.ContentHash)
	builder.WriteString(fmt.Sprintf("Search tokens (%d):\n", len(r.SearchTokens)))
	for _, token := range r.SearchTokens {
		builder.WriteString(fmt.Sprintf("  %s\n", token))
	}
	return builder.String()
}

// FormatRunResult summarizes an index run.
func FormatRunResult(result *runner.Result, dryRun bool) string {
	var builder strings.Builder
	if dryRun {
		builder.WriteString(fmt.Sprintf("Dry run: %d documents need indexing, %d up to date\n",
			len(result.Pending), result.Skipped))
		for _, p := range result.Pending {
			builder.WriteString(fmt.Sprintf("  %s\n", p))
		}
		return builder.String()
	}

	builder.WriteString(fmt.Sprintf("Reindex complete: %d indexed, %d up to date, %d failed, %d records in catalog (%s)\n",
		result.Indexed, result.Skipped, len(result.Failures), result.Catalog, formatDuration(result.Duration)))
	for _, f := range result.Failures {
		builder.WriteString(fmt.Sprintf("  FAILED %s: %s\n", f.Path, f.Error))
	}
	return builder.String()
}

func describe(r library.Record) string {
	parts := []string{r.Title}
	if r.Author != "" && r.Author != "Unknown" {
		parts = append(parts, "by "+r.Author)
	}
	meta := []string{r.Type}
	if r.Publisher != "" && r.Publisher != library.UnknownPublisher {
		meta = append(meta, r.Publisher)
	}
	if r.YearEdition != "" {
		meta = append(meta, r.YearEdition)
	}
	return fmt.Sprintf("%s [%s]", strings.Join(parts, " "), strings.Join(meta, ", "))
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
