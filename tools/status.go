package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/runner"
)

// StatusArgs defines the input parameters for the library_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Catalog      *library.Catalog
	StartTime    time.Time
	RootDir      string
	CatalogPath  string
	FailuresPath string
	Logger       *slog.Logger
}

// Handle processes a library_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	recordCount := h.Catalog.Len()
	typeCounts := h.Catalog.TypeCounts()
	publisherCounts := h.Catalog.PublisherCounts()
	uptime := time.Since(h.StartTime)

	failures, err := runner.ReadFailures(h.FailuresPath)
	if err != nil {
		h.Logger.Warn("reading failure report", "error", err)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("library_status",
		"records", recordCount,
		"failures", len(failures),
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== libindex-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Library root: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Cataloged documents: %d\n", recordCount))
	if info, err := os.Stat(h.CatalogPath); err == nil {
		builder.WriteString(fmt.Sprintf("Catalog file: %s (%s, written %s)\n",
			h.CatalogPath, formatFileSize(info.Size()), info.ModTime().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Failed documents: %d\n", len(failures)))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	writeCounts(&builder, "Types", typeCounts, 0)
	writeCounts(&builder, "Publishers", publisherCounts, 10)

	if len(failures) > 0 {
		builder.WriteString("\nFailures:\n")
		for _, f := range failures {
			builder.WriteString(fmt.Sprintf("  %s: %s\n", f.Path, f.Error))
		}
	}

	return textResult(builder.String()), nil, nil
}

// writeCounts prints a count table sorted by count descending, then name.
// limit 0 prints every row.
func writeCounts(builder *strings.Builder, title string, counts map[string]int, limit int) {
	if len(counts) == 0 {
		return
	}
	type countEntry struct {
		name  string
		count int
	}
	entries := make([]countEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, countEntry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	builder.WriteString(fmt.Sprintf("\n%s:\n", title))
	for _, entry := range entries {
		builder.WriteString(fmt.Sprintf("  %-24s %d\n", entry.name, entry.count))
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
