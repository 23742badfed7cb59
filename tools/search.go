package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/metrics"
)

// DefaultMaxResults caps search and glob results when the caller sets no limit.
const DefaultMaxResults = 50

// SearchArgs defines the input parameters for the library_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Keywords plus optional filters: type:book publisher:springer year:1994 path:physics/**"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of records to return (default 50)"`
	JSON       bool   `json:"json,omitempty" jsonschema:"If true return the matching records as a JSON array"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Catalog    *library.Catalog
	Metrics    *metrics.Metrics
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a library_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("library_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	results, total, err := h.Catalog.Search(args.Query, maxResults)
	h.Metrics.ObserveSearch(start, total, err)
	if err != nil {
		h.Logger.Error("library_search failed", "query", args.Query, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("library_search",
		"query", args.Query,
		"results", len(results),
		"matches", total,
		"elapsed", time.Since(start),
	)

	if args.JSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil, nil
		}
		return textResult(string(data)), nil, nil
	}
	return textResult(FormatSearchResults(results, total)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
