package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/library"
)

// FilesArgs defines the input parameters for the library_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern matched against cataloged paths (e.g. physics/**/*.pdf)"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Catalog *library.Catalog
	Logger  *slog.Logger
}

// Handle processes a library_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("library_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	results, err := h.Catalog.SearchByGlob(args.Pattern, args.MaxResults)
	if err != nil {
		h.Logger.Error("library_files failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("library_files",
		"pattern", args.Pattern,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileResults(results, args.NameOnly)), nil, nil
}
