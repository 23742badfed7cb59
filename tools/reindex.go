package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/runner"
)

// ReindexArgs defines the input parameters for the library_reindex tool.
type ReindexArgs struct {
	Full   bool `json:"full,omitempty" jsonschema:"If true enrich terms online (slower)"`
	DryRun bool `json:"dryRun,omitempty" jsonschema:"If true only list the documents that need indexing"`
}

// ReindexFunc runs an index pass. It is provided by main.go to avoid circular dependencies.
type ReindexFunc func(ctx context.Context, options runner.Options) (*runner.Result, error)

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	DoReindex ReindexFunc
	Logger    *slog.Logger
}

// Handle processes a library_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("library_reindex started", "full", args.Full, "dryRun", args.DryRun)

	result, err := h.DoReindex(ctx, runner.Options{FullMode: args.Full, DryRun: args.DryRun})
	if err != nil {
		h.Logger.Error("library_reindex failed", "error", err)
		return errorResult(fmt.Sprintf("Reindex error: %v", err)), nil, nil
	}

	h.Logger.Info("library_reindex complete",
		"run_id", result.RunID,
		"indexed", result.Indexed,
		"failed", len(result.Failures),
		"elapsed", result.Duration,
	)

	return textResult(FormatRunResult(result, args.DryRun)), nil, nil
}
