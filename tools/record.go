package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/library"
)

// RecordArgs defines the input parameters for the library_record tool.
type RecordArgs struct {
	Path string `json:"path" jsonschema:"Relative path of a cataloged document (e.g. physics/Optics.pdf)"`
}

// RecordHandler holds the dependencies for the record tool.
type RecordHandler struct {
	Catalog *library.Catalog
	Logger  *slog.Logger
}

// Handle processes a library_record request.
func (h *RecordHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RecordArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("library_record called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}

	record := h.Catalog.Get(args.Path)
	if record == nil {
		h.Logger.Info("library_record not found", "path", args.Path)
		return errorResult(fmt.Sprintf("Document not found in catalog: %s", args.Path)), nil, nil
	}

	h.Logger.Info("library_record", "path", args.Path)
	return textResult(FormatRecord(record)), nil, nil
}
