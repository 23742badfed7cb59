package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/tools"
)

// Name is the MCP implementation name and the key used when registering the server.
const Name = "libindex-mcp"

// Version is reported to MCP clients and by the version command.
const Version = "0.3.0"

// Handlers groups the tool handlers the server exposes.
type Handlers struct {
	Search  *tools.SearchHandler
	Files   *tools.FilesHandler
	Record  *tools.RecordHandler
	Status  *tools.StatusHandler
	Reindex *tools.ReindexHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    Name,
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server indexes a personal library of books, papers and comics (PDF, DJVU, EPUB, comic archives) and serves the catalog from memory.

Use these tools to find documents in the library:
- Use library_search for keyword search over titles, authors, publishers and extracted technical vocabulary
- Use library_files to list documents by path glob
- Use library_record to see everything known about one document
- Use library_reindex after documents were added, then library_status to check for failures`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "library_search",
		Description: `Search the library catalog. Every plain word must appear (as a substring, case-insensitive) in the record's title, author, publisher, year/edition, keywords or extracted terms.

Filters (key:value, last one wins):
  - type:book, type:comic - exact type
  - publisher:springer - substring of the publisher
  - year:1994 - substring of the year/edition
  - path:physics/** - glob against the relative path

Examples:
  - "type:book quantum"
  - "publisher:dover topology year:19"`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "library_files",
		Description: `List cataloged documents by glob pattern.

Pattern examples:
  - "**/*.djvu" - all DJVU files
  - "physics/**" - everything under physics/
  - "comics/Tintin/*" - one series folder`,
	}, handlers.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "library_record",
		Description: "Show the full catalog record of one document: bibliographic fields, keywords, content hash and every search token.",
	}, handlers.Record.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "library_status",
		Description: "Show catalog status: document count, types, top publishers, failed documents, memory usage and uptime.",
	}, handlers.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "library_reindex",
		Description: "Index new and changed documents and rebuild the catalog. Unchanged documents are skipped using the metadata cache. Set full to also enrich terms online.",
	}, handlers.Reindex.Handle)

	return mcpServer
}
