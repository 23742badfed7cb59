package server

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/runner"
	"github.com/lexandro/libindex-mcp/tools"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := library.NewCatalog([]library.Record{{
		Path:         "physics/Optics.pdf",
		Filename:     "Optics.pdf",
		Author:       "Hecht",
		Title:        "Optics",
		Publisher:    "Pearson",
		Type:         "Book",
		SearchTokens: []string{"refraction"},
	}})
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	srv := Setup(Handlers{
		Search: &tools.SearchHandler{Catalog: catalog, Logger: logger},
		Files:  &tools.FilesHandler{Catalog: catalog, Logger: logger},
		Record: &tools.RecordHandler{Catalog: catalog, Logger: logger},
		Status: &tools.StatusHandler{Catalog: catalog, StartTime: time.Now(), Logger: logger},
		Reindex: &tools.ReindexHandler{
			DoReindex: func(ctx context.Context, options runner.Options) (*runner.Result, error) {
				return &runner.Result{Catalog: 1}, nil
			},
			Logger: logger,
		},
	})

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func Test_Setup_RegistersLibraryTools(t *testing.T) {
	session := connect(t)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"library_files",
		"library_record",
		"library_reindex",
		"library_search",
		"library_status",
	}, names)
}

func Test_Setup_SearchRoundTrip(t *testing.T) {
	session := connect(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "library_search",
		Arguments: map[string]any{"query": "refraction"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	assert.Contains(t, text.Text, "physics/Optics.pdf")
	assert.Contains(t, text.Text, "Optics by Hecht")
}
