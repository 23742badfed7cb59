package tools

import (
	"io"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/libindex-mcp/library"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecords() []library.Record {
	return []library.Record{
		{
			Path:         "physics/[Springer] Quantum_Mechanics_2nd_ed_1994.pdf",
			Filename:     "[Springer] Quantum_Mechanics_2nd_ed_1994.pdf",
			Author:       "Unknown",
			Title:        "Quantum Mechanics",
			Publisher:    "Springer",
			YearEdition:  "1994, 2nd ed",
			Type:         "Book",
			SearchTokens: []string{"hilbert space", "mechanics", "quantum"},
			ContentHash:  "9e107d9d372bb6826bd81d3542a419d6",
		},
		{
			Path:         "math/Intro To Algebra - John Doe.pdf",
			Filename:     "Intro To Algebra - John Doe.pdf",
			Author:       "John Doe",
			Title:        "Intro To Algebra",
			Publisher:    "Unknown",
			Type:         "Book",
			SearchTokens: []string{"algebra", "group theory", "intro"},
		},
		{
			Path:         "comics/Tintin/01 Tintin in the Land of the Soviets.cbz",
			Filename:     "01 Tintin in the Land of the Soviets.cbz",
			Author:       "Hergé",
			Title:        "Tintin in the Land of the Soviets",
			Publisher:    "Casterman",
			Type:         "Comic",
			Keywords:     []string{"bande dessinée", "tintin"},
			SearchTokens: []string{"soviets", "tintin"},
		},
	}
}

func newTestCatalog(t *testing.T) *library.Catalog {
	t.Helper()
	catalog, err := library.NewCatalog(sampleRecords())
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
