package tools

import (
	"context"
	"strings"
	"testing"
)

func Test_RecordHandler_Found(t *testing.T) {
	h := &RecordHandler{Catalog: newTestCatalog(t), Logger: discardLogger()}

	result, _, err := h.Handle(context.Background(), nil, RecordArgs{Path: "math/Intro To Algebra - John Doe.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	for _, want := range []string{"Intro To Algebra", "John Doe", "group theory", "Search tokens (3)"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func Test_RecordHandler_BackslashPath(t *testing.T) {
	h := &RecordHandler{Catalog: newTestCatalog(t), Logger: discardLogger()}

	result, _, err := h.Handle(context.Background(), nil, RecordArgs{Path: `math\Intro To Algebra - John Doe.pdf`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Errorf("expected Windows separators to resolve, got: %s", resultText(t, result))
	}
}

func Test_RecordHandler_NotFound(t *testing.T) {
	h := &RecordHandler{Catalog: newTestCatalog(t), Logger: discardLogger()}

	result, _, err := h.Handle(context.Background(), nil, RecordArgs{Path: "missing.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for missing document")
	}
	if !strings.Contains(resultText(t, result), "missing.pdf") {
		t.Error("expected the missing path in the message")
	}
}

func Test_RecordHandler_EmptyPath(t *testing.T) {
	h := &RecordHandler{Catalog: newTestCatalog(t), Logger: discardLogger()}

	result, _, err := h.Handle(context.Background(), nil, RecordArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty path")
	}
}
