package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/libindex-mcp/runner"
)

func Test_ReindexHandler_Success(t *testing.T) {
	var got runner.Options
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context, options runner.Options) (*runner.Result, error) {
			got = options
			return &runner.Result{
				Indexed:  42,
				Skipped:  7,
				Catalog:  49,
				Failures: []runner.Failure{{Path: "Huge.djvu", Error: runner.TimeoutExpired}},
				Duration: 90 * time.Second,
			}, nil
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{Full: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}
	if !got.FullMode || got.DryRun {
		t.Errorf("expected full mode options, got %+v", got)
	}

	text := resultText(t, result)
	for _, want := range []string{"Reindex complete", "42 indexed", "7 up to date", "49 records", "1m30s", "FAILED Huge.djvu: TimeoutExpired"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func Test_ReindexHandler_DryRun(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context, options runner.Options) (*runner.Result, error) {
			return &runner.Result{Pending: []string{"Optics.pdf"}, Skipped: 3}, nil
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "1 documents need indexing") || !strings.Contains(text, "Optics.pdf") {
		t.Errorf("expected pending list, got:\n%s", text)
	}
}

func Test_ReindexHandler_Error(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context, options runner.Options) (*runner.Result, error) {
			return nil, fmt.Errorf("disk full")
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for failed reindex")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "disk full") {
		t.Errorf("expected error message 'disk full', got: %s", text)
	}
}
