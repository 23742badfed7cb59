package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/libindex-mcp/library"
	"github.com/lexandro/libindex-mcp/runner"
)

// --- formatDuration ---

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_30", 30 * time.Second, "30s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_1m0s", 60 * time.Second, "1m0s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
		{"Hours_2h0m", 2 * time.Hour, "2h0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

// --- StatusHandler ---

func Test_StatusHandler_Handle(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "library.json")
	failuresPath := filepath.Join(dir, "indexing_failures.json")
	if err := library.Save(catalogPath, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := runner.WriteFailures(failuresPath, []runner.Failure{{Path: "Huge.djvu", Error: runner.TimeoutExpired}}); err != nil {
		t.Fatal(err)
	}

	h := &StatusHandler{
		Catalog:      newTestCatalog(t),
		StartTime:    time.Now(),
		RootDir:      "/books",
		CatalogPath:  catalogPath,
		FailuresPath: failuresPath,
		Logger:       discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	checks := []string{
		"libindex-mcp Status",
		"/books",
		"Cataloged documents: 3",
		"Failed documents: 1",
		"Book",
		"Casterman",
		"Huge.djvu: TimeoutExpired",
	}
	for _, check := range checks {
		if !strings.Contains(text, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, text)
		}
	}
}

func Test_StatusHandler_NoFailureReport(t *testing.T) {
	dir := t.TempDir()
	h := &StatusHandler{
		Catalog:      newTestCatalog(t),
		StartTime:    time.Now(),
		RootDir:      dir,
		CatalogPath:  filepath.Join(dir, "library.json"),
		FailuresPath: filepath.Join(dir, "indexing_failures.json"),
		Logger:       discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "Failed documents: 0") {
		t.Errorf("expected zero failures, got:\n%s", resultText(t, result))
	}
}
