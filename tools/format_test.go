package tools

import (
	"strings"
	"testing"

	"github.com/lexandro/libindex-mcp/library"
)

// --- formatFileSize ---

func Test_FormatFileSize_Bytes(t *testing.T) {
	got := formatFileSize(500)
	if got != "500 B" {
		t.Errorf("expected '500 B', got '%s'", got)
	}
}

func Test_FormatFileSize_Kilobytes(t *testing.T) {
	got := formatFileSize(2048)
	if got != "2.0 KB" {
		t.Errorf("expected '2.0 KB', got '%s'", got)
	}
}

func Test_FormatFileSize_Megabytes(t *testing.T) {
	got := formatFileSize(3 * 1024 * 1024)
	if got != "3.0 MB" {
		t.Errorf("expected '3.0 MB', got '%s'", got)
	}
}

// --- FormatSearchResults ---

func Test_FormatSearchResults_NoMatches(t *testing.T) {
	got := FormatSearchResults(nil, 0)
	if got != "No matches found." {
		t.Errorf("expected 'No matches found.', got '%s'", got)
	}
}

func Test_FormatSearchResults_WithMatches(t *testing.T) {
	records := sampleRecords()
	got := FormatSearchResults(records[:1], 1)

	checks := []string{
		"Found 1 records:",
		"physics/[Springer] Quantum_Mechanics_2nd_ed_1994.pdf",
		"Quantum Mechanics [Book, Springer, 1994, 2nd ed]",
	}
	for _, check := range checks {
		if !strings.Contains(got, check) {
			t.Errorf("expected %q, got:\n%s", check, got)
		}
	}
	if strings.Contains(got, "by Unknown") {
		t.Errorf("expected unknown author to be omitted, got:\n%s", got)
	}
}

func Test_FormatSearchResults_Keywords(t *testing.T) {
	records := sampleRecords()
	got := FormatSearchResults(records[2:], 1)

	if !strings.Contains(got, "by Hergé") {
		t.Errorf("expected author, got:\n%s", got)
	}
	if !strings.Contains(got, "keywords: bande dessinée, tintin") {
		t.Errorf("expected keywords line, got:\n%s", got)
	}
}

// --- FormatFileResults ---

func Test_FormatFileResults_Empty(t *testing.T) {
	got := FormatFileResults(nil, false)
	if got != "No files matched." {
		t.Errorf("expected 'No files matched.', got '%s'", got)
	}
}

func Test_FormatFileResults_WithMetadata(t *testing.T) {
	got := FormatFileResults(sampleRecords()[2:], false)

	if !strings.Contains(got, "comics/Tintin/01 Tintin in the Land of the Soviets.cbz  (Comic, Casterman)") {
		t.Errorf("expected path with type and publisher, got:\n%s", got)
	}
}

func Test_FormatFileResults_NameOnly(t *testing.T) {
	got := FormatFileResults(sampleRecords()[2:], true)

	if got != "Found 1 files:\n\ncomics/Tintin/01 Tintin in the Land of the Soviets.cbz\n" {
		t.Errorf("nameOnly should print bare paths, got:\n%s", got)
	}
}

// --- FormatRecord ---

func Test_FormatRecord_EmptyFields(t *testing.T) {
	got := FormatRecord(&library.Record{Path: "Untitled.pdf", Title: "Untitled"})

	if !strings.Contains(got, "Year/edition: -") {
		t.Errorf("expected placeholder for empty year, got:\n%s", got)
	}
	if !strings.Contains(got, "Search tokens (0):") {
		t.Errorf("expected empty token count, got:\n%s", got)
	}
}
