package format

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Detect_PDF(t *testing.T) {
	if f := Detect("books/Quantum Mechanics.pdf"); f != PDF {
		t.Errorf("expected PDF, got %s", f)
	}
}

func Test_Detect_DJVUVariants(t *testing.T) {
	for _, name := range []string{"a.djvu", "b.djv", "C.DJVU"} {
		if f := Detect(name); f != DJVU {
			t.Errorf("%s: expected DJVU, got %s", name, f)
		}
	}
}

func Test_Detect_UnknownExtension(t *testing.T) {
	if f := Detect("notes.txt"); f != Unknown {
		t.Errorf("expected Unknown, got %s", f)
	}
}

func Test_Format_RecordType(t *testing.T) {
	cases := map[Format]string{PDF: "Book", DJVU: "Book", EPUB: "Book", MOBI: "Book", Comic: "Comic", Unknown: "Unknown"}
	for f, want := range cases {
		if got := f.RecordType(); got != want {
			t.Errorf("%s: expected %s, got %s", f, want, got)
		}
	}
}

func Test_Format_Extractable(t *testing.T) {
	if !PDF.Extractable() || !DJVU.Extractable() {
		t.Error("expected PDF and DJVU to be extractable")
	}
	if EPUB.Extractable() || Comic.Extractable() {
		t.Error("expected EPUB and Comic to not be extractable")
	}
}

func Test_Sniff(t *testing.T) {
	if f := Sniff([]byte("%PDF-1.7\n...")); f != PDF {
		t.Errorf("expected PDF, got %s", f)
	}
	if f := Sniff([]byte("AT&TFORM\x00\x00")); f != DJVU {
		t.Errorf("expected DJVU, got %s", f)
	}
	if f := Sniff([]byte("garbage\n%PDF-1.4")); f != PDF {
		t.Errorf("expected PDF with leading junk, got %s", f)
	}
	if f := Sniff([]byte("plain text")); f != Unknown {
		t.Errorf("expected Unknown, got %s", f)
	}
	if f := Sniff(nil); f != Unknown {
		t.Errorf("expected Unknown for empty header, got %s", f)
	}
}

func Test_IsZip(t *testing.T) {
	if !IsZip([]byte("PK\x03\x04rest")) {
		t.Error("expected zip header to be detected")
	}
	if IsZip([]byte("%PDF-")) {
		t.Error("expected PDF header to not be detected as zip")
	}
}

func Test_DetectFile_SniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.bin")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%âãÏÓ\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if f := DetectFile(path); f != PDF {
		t.Errorf("expected PDF, got %s", f)
	}
}
