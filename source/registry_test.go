package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     source.Format
	}{
		{"doc.pdf", source.PDF},
		{"DOC.PDF", source.PDF},
		{"scan.JPG", source.Image},
		{"scan.tiff", source.Image},
		{"photo.webp", source.Image},
		{"notes.txt", source.Text},
		{"README.md", source.Markdown},
		{"page.htm", source.HTML},
		{"book.epub", source.Unknown},
		{"report.docx", source.Unknown},
		{"noext", source.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := source.Detect(tt.filename); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want source.Format
	}{
		{"pdf", []byte("%PDF-1.7\n"), source.PDF},
		{"png", []byte("\x89PNG\r\n\x1a\n...."), source.Image},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, source.Image},
		{"gif", []byte("GIF89a...."), source.Image},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), source.Image},
		{"html", []byte("  <!DOCTYPE html><html>"), source.HTML},
		{"zip", []byte("PK\x03\x04rest"), source.Unknown},
		{"short", []byte("%P"), source.Unknown},
		{"text", []byte("hello"), source.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := source.DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistryOpen(t *testing.T) {
	dir := t.TempDir()
	pdfPath := createTestPDF(t, dir, "doc.pdf", 2)

	// Same content without an extension is recognized by its header
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	bare := filepath.Join(dir, "download")
	if err := os.WriteFile(bare, data, 0o644); err != nil {
		t.Fatal(err)
	}

	docx := filepath.Join(dir, "report.docx")
	if err := os.WriteFile(docx, []byte("PK\x03\x04"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := source.NewRegistry(pdfmerge.NewConfig())
	var _ pdfmerge.Opener = reg

	for _, path := range []string{pdfPath, bare} {
		doc, err := reg.Open(path)
		if err != nil {
			t.Fatalf("Open(%s): %v", path, err)
		}
		if doc.PageCount() != 2 {
			t.Errorf("%s: expected 2 pages, got %d", path, doc.PageCount())
		}
		doc.Close()
	}

	if _, err := reg.Open(docx); !errors.Is(err, pdfmerge.ErrUnsupportedFormat) {
		t.Errorf("docx error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := reg.Open(filepath.Join(dir, "missing")); !errors.Is(err, pdfmerge.ErrUnreadable) {
		t.Errorf("missing file error = %v, want ErrUnreadable", err)
	}
}
