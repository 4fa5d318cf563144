package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lvillar/pdfmerge"
)

// Format is an input format the registry can open.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF is opened natively.
	PDF
	// Image covers JPEG, PNG, GIF, BMP, TIFF and WebP.
	Image
	// Text is plain text.
	Text
	// Markdown is CommonMark.
	Markdown
	// HTML is an HTML page.
	HTML
)

func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case Image:
		return "Image"
	case Text:
		return "Text"
	case Markdown:
		return "Markdown"
	case HTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

// Detect determines the format from the filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return Image
	case ".txt", ".text", ".log":
		return Text
	case ".md", ".markdown":
		return Markdown
	case ".html", ".htm", ".xhtml":
		return HTML
	default:
		return Unknown
	}
}

// DetectFromMagic determines the format from the leading bytes of a file.
// Text formats carry no signature and are only recognized by extension,
// except HTML with a doctype or html tag.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return PDF
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")),
		bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}),
		bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")),
		bytes.HasPrefix(data, []byte("BM")),
		bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")),
		len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return Image
	}

	head := bytes.ToLower(bytes.TrimSpace(trimBOM(data[:min(len(data), sniffLen)])))
	if bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")) {
		return HTML
	}
	return Unknown
}

// sniffLen is the number of bytes read for magic detection.
const sniffLen = 512

// Registry opens any supported input format. It implements
// pdfmerge.Opener.
type Registry struct {
	cfg pdfmerge.Config
}

// NewRegistry returns a registry converting non-PDF inputs with cfg.
// A zero Config is replaced by the defaults of pdfmerge.NewConfig.
func NewRegistry(cfg pdfmerge.Config) *Registry {
	if cfg.Logger == nil {
		cfg = pdfmerge.NewConfig()
	}
	return &Registry{cfg: cfg}
}

// Open opens path according to its extension, falling back to its magic
// bytes when the extension is unknown. Unknown formats fail with
// pdfmerge.ErrUnsupportedFormat.
func (r *Registry) Open(path string) (pdfmerge.Document, error) {
	format := Detect(path)
	if format == Unknown {
		var err error
		format, err = sniff(path)
		if err != nil {
			return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
		}
	}

	r.cfg.Logger.Debug("opening source", "path", path, "format", format)

	switch format {
	case PDF:
		return OpenPDF(path)
	case Image:
		return OpenImage(path, r.cfg)
	case Text:
		return OpenText(path, r.cfg)
	case Markdown:
		return OpenMarkdown(path, r.cfg)
	case HTML:
		return OpenHTML(path, r.cfg)
	default:
		return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %s", pdfmerge.ErrUnsupportedFormat, filepath.Ext(path)))
	}
}

func sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, err
	}
	return DetectFromMagic(head[:n]), nil
}

// SupportedExtensions returns the file extensions the registry opens.
func SupportedExtensions() []string {
	return []string{
		".pdf",
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp",
		".txt", ".text", ".log",
		".md", ".markdown",
		".html", ".htm", ".xhtml",
	}
}
