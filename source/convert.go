package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lvillar/pdfmerge"
	"github.com/phpdave11/gofpdf"
)

// layout renders converted content onto gofpdf pages and records the
// outline entries the content asks for.
type layout struct {
	cfg     pdfmerge.Config
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	outline []pdfmerge.OutlineEntry
}

func newLayout(cfg pdfmerge.Config) *layout {
	pdf := gofpdf.New(cfg.Orientation, "pt", cfg.PageSize, "")
	pdf.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	pdf.SetAutoPageBreak(true, cfg.Margin)
	pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
	return &layout{
		cfg: cfg,
		pdf: pdf,
		// Core fonts are cp1252
		tr: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (l *layout) lineHeight(size float64) float64 {
	return size * l.cfg.LineHeight
}

// ensurePage starts the first page on demand.
func (l *layout) ensurePage() {
	if l.pdf.PageNo() == 0 {
		l.pdf.AddPage()
	}
}

// paragraph writes wrapped text in the body font.
func (l *layout) paragraph(text string, indent float64) {
	if text == "" {
		return
	}
	l.ensurePage()
	l.pdf.SetFont(l.cfg.FontFamily, "", l.cfg.FontSize)
	left, _, _, _ := l.pdf.GetMargins()
	l.pdf.SetX(left + indent)
	l.pdf.MultiCell(0, l.lineHeight(l.cfg.FontSize), l.tr(text), "", "L", false)
	l.pdf.Ln(l.cfg.FontSize * 0.5)
}

// preformatted writes text line by line in a monospaced font.
func (l *layout) preformatted(text string) {
	l.ensurePage()
	size := l.cfg.FontSize * 0.9
	l.pdf.SetFont("Courier", "", size)
	for _, line := range splitLines(text) {
		l.pdf.MultiCell(0, l.lineHeight(size), l.tr(line), "", "L", false)
	}
	l.pdf.SetFont(l.cfg.FontFamily, "", l.cfg.FontSize)
	l.pdf.Ln(l.cfg.FontSize * 0.5)
}

// heading writes a heading and bookmarks the page it lands on.
func (l *layout) heading(text string, level int) {
	l.ensurePage()
	size := l.cfg.FontSize * headingScale(level)
	l.pdf.SetFont(l.cfg.FontFamily, "B", size)
	l.pdf.Ln(size * 0.3)
	l.pdf.MultiCell(0, l.lineHeight(size), l.tr(text), "", "L", false)
	l.pdf.SetFont(l.cfg.FontFamily, "", l.cfg.FontSize)
	l.pdf.Ln(size * 0.3)

	l.outline = append(l.outline, pdfmerge.OutlineEntry{
		Level:  level,
		Title:  text,
		Target: pdfmerge.Goto{Page: l.pdf.PageNo()},
	})
}

func headingScale(level int) float64 {
	switch level {
	case 1:
		return 2.0
	case 2:
		return 1.6
	case 3:
		return 1.3
	default:
		return 1.1
	}
}

// document finishes the PDF and serves it through the native adapter with
// the recorded outline.
func (l *layout) document(name string) (pdfmerge.Document, error) {
	l.ensurePage()

	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: rendering: %w", pdfmerge.ErrUnreadable, err))
	}
	d, err := readPDF(name, buf.Bytes())
	if err != nil {
		return nil, err
	}
	d.outline = l.outline
	return d, nil
}

func splitLines(text string) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return strings.Split(text, "\n")
}
