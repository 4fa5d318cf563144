package source

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/lvillar/pdfmerge"
	"golang.org/x/text/encoding/charmap"
)

// OpenText converts a plain text file into a document. Text that is not
// valid UTF-8 is read as Windows-1252. A form feed starts a new page.
func OpenText(path string, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}
	return ConvertText(path, data, cfg)
}

// ConvertText lays data out in the body font, wrapping long lines.
// The document has no outline.
func ConvertText(name string, data []byte, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}

	l := newLayout(cfg)
	lh := l.lineHeight(cfg.FontSize)
	for i, sheet := range strings.Split(text, "\f") {
		if i == 0 {
			l.ensurePage()
		} else {
			l.pdf.AddPage()
		}
		for _, line := range splitLines(sheet) {
			l.pdf.MultiCell(0, lh, l.tr(expandTabs(line)), "", "L", false)
		}
	}
	return l.document(name)
}

// decodeText returns data as a UTF-8 string, decoding legacy text as
// Windows-1252.
func decodeText(data []byte) (string, error) {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
