package source

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/lvillar/pdfmerge"
	"golang.org/x/net/html"
)

// OpenHTML converts an HTML file into a document.
func OpenHTML(path string, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}
	return ConvertHTML(path, data, cfg)
}

// ConvertHTML renders the text flow of an HTML page. h1 to h6 become
// outline entries; scripts, styles and the head are skipped.
func ConvertHTML(name string, data []byte, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}

	w := &htmlWriter{layout: newLayout(cfg)}
	w.traverse(root)
	w.flush()
	return w.document(name)
}

// htmlWriter collects inline text until a block boundary flushes it as a
// paragraph.
type htmlWriter struct {
	*layout
	buf    strings.Builder
	indent float64
}

func (w *htmlWriter) traverse(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		if shouldSkipElement(n.Data) {
			return
		}
		if level := headingLevel(n.Data); level > 0 {
			w.flush()
			if title := collapseSpace(getTextContent(n)); title != "" {
				w.heading(title, level)
			}
			return
		}
		switch n.Data {
		case "br":
			w.buf.WriteByte('\n')
			return
		case "hr":
			w.flush()
			w.ensurePage()
			w.pdf.Ln(w.cfg.FontSize)
			return
		case "pre":
			w.flush()
			w.preformatted(getTextContent(n))
			return
		case "table":
			w.flush()
			rows, headers := tableRows(n)
			w.table(rows, headers)
			return
		case "li":
			w.flush()
			w.buf.WriteString("- ")
		case "ul", "ol", "blockquote":
			w.flush()
			w.indent += listIndent
			defer func() {
				w.flush()
				w.indent -= listIndent
			}()
		default:
			if isBlock(n.Data) {
				w.flush()
				defer w.flush()
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.traverse(c)
	}
}

func (w *htmlWriter) text(s string) {
	s = collapseSpace(s)
	if s == "" {
		return
	}
	if w.buf.Len() > 0 && !strings.HasSuffix(w.buf.String(), "\n") && !strings.HasSuffix(w.buf.String(), " ") {
		w.buf.WriteByte(' ')
	}
	w.buf.WriteString(s)
}

// flush writes the pending inline text as one paragraph.
func (w *htmlWriter) flush() {
	text := strings.TrimSpace(w.buf.String())
	w.buf.Reset()
	if text == "" || text == "-" {
		return
	}
	w.paragraph(text, w.indent)
}

// tableRows collects the text of every cell in a table, nested sections
// included. Leading rows made of th cells count as header rows.
func tableRows(table *html.Node) (rows [][]string, headers int) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "tr":
				var cells []string
				allTH := true
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						cells = append(cells, collapseSpace(getTextContent(cell)))
						allTH = allTH && cell.Data == "th"
					}
				}
				if len(cells) == 0 {
					continue
				}
				if allTH && headers == len(rows) {
					headers++
				}
				rows = append(rows, cells)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows, headers
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func shouldSkipElement(tag string) bool {
	switch tag {
	case "head", "title", "script", "style", "noscript", "template", "svg":
		return true
	}
	return false
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "header", "footer", "main", "nav",
		"aside", "table", "tr", "dl", "dt", "dd", "figure", "figcaption", "form", "body":
		return true
	}
	return false
}

// getTextContent returns the concatenated text below n.
func getTextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && shouldSkipElement(n.Data) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
