package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/lvillar/pdfmerge"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// OpenMarkdown converts a markdown file into a document.
func OpenMarkdown(path string, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}
	return ConvertMarkdown(path, data, cfg)
}

// ConvertMarkdown renders markdown source, including GFM tables. Every
// heading becomes an outline entry at its heading level, pointing at the
// page it is printed on.
func ConvertMarkdown(name string, data []byte, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	src, err := decodeText(data)
	if err != nil {
		return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}
	source := []byte(src)
	doc := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	l := newLayout(cfg)
	walkMarkdown(l, doc, source, 0)
	return l.document(name)
}

func walkMarkdown(l *layout, node ast.Node, source []byte, indent float64) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		renderBlock(l, child, source, indent)
	}
}

func renderBlock(l *layout, node ast.Node, source []byte, indent float64) {
	switch n := node.(type) {
	case *ast.Heading:
		l.heading(inlineText(n, source), n.Level)
	case *ast.Paragraph, *ast.TextBlock:
		l.paragraph(inlineText(n, source), indent)
	case *ast.List:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			renderBlock(l, item, source, indent+listIndent)
		}
	case *ast.ListItem:
		renderListItem(l, n, source, indent)
	case *ast.Blockquote:
		walkMarkdown(l, n, source, indent+listIndent)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		l.preformatted(blockLines(n, source))
	case *ast.ThematicBreak:
		l.ensurePage()
		l.pdf.Ln(l.cfg.FontSize)
	case *east.Table:
		renderTable(l, n, source)
	}
}

func renderTable(l *layout, table *east.Table, source []byte) {
	var rows [][]string
	headers := 0
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, source))
		}
		if _, ok := row.(*east.TableHeader); ok {
			headers++
		}
		rows = append(rows, cells)
	}
	l.table(rows, headers)
}

const listIndent = 15.0

// renderListItem prints the first block of an item behind a bullet and the
// remaining blocks below it.
func renderListItem(l *layout, item *ast.ListItem, source []byte, indent float64) {
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			line := inlineText(n, source)
			if child == item.FirstChild() {
				line = "- " + line
			}
			l.paragraph(line, indent)
		default:
			renderBlock(l, n, source, indent)
		}
	}
}

// inlineText concatenates the text of an inline run, turning soft line
// breaks into spaces.
func inlineText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// blockLines returns the raw lines of a code block.
func blockLines(node ast.Node, source []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
