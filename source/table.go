package source

// Table cells are padded by this many points on every side.
const cellPadding = 3.0

// table draws rows as a bordered grid spanning the text width. The first
// headerRows rows are set in bold on a grey background and repeated at the
// top of every page the table continues on. Rows shorter than the widest
// row get empty cells.
func (l *layout) table(rows [][]string, headerRows int) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	headerRows = min(max(headerRows, 0), len(rows))

	l.ensurePage()
	widths := l.columnWidths(rows, cols)

	// Rows are placed by hand so a row is never split across pages
	l.pdf.SetAutoPageBreak(false, l.cfg.Margin)
	defer l.pdf.SetAutoPageBreak(true, l.cfg.Margin)

	_, pageH := l.pdf.GetPageSize()
	bottom := pageH - l.cfg.Margin
	for i, r := range rows {
		header := i < headerRows
		h := l.rowHeight(r, widths, header)
		if !header && l.pdf.GetY()+h > bottom && l.pdf.GetY() > l.cfg.Margin+1 {
			l.pdf.AddPage()
			for _, hr := range rows[:headerRows] {
				l.tableRow(hr, widths, true)
			}
		}
		l.tableRow(r, widths, header)
	}

	l.pdf.SetFont(l.cfg.FontFamily, "", l.cfg.FontSize)
	l.pdf.Ln(l.cfg.FontSize * 0.5)
}

// columnWidths shares the text width between the columns in proportion to
// their widest cell, giving every column at least an even share of a
// quarter of the width.
func (l *layout) columnWidths(rows [][]string, cols int) []float64 {
	pageW, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	total := pageW - left - right

	l.pdf.SetFont(l.cfg.FontFamily, "", l.cfg.FontSize)
	natural := make([]float64, cols)
	sum := 0.0
	for c := range natural {
		for _, r := range rows {
			if c < len(r) {
				natural[c] = max(natural[c], l.pdf.GetStringWidth(l.tr(r[c]))+2*cellPadding)
			}
		}
		natural[c] = max(natural[c], total/float64(cols)/4)
		sum += natural[c]
	}

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = natural[c] / sum * total
	}
	return widths
}

func (l *layout) cellFont(header bool) {
	style := ""
	if header {
		style = "B"
	}
	l.pdf.SetFont(l.cfg.FontFamily, style, l.cfg.FontSize)
}

// rowHeight is the height of the tallest wrapped cell in r.
func (l *layout) rowHeight(r []string, widths []float64, header bool) float64 {
	l.cellFont(header)
	lineH := l.lineHeight(l.cfg.FontSize)
	lines := 1
	for c, w := range widths {
		if c < len(r) && r[c] != "" {
			lines = max(lines, len(l.pdf.SplitLines([]byte(l.tr(r[c])), w-2*cellPadding)))
		}
	}
	return float64(lines)*lineH + 2*cellPadding
}

func (l *layout) tableRow(r []string, widths []float64, header bool) {
	h := l.rowHeight(r, widths, header)
	lineH := l.lineHeight(l.cfg.FontSize)
	left, _, _, _ := l.pdf.GetMargins()
	y := l.pdf.GetY()

	x := left
	for c, w := range widths {
		if header {
			l.pdf.SetFillColor(230, 230, 230)
			l.pdf.Rect(x, y, w, h, "FD")
		} else {
			l.pdf.Rect(x, y, w, h, "D")
		}
		if c < len(r) && r[c] != "" {
			l.pdf.SetXY(x+cellPadding, y+cellPadding)
			l.pdf.MultiCell(w-2*cellPadding, lineH, l.tr(r[c]), "", "L", false)
		}
		x += w
	}
	l.pdf.SetFillColor(0, 0, 0)
	l.pdf.SetXY(left, y+h)
}
