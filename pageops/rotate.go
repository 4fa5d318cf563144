package pageops

import (
	"bytes"
	"io"

	"github.com/lvillar/pdfmerge"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/phpdave11/gofpdf"
	"github.com/phpdave11/gofpdf/contrib/gofpdi"
)

// Fallback page size in points when a page reports none.
const (
	a4Width  = 595.28
	a4Height = 841.89
)

// importer imports pages into one output PDF. gofpdi parses each source
// once, so every Content gets its own importer and stream, and every page
// is imported once however often it is placed.
type importer struct {
	pdf     *gofpdf.Fpdf
	sources map[*pdfmerge.Content]*importedSource
}

type importedSource struct {
	imp       *gofpdi.Importer
	rs        io.ReadSeeker
	templates map[int]int // page number -> template id
}

func newImporter(pdf *gofpdf.Fpdf) *importer {
	return &importer{pdf: pdf, sources: make(map[*pdfmerge.Content]*importedSource)}
}

func (im *importer) template(p pdfmerge.Page) (*gofpdi.Importer, int) {
	src, ok := im.sources[p.Content]
	if !ok {
		src = &importedSource{
			imp:       gofpdi.NewImporter(),
			rs:        bytes.NewReader(p.Content.Data),
			templates: make(map[int]int),
		}
		im.sources[p.Content] = src
	}
	tplID, ok := src.templates[p.Number]
	if !ok {
		tplID = src.imp.ImportPageFromStream(im.pdf, &src.rs, p.Number, "/MediaBox")
		src.templates[p.Number] = tplID
	}
	return src.imp, tplID
}

// place adds a new output page sized for p and draws p on it. For 90 and
// 270 degrees the page dimensions are swapped; the content is turned
// clockwise about the page center.
func (im *importer) place(p pdfmerge.Page) {
	pw, ph := p.Width, p.Height
	if pw <= 0 || ph <= 0 {
		pw, ph = a4Width, a4Height
		p.Width, p.Height = pw, ph
	}
	w, h := p.Size()

	imp, tplID := im.template(p)
	im.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})

	if p.Rotation == pdfmerge.Rotate0 {
		imp.UseImportedTemplate(im.pdf, tplID, 0, 0, pw, ph)
		return
	}

	// Center the template, then turn it about the page center
	im.pdf.TransformBegin()
	im.pdf.TransformRotate(-float64(p.Rotation), w/2, h/2)
	imp.UseImportedTemplate(im.pdf, tplID, (w-pw)/2, (h-ph)/2, pw, ph)
	im.pdf.TransformEnd()
}

// placement maps the user space of a source page onto the output page
// place draws it on. The output page has its origin at the lower left
// corner and shows the source turned clockwise by rot.
type placement struct {
	llx, lly float64 // MediaBox origin
	w, h     float64 // MediaBox size before turning
	rot      int     // the page's own /Rotate plus the added rotation
}

func newPlacement(box types.Rectangle, rotate int, added pdfmerge.Rotation) placement {
	rot := ((rotate+int(added))%360 + 360) % 360
	return placement{
		llx: box.LL.X,
		lly: box.LL.Y,
		w:   box.Width(),
		h:   box.Height(),
		rot: rot - rot%90,
	}
}

// point maps a source point to the output page.
func (pl placement) point(x, y float64) (float64, float64) {
	u, v := x-pl.llx, y-pl.lly
	switch pl.rot {
	case 90:
		return v, pl.w - u
	case 180:
		return pl.w - u, pl.h - v
	case 270:
		return pl.h - v, u
	}
	return u, v
}

// turn appends the clockwise turn to the form matrix m.
func (pl placement) turn(m [6]float64) [6]float64 {
	var r [4]float64
	switch pl.rot {
	case 90:
		r = [4]float64{0, -1, 1, 0}
	case 180:
		r = [4]float64{-1, 0, 0, -1}
	case 270:
		r = [4]float64{0, 1, -1, 0}
	default:
		return m
	}
	return [6]float64{
		m[0]*r[0] + m[1]*r[2], m[0]*r[1] + m[1]*r[3],
		m[2]*r[0] + m[3]*r[2], m[2]*r[1] + m[3]*r[3],
		m[4]*r[0] + m[5]*r[2], m[4]*r[1] + m[5]*r[3],
	}
}
