package pageops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lvillar/pdfmerge"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phpdave11/gofpdf"
)

// SaveOptions control the size and layout of a written file. They never
// change page order or outline structure.
type SaveOptions struct {
	// CompressionLevel enables stream compression when greater than 0.
	CompressionLevel int
	// DedupeObjects rewrites the file with shared resources merged,
	// unused objects dropped and objects packed into object streams.
	DedupeObjects bool
	// Logger receives warnings about annotations that could not be
	// carried over. Nil discards them.
	Logger *slog.Logger
}

// Save writes doc to the file at path. Nothing is written when doc has no
// pages or when writing fails part way.
func Save(doc pdfmerge.Document, path string, opts SaveOptions) error {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts); err != nil {
		var pdfErr *pdfmerge.PDFError
		if errors.As(err, &pdfErr) && pdfErr.Path == "" {
			pdfErr.Path = path
		}
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return pdfmerge.NewError("Save", path, fmt.Errorf("%w: %w", pdfmerge.ErrSaveFailure, err))
	}
	return nil
}

// Write renders doc as a PDF to w. It fails with pdfmerge.ErrOutputEmpty
// for a document without pages; every other failure wraps
// pdfmerge.ErrSaveFailure.
//
// Page content is imported with gofpdi. The annotations of every source
// page are then copied onto the output page, with their geometry turned
// along with the page. Links to pages of the same source are pointed at
// the output page showing that source page, and dropped when there is
// none. When doc is a *pdfmerge.Output whose Links is false, Link
// annotations are left out altogether.
//
// The outline is written with Unicode titles. Goto entries lead to their
// page and Other entries carrying a URI keep their URI action. Any other
// entry without a page, e.g. a GoToR or Launch target, is written as a
// link to the page of the closest preceding entry that has one, or to
// page 1, so its original action is not preserved in the file.
func Write(w io.Writer, doc pdfmerge.Document, opts SaveOptions) error {
	n := doc.PageCount()
	if n == 0 {
		return pdfmerge.NewError("Save", "", pdfmerge.ErrOutputEmpty)
	}
	fail := func(err error) error {
		return pdfmerge.NewError("Save", "", fmt.Errorf("%w: %w", pdfmerge.ErrSaveFailure, err))
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(opts.CompressionLevel > 0)

	pages := make([]pdfmerge.Page, 0, n)
	imp := newImporter(pdf)
	for i := 0; i < n; i++ {
		p, err := doc.Page(i)
		if err != nil {
			return fail(err)
		}
		imp.place(p)
		if pdf.Err() {
			return fail(fmt.Errorf("page %d of %s: %w", p.Number, p.Content.Name, pdf.Error()))
		}
		pages = append(pages, p)
	}

	var raw bytes.Buffer
	if err := pdf.Output(&raw); err != nil {
		return fail(err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadAndValidate(bytes.NewReader(raw.Bytes()), conf)
	if err != nil {
		return fail(fmt.Errorf("reading imported pages: %w", err))
	}

	keepLinks := true
	if out, ok := doc.(*pdfmerge.Output); ok {
		keepLinks = out.Links()
	}
	log := opts.Logger
	if log == nil {
		log = pdfmerge.NewConfig().Logger
	}
	if err := copyAnnotations(ctx, pages, keepLinks, log); err != nil {
		return fail(fmt.Errorf("copying annotations: %w", err))
	}

	if err := writeOutline(ctx, doc.Outline()); err != nil {
		return fail(fmt.Errorf("writing outline: %w", err))
	}

	if opts.DedupeObjects {
		if err := api.OptimizeContext(ctx); err != nil {
			return fail(fmt.Errorf("optimizing: %w", err))
		}
	}
	if err := api.WriteContext(ctx, w); err != nil {
		return fail(err)
	}
	return nil
}
