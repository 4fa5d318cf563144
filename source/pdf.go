// Package source opens the inputs of a merge as pdfmerge.Document values.
//
// PDF files are parsed natively with the reader package. Images, plain
// text, markdown and HTML are converted into an in-memory PDF first and then
// served by the same native adapter, each with an outline of its own.
package source

import (
	"errors"
	"fmt"
	"os"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/reader"
)

// pdfDocument is a parsed PDF held entirely in memory.
type pdfDocument struct {
	content *pdfmerge.Content
	doc     *reader.Document
	outline []pdfmerge.OutlineEntry
	closed  bool
}

// OpenPDF opens and parses the PDF file at path.
//
// An encrypted file fails with an error wrapping pdfmerge.ErrEncrypted;
// any other read or parse failure wraps pdfmerge.ErrUnreadable.
func OpenPDF(path string) (pdfmerge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}
	return ReadPDF(path, data)
}

// ReadPDF parses an in-memory PDF. name identifies the document in errors
// and in the pages' Content.
func ReadPDF(name string, data []byte) (pdfmerge.Document, error) {
	d, err := readPDF(name, data)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func readPDF(name string, data []byte) (*pdfDocument, error) {
	doc, err := reader.Parse(data)
	if err != nil {
		if errors.Is(err, reader.ErrEncrypted) {
			return nil, pdfmerge.NewError("Open", name, fmt.Errorf("%w: %w", pdfmerge.ErrEncrypted, err))
		}
		return nil, pdfmerge.NewError("Open", name, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}

	// A broken outline does not make the pages unusable; keep what was read
	items, _ := doc.Outline()

	return &pdfDocument{
		content: &pdfmerge.Content{Name: name, Data: data},
		doc:     doc,
		outline: convertOutline(items),
	}, nil
}

// convertOutline maps reader outline items onto outline entries.
func convertOutline(items []reader.OutlineItem) []pdfmerge.OutlineEntry {
	entries := make([]pdfmerge.OutlineEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, pdfmerge.OutlineEntry{
			Level:  item.Level,
			Title:  item.Title,
			Target: target(item),
		})
	}
	return entries
}

func target(item reader.OutlineItem) pdfmerge.Target {
	switch item.Action {
	case "GoTo":
		if item.Page > 0 {
			return pdfmerge.Goto{Page: item.Page}
		}
		// Destination that does not resolve to a local page
		return pdfmerge.Other{Action: "GoTo"}
	case "Named":
		return pdfmerge.Named{Action: item.Name}
	default:
		return pdfmerge.Other{Action: item.Action, URI: item.URI}
	}
}

func (d *pdfDocument) PageCount() int {
	return d.doc.NumPages()
}

// Page returns the page at the 0-based index i. Width and Height are the
// displayed size, with the page's own /Rotate already applied.
func (d *pdfDocument) Page(i int) (pdfmerge.Page, error) {
	if d.closed {
		return pdfmerge.Page{}, fmt.Errorf("source: %s is closed", d.content.Name)
	}
	p, err := d.doc.Page(i + 1)
	if err != nil {
		return pdfmerge.Page{}, fmt.Errorf("%w: %w", pdfmerge.ErrInvalidParam, err)
	}

	w, h := p.DisplaySize()
	return pdfmerge.Page{
		Content: d.content,
		Number:  p.Number,
		Width:   w,
		Height:  h,
	}, nil
}

func (d *pdfDocument) Outline() []pdfmerge.OutlineEntry {
	return d.outline
}

// Close drops the parsed structure. Pages already handed out keep their
// Content and stay usable.
func (d *pdfDocument) Close() error {
	d.closed = true
	return nil
}

// Info is a summary of a PDF file.
type Info struct {
	Path      string
	Version   string
	Pages     int
	Sizes     [][2]float64 // displayed width and height per page, in points
	Outline   int          // number of outline entries
	Metadata  map[string]string
	Encrypted bool
	// PasswordRequired is set for encrypted files that the empty user
	// password does not open.
	PasswordRequired bool
}

// Inspect summarizes the PDF at path. An encrypted file is reported in the
// result instead of failing.
func Inspect(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfmerge.NewError("Inspect", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}

	doc, err := reader.Parse(data)
	if err != nil {
		var encErr *reader.EncryptedError
		if errors.As(err, &encErr) {
			return &Info{Path: path, Encrypted: true, PasswordRequired: encErr.PasswordRequired}, nil
		}
		return nil, pdfmerge.NewError("Inspect", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}

	info := &Info{
		Path:     path,
		Version:  doc.Version,
		Pages:    doc.NumPages(),
		Metadata: doc.Metadata(),
	}
	for _, p := range doc.Pages() {
		w, h := p.DisplaySize()
		info.Sizes = append(info.Sizes, [2]float64{w, h})
	}
	items, _ := doc.Outline()
	info.Outline = len(items)
	return info, nil
}
