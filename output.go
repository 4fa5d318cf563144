package pdfmerge

import "fmt"

// Output is the document a merge builds. It is created at the start of a
// merge, mutated only by the merge that owns it and handed to the caller
// on completion.
//
// Output satisfies Document, so a merged result can be a source again.
type Output struct {
	pages   []Page
	outline []OutlineEntry
	links   bool
}

// NewOutput returns an empty output document that keeps links.
func NewOutput() *Output {
	return &Output{links: true}
}

// SetLinks sets whether the Link annotations of the pages are written
// with the document.
func (o *Output) SetLinks(keep bool) {
	o.links = keep
}

// Links reports whether Link annotations are written with the document.
func (o *Output) Links() bool {
	return o.links
}

// AddPages appends pages in order and returns the new page count.
func (o *Output) AddPages(pages ...Page) int {
	o.pages = append(o.pages, pages...)
	return len(o.pages)
}

// SetOutline replaces the outline. Goto targets address output pages.
func (o *Output) SetOutline(entries []OutlineEntry) {
	o.outline = append([]OutlineEntry(nil), entries...)
}

// Pages returns the pages in output order.
func (o *Output) Pages() []Page {
	return o.pages
}

// PageCount returns the number of pages.
func (o *Output) PageCount() int {
	return len(o.pages)
}

// Page returns the page at the 0-based index i.
func (o *Output) Page(i int) (Page, error) {
	if i < 0 || i >= len(o.pages) {
		return Page{}, fmt.Errorf("%w: page index %d out of range [0, %d)", ErrInvalidParam, i, len(o.pages))
	}
	return o.pages[i], nil
}

// Outline returns the attached outline.
func (o *Output) Outline() []OutlineEntry {
	return o.outline
}

// Close is a no-op; an Output holds no external resources.
func (o *Output) Close() error {
	return nil
}
