// Package pdfmerge defines the data model shared by the merge core, the
// source adapters and the persistence layer: documents, pages, rotations,
// outline entries and source selections.
//
// The merge itself lives in the pageops package and the source adapters in
// the source package.
package pdfmerge

// Document is the read contract every source satisfies, whether it was
// parsed natively or produced by a conversion.
type Document interface {
	// PageCount returns the number of pages, at least 1 for an open document.
	PageCount() int
	// Page returns the page at the 0-based index i.
	Page(i int) (Page, error)
	// Outline returns the document outline in reading order. It is empty
	// when the document has none.
	Outline() []OutlineEntry
	// Close releases the document. It is safe to call more than once.
	Close() error
}

// Opener opens a path as a Document. Errors wrap ErrEncrypted,
// ErrUnreadable or ErrUnsupportedFormat.
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Document, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Document, error) {
	return f(path)
}

// Content is the raw PDF byte image that pages are imported from.
// All pages of one opened source share the same Content.
type Content struct {
	Name string // origin, usually the source path
	Data []byte
}

// Page is an opaque reference to one page of a Content plus the rotation
// applied on top of the page's own orientation.
type Page struct {
	Content  *Content
	Number   int     // 1-based page number inside Content
	Width    float64 // unrotated width in points
	Height   float64 // unrotated height in points
	Rotation Rotation
}

// Size returns the page dimensions after Rotation is applied.
func (p Page) Size() (w, h float64) {
	if p.Rotation.SwapsAxes() {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}
