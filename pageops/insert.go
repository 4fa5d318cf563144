package pageops

import (
	"fmt"

	"github.com/lvillar/pdfmerge"
)

// insertPages appends the pages of doc at indices, in that order, to out,
// composing rot onto each page's rotation. Every page is fetched before
// any is appended, so a source that fails part way adds nothing. It
// returns the new page count of out.
func insertPages(out *pdfmerge.Output, doc pdfmerge.Document, indices []int, rot pdfmerge.Rotation) (int, error) {
	pages := make([]pdfmerge.Page, 0, len(indices))
	for _, i := range indices {
		p, err := doc.Page(i)
		if err != nil {
			return out.PageCount(), fmt.Errorf("pageops: page %d: %w", i+1, err)
		}
		p.Rotation = p.Rotation.Add(rot)
		pages = append(pages, p)
	}
	return out.AddPages(pages...), nil
}
