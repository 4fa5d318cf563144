package reader

import (
	"fmt"
)

// maxPageTreeDepth bounds page tree recursion on malformed files.
const maxPageTreeDepth = 64

// Rectangle represents a PDF rectangle (typically [llx lly urx ury]).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page represents a single page in a PDF document.
type Page struct {
	Number   int
	Ref      Reference // page object, zero for direct kids
	MediaBox Rectangle
	CropBox  *Rectangle
	Rotate   int
}

// Size returns the page width and height in points, taken from the
// MediaBox. A missing or degenerate MediaBox reports A4.
func (p *Page) Size() (w, h float64) {
	w, h = p.MediaBox.Width(), p.MediaBox.Height()
	if w <= 0 || h <= 0 {
		return 595.28, 841.89
	}
	return w, h
}

// DisplaySize returns the page size as a viewer shows it, with /Rotate
// applied.
func (p *Page) DisplaySize() (w, h float64) {
	w, h = p.Size()
	if r := ((p.Rotate % 360) + 360) % 360; r == 90 || r == 270 {
		return h, w
	}
	return w, h
}

// parseRectangle parses a PDF rectangle array [llx lly urx ury].
func parseRectangle(obj Object) (Rectangle, error) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("reader: rectangle must be a 4-element array")
	}

	vals, ok := arr.Numbers()
	if !ok {
		return Rectangle{}, fmt.Errorf("reader: rectangle %s is not numeric", arr)
	}
	return Rectangle{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, nil
}

// buildPageList traverses the page tree and returns a flat list of pages.
func (d *Document) buildPageList() error {
	catalog, err := d.Catalog()
	if err != nil {
		return err
	}

	pagesRef, ok := catalog["Pages"].(Reference)
	if !ok {
		return fmt.Errorf("reader: /Pages is not a reference")
	}

	pagesObj, err := d.resolve(pagesRef)
	if err != nil {
		return fmt.Errorf("reader: resolving /Pages: %w", err)
	}
	pagesDict, ok := pagesObj.(Dict)
	if !ok {
		return fmt.Errorf("reader: /Pages is not a dictionary")
	}

	d.pages = nil
	return d.traversePageTree(pagesDict, pagesRef, nil, 0)
}

// traversePageTree recursively traverses the page tree collecting leaf pages.
func (d *Document) traversePageTree(node Dict, ref Reference, inherited Dict, depth int) error {
	if depth > maxPageTreeDepth {
		return fmt.Errorf("reader: page tree deeper than %d levels", maxPageTreeDepth)
	}

	// Inherit properties from parent, then override with the node's own
	merged := make(Dict)
	for k, v := range inherited {
		merged[k] = v
	}
	for _, key := range []Name{"MediaBox", "CropBox", "Rotate"} {
		if v, ok := node[key]; ok {
			merged[key] = v
		}
	}

	if node.GetName("Type") == "Page" {
		page := &Page{
			Number: len(d.pages) + 1,
			Ref:    ref,
		}

		if mb, ok := merged["MediaBox"]; ok {
			if resolved, err := d.resolveIfRef(mb); err == nil {
				if rect, err := parseRectangle(resolved); err == nil {
					page.MediaBox = rect
				}
			}
		}

		if cb, ok := merged["CropBox"]; ok {
			if resolved, err := d.resolveIfRef(cb); err == nil {
				if rect, err := parseRectangle(resolved); err == nil {
					page.CropBox = &rect
				}
			}
		}

		if rotVal, ok := merged["Rotate"]; ok {
			if resolved, err := d.resolveIfRef(rotVal); err == nil {
				if n, ok := integer(resolved); ok {
					page.Rotate = int(n)
				}
			}
		}

		if ref != (Reference{}) {
			d.pageNum[ref] = page.Number
		}
		d.pages = append(d.pages, page)
		return nil
	}

	// Pages node - traverse children
	kidsObj, err := d.resolveIfRef(node["Kids"])
	if err != nil {
		return fmt.Errorf("reader: resolving /Kids: %w", err)
	}
	kids, _ := kidsObj.(Array)

	for _, kid := range kids {
		kidRef, _ := kid.(Reference)
		kidObj, err := d.resolveIfRef(kid)
		if err != nil {
			return fmt.Errorf("reader: resolving page tree kid: %w", err)
		}
		kidDict, ok := kidObj.(Dict)
		if !ok {
			continue
		}
		if err := d.traversePageTree(kidDict, kidRef, merged, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// pageForRef returns the 1-based number of the page object ref.
func (d *Document) pageForRef(ref Reference) (int, bool) {
	n, ok := d.pageNum[ref]
	return n, ok
}
