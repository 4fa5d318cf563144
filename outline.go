package pdfmerge

import "fmt"

// FillerTitle is the title of synthetic entries inserted to keep outline
// levels contiguous.
const FillerTitle = "<>"

// OutlineEntry is one bookmark. A contiguous run of entries forms a tree:
// an entry at level L nests under the nearest preceding entry at level L-1.
type OutlineEntry struct {
	Level  int // 1 is top level
	Title  string
	Target Target
}

func (e OutlineEntry) String() string {
	return fmt.Sprintf("%d %q -> %s", e.Level, e.Title, e.Target)
}

// Target is where an outline entry leads. It is one of Goto, Named or Other.
type Target interface {
	isTarget()
	String() string
}

// Goto targets a page of the same document.
type Goto struct {
	Page int // 1-based
}

// Named is a named action such as NextPage. It cannot be resolved to a page.
type Named struct {
	Action string
}

// Other is any target without an intrinsic page, e.g. a URI or a link into
// another file.
type Other struct {
	Action string // action type, e.g. "URI", "GoToR", or empty
	URI    string
}

func (Goto) isTarget()  {}
func (Named) isTarget() {}
func (Other) isTarget() {}

func (g Goto) String() string  { return fmt.Sprintf("page %d", g.Page) }
func (n Named) String() string { return "named " + n.Action }
func (o Other) String() string {
	switch {
	case o.URI != "":
		return o.Action + " " + o.URI
	case o.Action != "":
		return o.Action
	default:
		return "none"
	}
}

// TargetPage returns the page of a Goto target.
func TargetPage(t Target) (int, bool) {
	if g, ok := t.(Goto); ok {
		return g.Page, true
	}
	return 0, false
}
