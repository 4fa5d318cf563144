package pageops_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
)

// fakeDoc is an in-memory document whose pages carry their source name.
type fakeDoc struct {
	content *pdfmerge.Content
	pages   int
	outline []pdfmerge.OutlineEntry
	failAt  int // 0-based page index whose lookup fails, -1 for none
	lib     *fakeLibrary
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) Page(i int) (pdfmerge.Page, error) {
	if i == d.failAt {
		return pdfmerge.Page{}, errors.New("damaged page")
	}
	if i < 0 || i >= d.pages {
		return pdfmerge.Page{}, fmt.Errorf("%w: page %d", pdfmerge.ErrInvalidParam, i)
	}
	return pdfmerge.Page{
		Content: d.content,
		Number:  i + 1,
		Width:   100 + float64(i),
		Height:  200,
	}, nil
}

func (d *fakeDoc) Outline() []pdfmerge.OutlineEntry { return d.outline }

func (d *fakeDoc) Close() error {
	d.lib.open--
	return nil
}

// fakeLibrary opens fake documents by path and tracks how many are open.
type fakeLibrary struct {
	docs      map[string]fakeFile
	open      int
	maxOpen   int
	openCalls int
}

type fakeFile struct {
	pages     int
	outline   []pdfmerge.OutlineEntry
	failAt    int
	encrypted bool
}

func newLibrary() *fakeLibrary {
	return &fakeLibrary{docs: make(map[string]fakeFile)}
}

func (l *fakeLibrary) add(path string, pages int, outline ...pdfmerge.OutlineEntry) {
	l.docs[path] = fakeFile{pages: pages, outline: outline, failAt: -1}
}

func (l *fakeLibrary) Open(path string) (pdfmerge.Document, error) {
	l.openCalls++
	f, ok := l.docs[path]
	switch {
	case !ok:
		return nil, pdfmerge.NewError("Open", path, pdfmerge.ErrUnreadable)
	case f.encrypted:
		return nil, pdfmerge.NewError("Open", path, pdfmerge.ErrEncrypted)
	}
	l.open++
	l.maxOpen = max(l.maxOpen, l.open)
	return &fakeDoc{
		content: &pdfmerge.Content{Name: path},
		pages:   f.pages,
		outline: f.outline,
		failAt:  f.failAt,
		lib:     l,
	}, nil
}

func newTestMerger(lib *fakeLibrary) *pageops.Merger {
	return pageops.NewMerger(lib, pdfmerge.NewConfig())
}

func TestMergeConcatenates(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 3, entry(1, "A", goTo(1)))
	lib.add("b.pdf", 5,
		entry(1, "B intro", goTo(1)),
		entry(1, "B five", goTo(5)))

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{
		pdfmerge.All("a.pdf"),
		{Path: "b.pdf", First: 4, Last: 4, Rotation: pdfmerge.Rotate90},
	}, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("unexpected skips: %v", res.Skipped)
	}

	out := res.Document
	if out.PageCount() != 4 {
		t.Fatalf("page count = %d, want 4", out.PageCount())
	}
	last, _ := out.Page(3)
	if last.Content.Name != "b.pdf" || last.Number != 5 {
		t.Errorf("page 4 = %s page %d, want b.pdf page 5", last.Content.Name, last.Number)
	}
	if last.Rotation != pdfmerge.Rotate90 {
		t.Errorf("page 4 rotation = %v, want 90", last.Rotation)
	}
	if w, h := last.Size(); w != 200 || h != 104 {
		t.Errorf("page 4 size = %vx%v, want 200x104", w, h)
	}

	assertOutline(t, out.Outline(), []pdfmerge.OutlineEntry{
		entry(1, "A", goTo(1)),
		entry(1, "B five", goTo(4)),
	})

	if lib.open != 0 {
		t.Errorf("%d documents left open", lib.open)
	}
	if lib.maxOpen != 1 {
		t.Errorf("max concurrently open = %d, want 1", lib.maxOpen)
	}
}

func TestMergeSkipsAndContinues(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 2, entry(1, "A", goTo(2)))
	lib.docs["b.pdf"] = fakeFile{pages: 4, encrypted: true}
	lib.add("c.pdf", 1, entry(1, "C", goTo(1)))

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{
		pdfmerge.All("a.pdf"),
		pdfmerge.All("b.pdf"),
		pdfmerge.All("c.pdf"),
	}, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if res.Document.PageCount() != 3 {
		t.Errorf("page count = %d, want 3", res.Document.PageCount())
	}
	assertOutline(t, res.Document.Outline(), []pdfmerge.OutlineEntry{
		entry(1, "A", goTo(2)),
		entry(1, "C", goTo(3)),
	})

	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %v, want one entry", res.Skipped)
	}
	skip := res.Skipped[0]
	if skip.Path != "b.pdf" || skip.Op != "Open" {
		t.Errorf("skip = %+v, want b.pdf at Open", skip)
	}
	if skip.Reason() != pdfmerge.ErrEncrypted {
		t.Errorf("skip reason = %v, want ErrEncrypted", skip.Reason())
	}
	if lib.openCalls != 3 {
		t.Errorf("open calls = %d, want 3", lib.openCalls)
	}
}

func TestMergeAllSkipped(t *testing.T) {
	lib := newLibrary()
	lib.docs["locked.pdf"] = fakeFile{encrypted: true}

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{
		pdfmerge.All("locked.pdf"),
		pdfmerge.All("missing.pdf"),
	}, true)
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if !errors.Is(err, pdfmerge.ErrOutputEmpty) {
		t.Fatalf("error = %v, want ErrOutputEmpty", err)
	}
	if !errors.Is(err, pdfmerge.ErrEncrypted) {
		t.Errorf("error %v does not carry ErrEncrypted", err)
	}
	if !errors.Is(err, pdfmerge.ErrUnreadable) {
		t.Errorf("error %v does not carry ErrUnreadable", err)
	}
}

func TestMergeNoSources(t *testing.T) {
	_, err := newTestMerger(newLibrary()).Merge(nil, true)
	if !errors.Is(err, pdfmerge.ErrOutputEmpty) {
		t.Fatalf("error = %v, want ErrOutputEmpty", err)
	}
}

func TestMergePreviewHasNoOutline(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 2, entry(1, "A", goTo(1)), entry(3, "Deep", goTo(2)))

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{pdfmerge.All("a.pdf")}, false)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Document.PageCount() != 2 {
		t.Errorf("page count = %d, want 2", res.Document.PageCount())
	}
	if len(res.Document.Outline()) != 0 {
		t.Errorf("preview outline = %v, want none", res.Document.Outline())
	}
}

func TestMergeIdentity(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 4, entry(1, "One", goTo(1)), entry(2, "Three", goTo(3)))

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{pdfmerge.All("a.pdf")}, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	for i, p := range res.Document.Pages() {
		if p.Number != i+1 || p.Rotation != pdfmerge.Rotate0 {
			t.Errorf("page %d = number %d rotation %v", i+1, p.Number, p.Rotation)
		}
	}
	assertOutline(t, res.Document.Outline(), lib.docs["a.pdf"].outline)
}

func TestMergeBackward(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 5,
		entry(1, "P2", goTo(2)),
		entry(1, "P3", goTo(3)),
		entry(1, "P5", goTo(5)))

	// Pages 4, 3, 2
	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{
		{Path: "a.pdf", First: 3, Last: 1},
	}, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	var numbers []int
	for _, p := range res.Document.Pages() {
		numbers = append(numbers, p.Number)
	}
	if fmt.Sprint(numbers) != "[4 3 2]" {
		t.Errorf("page order = %v, want [4 3 2]", numbers)
	}
	assertOutline(t, res.Document.Outline(), []pdfmerge.OutlineEntry{
		entry(1, "P3", goTo(2)),
		entry(1, "P2", goTo(3)),
	})
}

func TestMergeClampsRange(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 3)

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{
		{Path: "a.pdf", First: 10, Last: 20},
	}, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Document.PageCount() != 1 {
		t.Fatalf("page count = %d, want 1", res.Document.PageCount())
	}
	if p, _ := res.Document.Page(0); p.Number != 3 {
		t.Errorf("page number = %d, want 3", p.Number)
	}
}

func TestMergeInsertFailureAddsNothing(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 2)
	lib.docs["broken.pdf"] = fakeFile{pages: 3, failAt: 2}
	lib.add("c.pdf", 1, entry(2, "C", goTo(1)))

	res, err := newTestMerger(lib).Merge([]pdfmerge.Selection{
		pdfmerge.All("a.pdf"),
		pdfmerge.All("broken.pdf"),
		pdfmerge.All("c.pdf"),
	}, true)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if res.Document.PageCount() != 3 {
		t.Errorf("page count = %d, want 3", res.Document.PageCount())
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Op != "Insert" {
		t.Fatalf("skipped = %v, want broken.pdf at Insert", res.Skipped)
	}
	if !errors.Is(res.Skipped[0], pdfmerge.ErrUnreadable) {
		t.Errorf("skip %v does not wrap ErrUnreadable", res.Skipped[0])
	}
	assertOutline(t, res.Document.Outline(), []pdfmerge.OutlineEntry{
		entry(1, pdfmerge.FillerTitle, goTo(3)),
		entry(2, "C", goTo(3)),
	})
	if lib.open != 0 {
		t.Errorf("%d documents left open", lib.open)
	}
}

func TestMergeOutputAsSource(t *testing.T) {
	lib := newLibrary()
	lib.add("a.pdf", 2, entry(1, "A", goTo(2)))

	m := newTestMerger(lib)
	first, err := m.Merge([]pdfmerge.Selection{pdfmerge.All("a.pdf")}, true)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}

	opener := pdfmerge.OpenerFunc(func(path string) (pdfmerge.Document, error) {
		if path == "merged" {
			return first.Document, nil
		}
		return lib.Open(path)
	})
	second, err := pageops.NewMerger(opener, pdfmerge.NewConfig()).Merge([]pdfmerge.Selection{
		pdfmerge.All("a.pdf"),
		{Path: "merged", First: 1, Last: 0, Rotation: pdfmerge.Rotate180},
	}, true)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	if second.Document.PageCount() != 4 {
		t.Fatalf("page count = %d, want 4", second.Document.PageCount())
	}
	p, _ := second.Document.Page(2)
	if p.Number != 2 || p.Rotation != pdfmerge.Rotate180 {
		t.Errorf("page 3 = number %d rotation %v, want 2 and 180", p.Number, p.Rotation)
	}
	assertOutline(t, second.Document.Outline(), []pdfmerge.OutlineEntry{
		entry(1, "A", goTo(2)),
		entry(1, "A", goTo(3)),
	})
}
