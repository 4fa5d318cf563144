package pageops

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
)

// Skip records a source that contributed nothing to a merge.
type Skip struct {
	Path string
	Op   string // step that failed: "Open", "Resolve" or "Insert"
	Err  error
}

func (s Skip) Error() string {
	return fmt.Sprintf("skipped %s (%s): %v", s.Path, s.Op, s.Err)
}

func (s Skip) Unwrap() error {
	return s.Err
}

// Reason classifies the skip as pdfmerge.ErrEncrypted,
// pdfmerge.ErrUnsupportedFormat or pdfmerge.ErrUnreadable.
func (s Skip) Reason() error {
	return pdfmerge.Reason(s.Err)
}

// Result is the outcome of a merge that produced at least one page.
type Result struct {
	Document *pdfmerge.Output
	Skipped  []Skip
}

// Merger merges sources opened through an Opener.
// A Merger holds no per-merge state; concurrent Merge calls are safe when
// the Opener is.
type Merger struct {
	opener pdfmerge.Opener
	log    *slog.Logger
}

// NewMerger returns a Merger that opens sources with opener and logs to
// cfg.Logger.
func NewMerger(opener pdfmerge.Opener, cfg pdfmerge.Config) *Merger {
	log := cfg.Logger
	if log == nil {
		log = pdfmerge.NewConfig().Logger
	}
	return &Merger{opener: opener, log: log}
}

// accumulator is the state threaded from one source to the next.
type accumulator struct {
	offset    int // output pages so far
	lastLevel int // level of the last outline entry, 0 before the first
	outline   []pdfmerge.OutlineEntry
}

// Merge concatenates the selected pages of sources, in the given order,
// into a new document.
//
// A source that cannot be opened, is encrypted or fails while its pages
// are collected is skipped and listed in Result.Skipped; the merge goes on
// with the next one. When finalize is true the outlines of the sources are
// rewritten to the output page numbers and attached to the result, and
// links between pages are kept; otherwise only pages and their other
// annotations are copied.
//
// If no page survives, Merge returns an error wrapping
// pdfmerge.ErrOutputEmpty and the cause of every skip.
func (m *Merger) Merge(sources []pdfmerge.Selection, finalize bool) (*Result, error) {
	out := pdfmerge.NewOutput()
	out.SetLinks(finalize)
	var skipped []Skip

	var acc accumulator
	for _, sel := range sources {
		next, skip := m.step(acc, out, sel, finalize)
		if skip != nil {
			m.log.Warn("skipping source", "path", skip.Path, "op", skip.Op, "error", skip.Err)
			skipped = append(skipped, *skip)
			continue
		}
		acc = next
	}

	if out.PageCount() == 0 {
		errs := []error{pdfmerge.ErrOutputEmpty}
		for _, s := range skipped {
			errs = append(errs, s)
		}
		return nil, pdfmerge.NewError("Merge", "", errors.Join(errs...))
	}

	if finalize && len(acc.outline) > 0 {
		out.SetOutline(acc.outline)
	}

	m.log.Info("merge complete",
		"pages", out.PageCount(),
		"outline", len(out.Outline()),
		"skipped", len(skipped),
		"finalize", finalize)
	return &Result{Document: out, Skipped: skipped}, nil
}

// step adds one source to out and returns the advanced accumulator. On a
// skip out and acc are left as they were.
func (m *Merger) step(acc accumulator, out *pdfmerge.Output, sel pdfmerge.Selection, finalize bool) (accumulator, *Skip) {
	doc, err := m.opener.Open(sel.Path)
	if err != nil {
		return acc, &Skip{Path: sel.Path, Op: "Open", Err: err}
	}
	defer doc.Close()

	indices, dir, err := ResolveRange(sel.First, sel.Last, doc.PageCount())
	if err != nil {
		return acc, &Skip{Path: sel.Path, Op: "Resolve", Err: fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err)}
	}
	m.log.Debug("resolved source",
		"path", sel.Path,
		"first", indices[0]+1,
		"last", indices[len(indices)-1]+1,
		"direction", dir,
		"rotation", sel.Rotation.Signed())

	offset, err := insertPages(out, doc, indices, sel.Rotation)
	if err != nil {
		return acc, &Skip{Path: sel.Path, Op: "Insert", Err: fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err)}
	}

	next := accumulator{offset: offset, lastLevel: acc.lastLevel, outline: acc.outline}
	if finalize {
		entries, last := MergeOutline(doc.Outline(), indices, dir, acc.offset, acc.lastLevel)
		next.outline = append(next.outline, entries...)
		next.lastLevel = last
	}
	return next, nil
}

// Merge merges sources with a source.Registry built from opts.
func Merge(sources []pdfmerge.Selection, finalize bool, opts ...pdfmerge.Option) (*Result, error) {
	cfg := pdfmerge.NewConfig(opts...)
	return NewMerger(source.NewRegistry(cfg), cfg).Merge(sources, finalize)
}
