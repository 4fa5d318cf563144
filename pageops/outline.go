package pageops

import (
	"slices"

	"github.com/lvillar/pdfmerge"
)

// MergeOutline rewrites the outline of one source into the numbering of
// the output document.
//
// indices and dir are the resolved page range of the source and offset is
// the number of output pages that precede it. lastLevel is the level of
// the last entry already in the output outline (0 when it is empty). The
// rewritten entries are returned together with the new last level.
//
// For a backward range the outline is reversed first. Named entries are
// dropped, as are Goto entries whose page was not selected. Other entries
// pass through unchanged. Levels that would jump by more than one are
// bridged with filler entries titled pdfmerge.FillerTitle that share the
// target of the entry they precede.
func MergeOutline(entries []pdfmerge.OutlineEntry, indices []int, dir Direction, offset, lastLevel int) ([]pdfmerge.OutlineEntry, int) {
	if len(entries) == 0 {
		return nil, lastLevel
	}

	position := make(map[int]int, len(indices))
	for pos, idx := range indices {
		position[idx] = pos
	}

	src := entries
	if dir == Backward {
		src = slices.Clone(entries)
		slices.Reverse(src)
	}

	var out []pdfmerge.OutlineEntry
	for _, e := range src {
		switch t := e.Target.(type) {
		case pdfmerge.Named:
			continue
		case pdfmerge.Goto:
			pos, ok := position[t.Page-1]
			if !ok {
				continue
			}
			e.Target = pdfmerge.Goto{Page: pos + offset + 1}
		case pdfmerge.Other:
			// No page to remap
		}
		out, lastLevel = appendLeveled(out, e, lastLevel)
	}
	return out, lastLevel
}

// appendLeveled appends e to out, first inserting the fillers needed so
// that e is at most one level deeper than lastLevel. Levels below 1 are
// raised to 1.
func appendLeveled(out []pdfmerge.OutlineEntry, e pdfmerge.OutlineEntry, lastLevel int) ([]pdfmerge.OutlineEntry, int) {
	e.Level = max(e.Level, 1)
	for e.Level > lastLevel+1 {
		lastLevel++
		out = append(out, pdfmerge.OutlineEntry{
			Level:  lastLevel,
			Title:  pdfmerge.FillerTitle,
			Target: e.Target,
		})
	}
	return append(out, e), e.Level
}

// RepairLevels returns entries with every upward level jump bridged by
// filler entries, as MergeOutline does across a whole merge.
func RepairLevels(entries []pdfmerge.OutlineEntry) []pdfmerge.OutlineEntry {
	out := make([]pdfmerge.OutlineEntry, 0, len(entries))
	last := 0
	for _, e := range entries {
		out, last = appendLeveled(out, e, last)
	}
	return out
}
