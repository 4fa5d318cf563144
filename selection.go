package pdfmerge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ToEnd is the Selection.Last sentinel selecting through the last page.
const ToEnd = -1

// Selection is one source of a merge: a path, its page range and rotation.
// First and Last are 0-based; Last < First selects the range backwards.
type Selection struct {
	Path     string
	First    int
	Last     int
	Rotation Rotation
}

// All selects every page of path in order, unrotated.
func All(path string) Selection {
	return Selection{Path: path, First: 0, Last: ToEnd}
}

var (
	selectionFull  = regexp.MustCompile(`^(.+):(\d*-\d*|\d+):(-?\d+)°?$`)
	selectionRange = regexp.MustCompile(`^(.+):(\d*-\d*|\d+)$`)
)

// ParseSelection parses the text form path[:range[:rotation]] where range
// uses 1-based page numbers: "a-b", "a-" (to the end), "-b", "a", or "-".
// A range with a > b selects the pages backwards. The suffixes are matched
// from the right so paths may themselves contain colons.
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selection{}, fmt.Errorf("%w: empty selection", ErrInvalidParam)
	}

	sel := All(s)
	var rng, rot string
	if m := selectionFull.FindStringSubmatch(s); m != nil {
		sel.Path, rng, rot = m[1], m[2], m[3]
	} else if m := selectionRange.FindStringSubmatch(s); m != nil {
		sel.Path, rng = m[1], m[2]
	}

	if rng != "" {
		first, last, err := parseRange(rng)
		if err != nil {
			return Selection{}, fmt.Errorf("selection %q: %w", s, err)
		}
		sel.First, sel.Last = first, last
	}
	if rot != "" {
		r, err := ParseRotation(rot)
		if err != nil {
			return Selection{}, fmt.Errorf("selection %q: %w", s, err)
		}
		sel.Rotation = r
	}
	return sel, nil
}

// parseRange converts a 1-based range expression into 0-based bounds.
func parseRange(rng string) (first, last int, err error) {
	lo, hi, isRange := strings.Cut(rng, "-")
	if !isRange {
		hi = lo
	}

	first = 0
	if lo != "" {
		if first, err = pageIndex(lo); err != nil {
			return 0, 0, err
		}
	}
	last = ToEnd
	if hi != "" {
		if last, err = pageIndex(hi); err != nil {
			return 0, 0, err
		}
	}
	return first, last, nil
}

func pageIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: page number %q", ErrInvalidParam, s)
	}
	return n - 1, nil
}

// String formats the selection in the form accepted by ParseSelection.
func (s Selection) String() string {
	last := ""
	if s.Last != ToEnd {
		last = strconv.Itoa(s.Last + 1)
	}
	out := fmt.Sprintf("%s:%d-%s", s.Path, s.First+1, last)
	if s.Rotation != Rotate0 {
		out += ":" + strconv.Itoa(s.Rotation.Signed())
	}
	return out
}
