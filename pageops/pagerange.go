package pageops

import (
	"fmt"

	"github.com/lvillar/pdfmerge"
)

// Direction is the order in which a range visits its pages.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ResolveRange turns a requested 0-based page range into the sequence of
// page indices to copy. Both bounds are clamped into [0, pageCount-1];
// last may be pdfmerge.ToEnd. A last bound before first yields the pages
// backwards. The result is never empty and every index is valid.
//
// It fails only when pageCount is less than 1.
func ResolveRange(first, last, pageCount int) ([]int, Direction, error) {
	if pageCount < 1 {
		return nil, Forward, fmt.Errorf("%w: page count %d", pdfmerge.ErrInvalidParam, pageCount)
	}

	first = clamp(first, 0, pageCount-1)
	if last == pdfmerge.ToEnd {
		last = pageCount - 1
	} else {
		last = clamp(last, 0, pageCount-1)
	}

	step := Forward
	if first > last {
		step = Backward
	}

	n := last - first
	if n < 0 {
		n = -n
	}
	indices := make([]int, 0, n+1)
	for i := first; ; i += int(step) {
		indices = append(indices, i)
		if i == last {
			break
		}
	}
	return indices, step, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
