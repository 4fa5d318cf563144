package pageops_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
)

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name           string
		first, last, n int
		want           []int
		wantDir        pageops.Direction
	}{
		{"whole document", 0, pdfmerge.ToEnd, 4, []int{0, 1, 2, 3}, pageops.Forward},
		{"forward", 1, 3, 5, []int{1, 2, 3}, pageops.Forward},
		{"backward", 3, 1, 5, []int{3, 2, 1}, pageops.Backward},
		{"single page", 4, 4, 10, []int{4}, pageops.Forward},
		{"to end from middle", 2, pdfmerge.ToEnd, 4, []int{2, 3}, pageops.Forward},
		{"first beyond end", 7, pdfmerge.ToEnd, 3, []int{2}, pageops.Forward},
		{"both beyond end", 5, 9, 3, []int{2}, pageops.Forward},
		{"last clamped", 0, 99, 3, []int{0, 1, 2}, pageops.Forward},
		{"negative first", -4, 1, 3, []int{0, 1}, pageops.Forward},
		{"negative last", 2, -5, 3, []int{2, 1, 0}, pageops.Backward},
		{"one page document", 0, pdfmerge.ToEnd, 1, []int{0}, pageops.Forward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dir, err := pageops.ResolveRange(tt.first, tt.last, tt.n)
			if err != nil {
				t.Fatalf("ResolveRange: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("indices = %v, want %v", got, tt.want)
			}
			if dir != tt.wantDir {
				t.Errorf("direction = %v, want %v", dir, tt.wantDir)
			}
		})
	}
}

func TestResolveRangeProperties(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for first := 0; first < n; first++ {
			for last := 0; last < n; last++ {
				got, dir, err := pageops.ResolveRange(first, last, n)
				if err != nil {
					t.Fatalf("ResolveRange(%d, %d, %d): %v", first, last, n, err)
				}

				length := last - first
				if length < 0 {
					length = -length
				}
				if len(got) != length+1 {
					t.Errorf("ResolveRange(%d, %d, %d): %d indices, want %d", first, last, n, len(got), length+1)
				}

				wantDir := pageops.Forward
				if last < first {
					wantDir = pageops.Backward
				}
				if dir != wantDir {
					t.Errorf("ResolveRange(%d, %d, %d): direction %v, want %v", first, last, n, dir, wantDir)
				}

				// A backward range is the reverse of the forward one
				fwd, _, _ := pageops.ResolveRange(min(first, last), max(first, last), n)
				if dir == pageops.Backward {
					rev := slices.Clone(fwd)
					slices.Reverse(rev)
					if !slices.Equal(got, rev) {
						t.Errorf("ResolveRange(%d, %d, %d) = %v, want reverse of %v", first, last, n, got, fwd)
					}
				}
			}
		}
	}
}

func TestResolveRangeEmptyDocument(t *testing.T) {
	if _, _, err := pageops.ResolveRange(0, pdfmerge.ToEnd, 0); !errors.Is(err, pdfmerge.ErrInvalidParam) {
		t.Errorf("error = %v, want ErrInvalidParam", err)
	}
}
