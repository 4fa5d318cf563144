package pdfmerge_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/lvillar/pdfmerge"
)

func TestNewRotation(t *testing.T) {
	tests := []struct {
		degrees int
		want    pdfmerge.Rotation
		ok      bool
	}{
		{0, pdfmerge.Rotate0, true},
		{90, pdfmerge.Rotate90, true},
		{180, pdfmerge.Rotate180, true},
		{270, pdfmerge.Rotate270, true},
		{-90, pdfmerge.RotateLeft, true},
		{45, 0, false},
		{-45, 0, false},
		{-180, 0, false},
		{360, 0, false},
		{450, 0, false},
	}
	for _, tt := range tests {
		got, err := pdfmerge.NewRotation(tt.degrees)
		if !tt.ok {
			if !errors.Is(err, pdfmerge.ErrInvalidParam) {
				t.Errorf("NewRotation(%d) error = %v, want ErrInvalidParam", tt.degrees, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NewRotation(%d) = %v, %v, want %v", tt.degrees, got, err, tt.want)
		}
	}
}

// ParseRotation accepts exactly the values NewRotation does.
func TestParseRotationMatchesNewRotation(t *testing.T) {
	for _, s := range []string{"-180", "-90", "0", "45", "90", "180", "270", "360", "450"} {
		parsed, perr := pdfmerge.ParseRotation(s)
		n, _ := strconv.Atoi(s)
		built, nerr := pdfmerge.NewRotation(n)
		if (perr == nil) != (nerr == nil) || parsed != built {
			t.Errorf("%s: ParseRotation = %v, %v; NewRotation = %v, %v", s, parsed, perr, built, nerr)
		}
	}
}

func TestParseRotation(t *testing.T) {
	tests := []struct {
		in   string
		want pdfmerge.Rotation
	}{
		{"", pdfmerge.Rotate0},
		{" 90 ", pdfmerge.Rotate90},
		{"90° (right)", pdfmerge.Rotate90},
		{"-90° (left)", pdfmerge.Rotate270},
		{"180°", pdfmerge.Rotate180},
	}
	for _, tt := range tests {
		got, err := pdfmerge.ParseRotation(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseRotation(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}

	// String round-trips
	for _, r := range []pdfmerge.Rotation{pdfmerge.Rotate0, pdfmerge.Rotate90, pdfmerge.Rotate180, pdfmerge.Rotate270} {
		if got, err := pdfmerge.ParseRotation(r.String()); err != nil || got != r {
			t.Errorf("ParseRotation(%q) = %v, %v", r.String(), got, err)
		}
	}

	if _, err := pdfmerge.ParseRotation("right"); !errors.Is(err, pdfmerge.ErrInvalidParam) {
		t.Errorf("ParseRotation(right) error = %v, want ErrInvalidParam", err)
	}
}

func TestRotationAdd(t *testing.T) {
	if got := pdfmerge.Rotate270.Add(pdfmerge.Rotate180); got != pdfmerge.Rotate90 {
		t.Errorf("270+180 = %v, want 90", got)
	}
	if !pdfmerge.Rotate270.SwapsAxes() || pdfmerge.Rotate180.SwapsAxes() {
		t.Error("SwapsAxes wrong for 270 or 180")
	}
	if got := pdfmerge.Rotate270.Signed(); got != -90 {
		t.Errorf("Signed() = %d, want -90", got)
	}
}
