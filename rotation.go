package pdfmerge

import (
	"fmt"
	"strconv"
	"strings"
)

// Rotation is a clockwise page rotation in degrees, normalized to
// 0, 90, 180 or 270.
type Rotation int

// Supported rotations. RotateLeft is the -90 degree rotation.
const (
	Rotate0    Rotation = 0
	Rotate90   Rotation = 90
	Rotate180  Rotation = 180
	Rotate270  Rotation = 270
	RotateLeft          = Rotate270
)

// NewRotation normalizes degrees into a Rotation. Valid values are -90,
// 0, 90, 180 and 270.
func NewRotation(degrees int) (Rotation, error) {
	if degrees%90 != 0 {
		return 0, fmt.Errorf("%w: rotation must be a multiple of 90, got %d", ErrInvalidParam, degrees)
	}
	if degrees < -90 || degrees > 270 {
		return 0, fmt.Errorf("%w: rotation %d out of range", ErrInvalidParam, degrees)
	}
	if degrees < 0 {
		degrees += 360
	}
	return Rotation(degrees), nil
}

// ParseRotation parses "0", "90", "-90", "180" or "270", optionally
// followed by a degree sign and a label as produced by String.
// The empty string is Rotate0.
func ParseRotation(s string) (Rotation, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "° "); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Rotate0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: rotation %q", ErrInvalidParam, s)
	}
	return NewRotation(n)
}

// Add composes two rotations.
func (r Rotation) Add(o Rotation) Rotation {
	return Rotation((int(r) + int(o)) % 360)
}

// SwapsAxes reports whether the rotation exchanges page width and height.
func (r Rotation) SwapsAxes() bool {
	return r == Rotate90 || r == Rotate270
}

// Signed returns the rotation in the -90..180 form used in user interfaces.
func (r Rotation) Signed() int {
	if r == Rotate270 {
		return -90
	}
	return int(r)
}

func (r Rotation) String() string {
	switch r {
	case Rotate90:
		return "90° (right)"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "-90° (left)"
	default:
		return "0°"
	}
}
