// Package reader parses existing PDF files far enough to merge them: the
// object structure (classic and compressed cross-reference sections,
// object streams), the page tree, and the document outline.
//
// Encrypted documents are detected and refused with ErrEncrypted.
package reader

import (
	"fmt"
	"math"
	"strings"
)

// Object is the interface satisfied by all PDF object types.
// The unexported method prevents external types from implementing it.
type Object interface {
	pdfObject()
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) pdfObject()     {}
func (Null) String() string { return "null" }

// Boolean represents a PDF boolean value.
type Boolean bool

func (Boolean) pdfObject() {}
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents a PDF integer value.
type Integer int64

func (Integer) pdfObject()       {}
func (i Integer) String() string { return fmt.Sprintf("%d", int64(i)) }

// Real represents a PDF real (floating-point) value.
type Real float64

func (Real) pdfObject()       {}
func (r Real) String() string { return fmt.Sprintf("%g", float64(r)) }

// Name represents a PDF name object (e.g., /Type, /Pages).
type Name string

func (Name) pdfObject()       {}
func (n Name) String() string { return "/" + string(n) }

// String represents a PDF string (literal or hexadecimal).
type String struct {
	Value []byte
	IsHex bool
}

func (String) pdfObject() {}
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%x>", s.Value)
	}
	return fmt.Sprintf("(%s)", s.Value)
}

// Text decodes s as a PDF text string, as used for titles and metadata.
func (s String) Text() string { return decodePDFString(s.Value) }

// Array represents a PDF array of objects.
type Array []Object

func (Array) pdfObject() {}
func (a Array) String() string {
	if len(a) > 8 {
		return fmt.Sprintf("[%s %s %s ... %d more]", a[0], a[1], a[2], len(a)-3)
	}
	parts := make([]string, len(a))
	for i, o := range a {
		parts[i] = fmt.Sprint(o)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Numbers returns the elements of a as numbers. It fails when any
// element is not an Integer or a Real.
func (a Array) Numbers() ([]float64, bool) {
	out := make([]float64, len(a))
	for i, o := range a {
		f, ok := number(o)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func number(o Object) (float64, bool) {
	switch n := o.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

// Dict represents a PDF dictionary mapping names to objects.
type Dict map[Name]Object

func (Dict) pdfObject() {}
func (d Dict) String() string {
	if t := d.GetName("Type"); t != "" {
		return fmt.Sprintf("<</Type %s, %d entries>>", t, len(d))
	}
	return fmt.Sprintf("<<%d entries>>", len(d))
}

// GetName returns the value of a name entry, or empty string if not found.
func (d Dict) GetName(key Name) Name {
	n, _ := d[key].(Name)
	return n
}

// GetInt returns an integer entry.
func (d Dict) GetInt(key Name) (int64, bool) {
	return integer(d[key])
}

// integer accepts a Real without fractional part, as some writers emit
// /Rotate 90.0.
func integer(o Object) (int64, bool) {
	switch n := o.(type) {
	case Integer:
		return int64(n), true
	case Real:
		if float64(n) == math.Trunc(float64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// GetDict returns a sub-dictionary, or nil if not found.
func (d Dict) GetDict(key Name) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// GetArray returns an array entry, or nil if not found.
func (d Dict) GetArray(key Name) Array {
	arr, _ := d[key].(Array)
	return arr
}

// GetString returns the decoded text string for a dictionary key, with
// surrounding space removed.
func (d Dict) GetString(key Name) string {
	if s, ok := d[key].(String); ok {
		return strings.TrimSpace(s.Text())
	}
	return ""
}

// Stream represents a PDF stream object (dictionary + encoded data).
type Stream struct {
	Dict Dict
	Data []byte // raw data (may be compressed)
}

func (Stream) pdfObject()       {}
func (s Stream) String() string { return fmt.Sprintf("<<stream len=%d>>", len(s.Data)) }

// Reference represents an indirect object reference (e.g., "10 0 R").
type Reference struct {
	Number     int
	Generation int
}

func (Reference) pdfObject() {}
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject represents a PDF indirect object definition (e.g., "10 0 obj ... endobj").
type IndirectObject struct {
	Reference
	Value Object
}

func (IndirectObject) pdfObject() {}
func (o IndirectObject) String() string {
	return fmt.Sprintf("%d %d obj %s", o.Number, o.Generation, o.Value)
}
