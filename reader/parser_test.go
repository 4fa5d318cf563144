package reader

import (
	"bytes"
	"testing"
)

func parseOne(t *testing.T, src string) Object {
	t.Helper()
	obj, err := newParser([]byte(src)).ParseObject()
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return obj
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		src  string
		want Object
	}{
		{"42", Integer(42)},
		{"-7", Integer(-7)},
		{"+3", Integer(3)},
		{"true", Boolean(true)},
		{"false", Boolean(false)},
		{"/Type", Name("Type")},
		{"/A#20B", Name("A B")},
		{"/Dests", Name("Dests")},
		{"% page tree\n42", Integer(42)},
	}
	for _, tt := range tests {
		if got := parseOne(t, tt.src); got != tt.want {
			t.Errorf("%q = %T(%v), want %T(%v)", tt.src, got, got, tt.want, tt.want)
		}
	}

	if v, ok := parseOne(t, "-.5").(Real); !ok || float64(v) != -0.5 {
		t.Errorf("-.5 parsed as %v", v)
	}
	if _, ok := parseOne(t, "null").(Null); !ok {
		t.Error("null not parsed as Null")
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  string
		isHex bool
	}{
		{"literal", "(Chapter 1)", "Chapter 1", false},
		{"balanced parens", "(Part (draft) 2)", "Part (draft) 2", false},
		{"escapes", `(a\nb\r\t\\\(x\))`, "a\nb\r\t\\(x)", false},
		{"octal", `(\376\377)`, "\xfe\xff", false},
		{"hex", "<4D65726765>", "Merge", true},
		{"hex odd digit", "<4D6>", "M`", true},
		{"hex utf16 bom", "<FEFF0041>", "\xfe\xff\x00A", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := parseOne(t, tt.src).(String)
			if !ok {
				t.Fatalf("not a String")
			}
			if string(s.Value) != tt.want || s.IsHex != tt.isHex {
				t.Errorf("got %q hex=%v, want %q hex=%v", s.Value, s.IsHex, tt.want, tt.isHex)
			}
		})
	}
}

func TestParseOutlineItem(t *testing.T) {
	src := "<< /Title (Intro) /Parent 3 0 R /Dest [4 0 R /XYZ 0 792 null] /Count -2 >>"
	d, ok := parseOne(t, src).(Dict)
	if !ok {
		t.Fatalf("expected Dict")
	}
	if parent, ok := d["Parent"].(Reference); !ok || parent.Number != 3 || parent.Generation != 0 {
		t.Errorf("Parent = %v, want 3 0 R", d["Parent"])
	}
	if n, ok := d.GetInt("Count"); !ok || n != -2 {
		t.Errorf("Count = %v, want -2", d["Count"])
	}
	dest := d.GetArray("Dest")
	if len(dest) != 5 {
		t.Fatalf("Dest = %v, want 5 elements", dest)
	}
	if ref, ok := dest[0].(Reference); !ok || ref.Number != 4 {
		t.Errorf("Dest page = %v, want 4 0 R", dest[0])
	}
	if dest[1] != Name("XYZ") {
		t.Errorf("Dest kind = %v, want XYZ", dest[1])
	}
	if _, ok := dest[4].(Null); !ok {
		t.Errorf("Dest zoom = %T, want Null", dest[4])
	}
}

func TestParseIndirectObject(t *testing.T) {
	obj, err := newParser([]byte("5 0 obj\n<< /Type /Pages /Kids [6 0 R 7 0 R] >>\nendobj")).ParseIndirectObject()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if obj.Number != 5 || obj.Generation != 0 {
		t.Errorf("got %d %d obj, want 5 0 obj", obj.Number, obj.Generation)
	}
	d, ok := obj.Value.(Dict)
	if !ok {
		t.Fatalf("expected Dict value, got %T", obj.Value)
	}
	if d.GetName("Type") != "Pages" || len(d.GetArray("Kids")) != 2 {
		t.Errorf("value = %v", d)
	}
}

func TestParseStreamLength(t *testing.T) {
	lengths := map[int]int{9: 5, 10: 3}
	resolve := func(ref Reference) (int, bool) {
		n, ok := lengths[ref.Number]
		return n, ok
	}

	tests := []struct {
		name    string
		length  string
		body    string
		resolve func(Reference) (int, bool)
		want    string
	}{
		{"direct", "5", "hello\nendstream", nil, "hello"},
		{"indirect", "9 0 R", "hello\nendstream", resolve, "hello"},
		{"indirect unresolved", "11 0 R", "hello\nendstream", resolve, "hello"},
		{"indirect without resolver", "9 0 R", "hello\nendstream", nil, "hello"},
		{"indirect too short", "10 0 R", "hello\nendstream", resolve, "hello"},
		{"too short", "3", "hello\nendstream", nil, "hello"},
		{"too long", "8", "hello\nendstream", nil, "hello"},
		{"past end of file", "500", "hello\nendstream", nil, "hello"},
		{"missing", "", "hello\nendstream", nil, "hello"},
		{"crlf before endstream", "", "hello\r\nendstream", nil, "hello"},
		{"crlf with exact length", "5", "hello\r\nendstream", nil, "hello"},
		{"data ending in cr", "3", "ab\r\nendstream", nil, "ab\r"},
		{"no eol before endstream", "", "helloendstream", nil, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict := "<< >>"
			if tt.length != "" {
				dict = "<< /Length " + tt.length + " >>"
			}
			src := "7 0 obj\n" + dict + "\nstream\n" + tt.body + "\nendobj\n"

			p := newParser([]byte(src))
			p.resolveLength = tt.resolve
			obj, err := p.ParseIndirectObject()
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			s, ok := obj.Value.(Stream)
			if !ok {
				t.Fatalf("expected Stream, got %T", obj.Value)
			}
			if !bytes.Equal(s.Data, []byte(tt.want)) {
				t.Errorf("data = %q, want %q", s.Data, tt.want)
			}
			if p.pos != len(src)-1 {
				t.Errorf("parser stopped at %d, want %d", p.pos, len(src)-1)
			}
		})
	}
}

func TestParseStreamWithoutEnd(t *testing.T) {
	p := newParser([]byte("7 0 obj\n<< >>\nstream\nhello"))
	if _, err := p.ParseIndirectObject(); err == nil {
		t.Error("expected an error for a stream with no length and no endstream")
	}
}

func TestDictHelpers(t *testing.T) {
	d := Dict{
		"Type":  Name("Outlines"),
		"Count": Integer(5),
		"First": Dict{"Title": String{Value: []byte("One")}},
		"Kids":  Array{Integer(1), Integer(2)},
	}

	if d.GetName("Type") != "Outlines" {
		t.Errorf("GetName: %v", d.GetName("Type"))
	}
	if d.GetName("Missing") != "" {
		t.Errorf("GetName missing: %v", d.GetName("Missing"))
	}
	if d.GetName("Count") != "" {
		t.Errorf("GetName on an Integer: %v", d.GetName("Count"))
	}
	if v, ok := d.GetInt("Count"); !ok || v != 5 {
		t.Errorf("GetInt: %v %v", v, ok)
	}
	if _, ok := d.GetInt("Type"); ok {
		t.Error("GetInt on a Name reported ok")
	}
	if first := d.GetDict("First"); first == nil || first["Title"] == nil {
		t.Errorf("GetDict: %v", d.GetDict("First"))
	}
	if arr := d.GetArray("Kids"); len(arr) != 2 {
		t.Errorf("GetArray: %v", arr)
	}
}
