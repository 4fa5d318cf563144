package reader

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Catalog returns the document's catalog dictionary (the /Root object).
func (d *Document) Catalog() (Dict, error) {
	rootObj, ok := d.trailer["Root"]
	if !ok {
		return nil, fmt.Errorf("reader: missing /Root in trailer")
	}
	resolved, err := d.resolveIfRef(rootObj)
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /Root: %w", err)
	}
	catalog, ok := resolved.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: /Root is not a dictionary")
	}
	return catalog, nil
}

// decodePDFString decodes a PDF text string: UTF-16BE with a byte order
// mark, UTF-8 with a byte order mark (PDF 2.0), otherwise PDFDocEncoding.
func decodePDFString(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), data)
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:])
	}
	// PDFDocEncoding matches Latin-1 for printable characters
	return decodeWith(charmap.ISO8859_1.NewDecoder(), data)
}

func decodeWith(dec *encoding.Decoder, data []byte) string {
	out, err := dec.Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
