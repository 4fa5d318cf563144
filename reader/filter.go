package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// decodeStream applies the filter chain specified in the stream dictionary to decompress data.
func decodeStream(s Stream) ([]byte, error) {
	data := s.Data
	filter := s.Dict["Filter"]

	if filter == nil {
		return data, nil
	}

	// Filter can be a single name or an array of names
	var filters []Name
	switch f := filter.(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("reader: filter array contains non-name: %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("reader: unexpected filter type: %T", filter)
	}

	params := decodeParams(s.Dict["DecodeParms"], len(filters))

	var err error
	for i, f := range filters {
		data, err = applyFilter(f, data)
		if err != nil {
			return nil, fmt.Errorf("reader: applying filter %s: %w", f, err)
		}
		if f == "FlateDecode" && params[i] != nil {
			data, err = unpredict(data, params[i])
			if err != nil {
				return nil, fmt.Errorf("reader: applying predictor: %w", err)
			}
		}
	}
	return data, nil
}

// decodeParams lines up /DecodeParms with the filter chain.
// The entry is either a single dictionary or an array parallel to /Filter.
func decodeParams(obj Object, n int) []Dict {
	params := make([]Dict, n)
	switch p := obj.(type) {
	case Dict:
		if n > 0 {
			params[0] = p
		}
	case Array:
		for i := 0; i < n && i < len(p); i++ {
			params[i], _ = p[i].(Dict)
		}
	}
	return params
}

// unpredict reverses the PNG row predictors (/Predictor 10-15) used by
// cross-reference streams. /Predictor 1 means no prediction.
func unpredict(data []byte, params Dict) ([]byte, error) {
	predictor, _ := params.GetInt("Predictor")
	if predictor <= 1 {
		return data, nil
	}
	if predictor < 10 {
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}

	columns := int64(1)
	if c, ok := params.GetInt("Columns"); ok && c > 0 {
		columns = c
	}
	colors := int64(1)
	if c, ok := params.GetInt("Colors"); ok && c > 0 {
		colors = c
	}
	bpc := int64(8)
	if b, ok := params.GetInt("BitsPerComponent"); ok && b > 0 {
		bpc = b
	}

	bpp := int((colors*bpc + 7) / 8)
	rowLen := int((columns*colors*bpc + 7) / 8)
	stride := rowLen + 1
	if len(data)%stride != 0 {
		data = data[:len(data)-len(data)%stride]
	}

	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	row := make([]byte, rowLen)
	for off := 0; off+stride <= len(data); off += stride {
		tag := data[off]
		copy(row, data[off+1:off+stride])
		for i := 0; i < rowLen; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch tag {
			case 0: // None
			case 1: // Sub
				row[i] += left
			case 2: // Up
				row[i] += up
			case 3: // Average
				row[i] += byte((int(left) + int(up)) / 2)
			case 4: // Paeth
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("invalid PNG filter type %d", tag)
			}
		}
		out = append(out, row...)
		prev, row = row, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// applyFilter applies a single decompression filter to the data.
func applyFilter(name Name, data []byte) ([]byte, error) {
	switch name {
	case "FlateDecode":
		return flateDecode(data)
	case "ASCIIHexDecode":
		return asciiHexDecode(data)
	case "ASCII85Decode":
		return ascii85Decode(data)
	default:
		return nil, fmt.Errorf("unsupported filter: %s", name)
	}
}

// flateDecode decompresses zlib/deflate encoded data.
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib init: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// asciiHexDecode decodes ASCII hex-encoded data (terminated by '>').
func asciiHexDecode(data []byte) ([]byte, error) {
	// Remove whitespace and trailing '>'
	var clean bytes.Buffer
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean.WriteByte(b)
		}
	}

	src := clean.Bytes()
	// Pad odd-length with trailing 0
	if len(src)%2 != 0 {
		src = append(src, '0')
	}

	dst := make([]byte, hex.DecodedLen(len(src)))
	_, err := hex.Decode(dst, src)
	if err != nil {
		return nil, fmt.Errorf("ascii hex decode: %w", err)
	}
	return dst, nil
}

// ascii85Decode decodes ASCII85-encoded data (terminated by "~>").
func ascii85Decode(data []byte) ([]byte, error) {
	// Find the end marker "~>"
	end := bytes.Index(data, []byte("~>"))
	if end >= 0 {
		data = data[:end]
	}

	decoder := ascii85.NewDecoder(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoder); err != nil {
		return nil, fmt.Errorf("ascii85 decode: %w", err)
	}
	return buf.Bytes(), nil
}
