package source

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/lvillar/pdfmerge"
	"github.com/phpdave11/gofpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// OpenImage converts an image file into a one-page document.
func OpenImage(path string, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfmerge.NewError("Open", path, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
	}
	return ConvertImage(path, data, cfg)
}

// ConvertImage places an image on a page of the configured size, turned
// to landscape for wide images, scaled to fit inside the margins and
// centered. JPEG and GIF are embedded as they are; every other format is
// decoded and embedded as 8-bit PNG.
func ConvertImage(name string, data []byte, cfg pdfmerge.Config) (pdfmerge.Document, error) {
	conf, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: %w", pdfmerge.ErrUnsupportedFormat, err))
	}
	if conf.Width <= 0 || conf.Height <= 0 {
		return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: empty image", pdfmerge.ErrUnreadable))
	}

	imgType := ""
	switch format {
	case "jpeg":
		imgType = "JPG"
	case "gif":
		imgType = "GIF"
	default:
		data, err = reencodePNG(data)
		if err != nil {
			return nil, pdfmerge.NewError("Convert", name, fmt.Errorf("%w: %w", pdfmerge.ErrUnreadable, err))
		}
		imgType = "PNG"
	}

	l := newLayout(cfg)
	pw, ph := l.pdf.GetPageSize()
	if pw > ph {
		pw, ph = ph, pw
	}
	orientation := "P"
	if conf.Width > conf.Height {
		orientation = "L"
	}
	l.pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: pw, Ht: ph})

	opts := gofpdf.ImageOptions{ImageType: imgType}
	l.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))

	x, y, w, h := fitImage(l.pdf, cfg.Margin, float64(conf.Width), float64(conf.Height))
	l.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return l.document(name)
}

// fitImage scales an image of iw x ih into the page area inside margin,
// keeping the aspect ratio, and centers it.
func fitImage(pdf *gofpdf.Fpdf, margin, iw, ih float64) (x, y, w, h float64) {
	pw, ph := pdf.GetPageSize()
	aw, ah := pw-2*margin, ph-2*margin
	if aw <= 0 || ah <= 0 {
		aw, ah, margin = pw, ph, 0
	}
	scale := min(aw/iw, ah/ih)
	w, h = iw*scale, ih*scale
	return margin + (aw-w)/2, margin + (ah-h)/2, w, h
}

// reencodePNG decodes any registered image format and encodes it as a
// non-interlaced 8-bit PNG.
func reencodePNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rgba := image.NewNRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
