package pageops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lvillar/pdfmerge"
)

// Extract writes the pages of a single selection to w: a range, possibly
// reversed, with the selection's rotation. The source outline is carried
// over for the pages kept.
func Extract(w io.Writer, sel pdfmerge.Selection, opts SaveOptions, cfgOpts ...pdfmerge.Option) error {
	res, err := Merge([]pdfmerge.Selection{sel}, true, cfgOpts...)
	if err != nil {
		return err
	}
	return Write(w, res.Document, opts)
}

// SplitToFiles writes every selected page of sel to its own file in
// outputDir. Files are named page_001.pdf, page_002.pdf, etc. in output
// order, and the written paths are returned.
func SplitToFiles(sel pdfmerge.Selection, outputDir string, opts SaveOptions, cfgOpts ...pdfmerge.Option) ([]string, error) {
	if info, err := os.Stat(outputDir); err != nil {
		return nil, fmt.Errorf("pageops: output directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("pageops: %s is not a directory", outputDir)
	}

	res, err := Merge([]pdfmerge.Selection{sel}, false, cfgOpts...)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, res.Document.PageCount())
	for i, p := range res.Document.Pages() {
		single := pdfmerge.NewOutput()
		single.AddPages(p)

		outputPath := filepath.Join(outputDir, fmt.Sprintf("page_%03d.pdf", i+1))
		if err := Save(single, outputPath, opts); err != nil {
			return paths, fmt.Errorf("pageops: splitting page %d: %w", i+1, err)
		}
		paths = append(paths, outputPath)
	}
	return paths, nil
}
