// Command pdfmerge merges page ranges of PDF files, images, text, markdown
// and HTML documents into one PDF, carrying over their outlines.
//
// # Installation
//
//	go install github.com/lvillar/pdfmerge/cmd/pdfmerge@latest
//
// # Usage
//
//	pdfmerge merge -o out.pdf report.pdf:1-3 scan.png appendix.pdf:5-1:90
//	pdfmerge preview -o draft.pdf report.pdf notes.md
//	pdfmerge info report.pdf
//	pdfmerge outline report.pdf
//	pdfmerge split -d pages report.pdf:2-
//	pdfmerge mcp
//
// A source is path[:range[:rotation]]. The range uses 1-based page numbers
// ("2-5", "3-", "-4", "7"); a range running backwards copies the pages in
// reverse. The rotation is 0, 90, 180, 270 or -90.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfmerge: %v\n", err)
		os.Exit(1)
	}
}
