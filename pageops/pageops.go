// Package pageops merges documents: it resolves page ranges, concatenates
// the selected pages with their rotation, rebuilds one outline addressing
// the output numbering, and writes the result as a PDF.
//
// Pages are imported as templates with the gofpdi contrib package of
// gofpdf; the outline is written as gofpdf bookmarks.
package pageops
