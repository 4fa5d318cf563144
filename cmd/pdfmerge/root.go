package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose   bool
	pageSize  string
	landscape bool
	margin    float64
	font      string
	fontSize  float64
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "pdfmerge",
		Short: "Merge PDF files and other documents into one PDF",
		Long: `Merge page ranges of PDF files, images, plain text, markdown and HTML
documents into a single PDF. Outlines of the sources are merged and
rewritten to the new page numbers. Sources that cannot be read or are
encrypted are skipped and reported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log progress to stderr")
	pf.StringVar(&flags.pageSize, "page-size", pdfmerge.PageSizeA4, "Page size for converted documents (A4, A5, Letter, Legal)")
	pf.BoolVar(&flags.landscape, "landscape", false, "Lay converted documents out in landscape")
	pf.Float64Var(&flags.margin, "margin", 50, "Page margin for converted documents, in points")
	pf.StringVar(&flags.font, "font", "Helvetica", "Core font for converted documents")
	pf.Float64Var(&flags.fontSize, "font-size", 11, "Font size for converted documents, in points")

	root.AddCommand(
		newMergeCmd(&flags, true),
		newMergeCmd(&flags, false),
		newInfoCmd(),
		newOutlineCmd(&flags),
		newSplitCmd(&flags),
		newMCPCmd(&flags),
	)
	return root
}

// options maps the global flags onto configuration options. Logs go to
// stderr when --verbose is set and are discarded otherwise.
func (f *globalFlags) options(stderr io.Writer) []pdfmerge.Option {
	opts := []pdfmerge.Option{
		pdfmerge.WithPageSize(f.pageSize),
		pdfmerge.WithMargin(f.margin),
		pdfmerge.WithFont(f.font, f.fontSize),
	}
	if f.landscape {
		opts = append(opts, pdfmerge.WithLandscape())
	}
	if f.verbose {
		handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, pdfmerge.WithLogger(slog.New(handler)))
	}
	return opts
}

func parseSelections(args []string) ([]pdfmerge.Selection, error) {
	sels := make([]pdfmerge.Selection, 0, len(args))
	for _, arg := range args {
		sel, err := pdfmerge.ParseSelection(arg)
		if err != nil {
			return nil, err
		}
		sels = append(sels, sel)
	}
	return sels, nil
}

func printSkips(w io.Writer, skipped []pageops.Skip) {
	for _, s := range skipped {
		fmt.Fprintf(w, "skipped %s: %v\n", s.Path, s.Err)
	}
}
