package main

import (
	"errors"
	"fmt"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
	"github.com/spf13/cobra"
)

// newMergeCmd builds "merge" when finalize is set and "preview" otherwise.
// A preview copies pages only and writes no outline.
func newMergeCmd(flags *globalFlags, finalize bool) *cobra.Command {
	var (
		output    string
		noOutline bool
		compress  bool
		dedupe    bool
	)

	cmd := &cobra.Command{
		Use:   "merge -o OUTPUT SOURCE...",
		Short: "Merge sources into one PDF with a combined outline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sels, err := parseSelections(args)
			if err != nil {
				return err
			}

			cfgOpts := flags.options(cmd.ErrOrStderr())
			res, err := pageops.Merge(sels, finalize && !noOutline, cfgOpts...)
			if err != nil {
				if errors.Is(err, pdfmerge.ErrOutputEmpty) {
					return fmt.Errorf("nothing to write: every source was skipped\n%w", err)
				}
				return err
			}
			printSkips(cmd.ErrOrStderr(), res.Skipped)

			opts := pageops.SaveOptions{
				DedupeObjects: dedupe,
				Logger:        pdfmerge.NewConfig(cfgOpts...).Logger,
			}
			if compress {
				opts.CompressionLevel = 1
			}
			if err := pageops.Save(res.Document, output, opts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d pages, %d outline entries, %d skipped\n",
				output, res.Document.PageCount(), len(res.Document.Outline()), len(res.Skipped))
			return nil
		},
	}
	if !finalize {
		cmd.Use = "preview -o OUTPUT SOURCE..."
		cmd.Short = "Write the merged pages without an outline"
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF path")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress page streams")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "Share duplicate resources and drop unused objects")
	if finalize {
		cmd.Flags().BoolVar(&noOutline, "no-outline", false, "Do not merge the source outlines")
	}
	return cmd
}
