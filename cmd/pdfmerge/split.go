package main

import (
	"fmt"
	"os"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
	"github.com/spf13/cobra"
)

func newSplitCmd(flags *globalFlags) *cobra.Command {
	var (
		dir      string
		compress bool
	)

	cmd := &cobra.Command{
		Use:   "split -d DIR SOURCE",
		Short: "Write every selected page of a source to its own PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := pdfmerge.ParseSelection(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			cfgOpts := flags.options(cmd.ErrOrStderr())
			opts := pageops.SaveOptions{Logger: pdfmerge.NewConfig(cfgOpts...).Logger}
			if compress {
				opts.CompressionLevel = 1
			}
			paths, err := pageops.SplitToFiles(sel, dir, opts, cfgOpts...)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress page streams")
	return cmd
}
