package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Show version, pages, outline size and encryption of PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				info, err := source.Inspect(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
					failed++
					continue
				}
				printInfo(cmd.OutOrStdout(), info)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be read", failed, len(args))
			}
			return nil
		},
	}
}

func printInfo(w io.Writer, info *source.Info) {
	fmt.Fprintf(w, "%s\n", info.Path)
	if info.Encrypted {
		fmt.Fprintf(w, "  encrypted:  yes (password required: %t)\n", info.PasswordRequired)
		return
	}
	fmt.Fprintf(w, "  version:    %s\n", info.Version)
	fmt.Fprintf(w, "  pages:      %d\n", info.Pages)
	fmt.Fprintf(w, "  outline:    %d entries\n", info.Outline)
	if len(info.Sizes) > 0 {
		fmt.Fprintf(w, "  page size:  %.0f x %.0f pt\n", info.Sizes[0][0], info.Sizes[0][1])
	}

	keys := make([]string, 0, len(info.Metadata))
	for k := range info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-11s %s\n", strings.ToLower(k)+":", info.Metadata[k])
	}
}

func newOutlineCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "outline FILE",
		Short: "Print the outline of a file as it would enter a merge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pdfmerge.NewConfig(flags.options(cmd.ErrOrStderr())...)
			doc, err := source.NewRegistry(cfg).Open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			for _, e := range doc.Outline() {
				indent := strings.Repeat("  ", max(e.Level-1, 0))
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s  (%s)\n", indent, e.Title, e.Target)
			}
			return nil
		},
	}
}
