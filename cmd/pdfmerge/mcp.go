package main

import (
	"github.com/lvillar/pdfmerge/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve merge tools over the Model Context Protocol on stdio",
		Long: `Run an MCP server speaking JSON-RPC 2.0 over stdin and stdout.

Tools: merge_pdfs, preview_merge, pdf_info, read_outline.
Resources: pdf://metadata, pdf://pages and pdf://outline, each taking the
file as ?path=.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServerWithIO(cmd.InOrStdin(), cmd.OutOrStdout(), flags.options(cmd.ErrOrStderr())...)
			mcp.RegisterDefaultTools(server)
			mcp.RegisterDefaultResources(server)
			return server.Run()
		},
	}
}
