package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SiteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render a page to stdout",
		Long: `Render the template a request path resolves to, with live content.

Example:
  stencil render /offices/tokyo-3 --site ./mysite`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runRender(opts *SiteOptions, uriPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := openApp(opts)
	if err != nil {
		return report(formatter, err)
	}
	defer a.Close()

	page, err := a.renderer.RenderContent(cmd.Context(), uriPath)
	if err != nil {
		return report(formatter, err)
	}
	if opts.Format != "text" {
		return formatter.Success(map[string]string{"path": uriPath, "html": page})
	}
	fmt.Fprint(cmd.OutOrStdout(), page)
	return nil
}
