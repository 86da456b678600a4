package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// BuildResult reports a schema build.
type BuildResult struct {
	Sections []string `json:"sections" yaml:"sections"`
	Removed  int64    `json:"removed" yaml:"removed"`
}

// Text implements the human-readable output.
func (r BuildResult) Text() string {
	s := fmt.Sprintf("Built %d section(s): %s", len(r.Sections), strings.Join(r.Sections, ", "))
	if r.Removed > 0 {
		s += fmt.Sprintf("\nRemoved %d section(s) no longer in the templates", r.Removed)
	}
	return s
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SiteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the content schema from the templates",
		Long: `Parse every template, merge the sections and fields they declare and
write them to the database. Sections no longer used by any template are
removed together with their records.

Example:
  stencil build --site ./mysite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runBuild(opts *SiteOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := openApp(opts)
	if err != nil {
		return report(formatter, err)
	}
	defer a.Close()

	formatter.VerboseLog("Building templates in %s", a.site.Root())
	result, err := a.builder.Build(cmd.Context())
	if err != nil {
		return report(formatter, err)
	}
	return formatter.Success(BuildResult{Sections: result.Sections, Removed: result.Removed})
}
