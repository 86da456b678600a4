package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stencil/internal/model"
)

// TreeResult is the merged schema the templates describe.
type TreeResult struct {
	Sections model.SchemaTree `json:"sections" yaml:"sections"`
}

// Text renders the tree as YAML, which reads well in a terminal.
func (r TreeResult) Text() string {
	out, err := yaml.Marshal(r.Sections)
	if err != nil {
		return err.Error()
	}
	return strings.TrimRight(string(out), "\n")
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SiteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the schema the templates describe",
		Long: `Parse the templates without touching the database and print the merged
sections with their options and fields.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runTree(opts *SiteOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := openApp(opts)
	if err != nil {
		return report(formatter, err)
	}
	defer a.Close()

	tree, err := a.builder.Tree()
	if err != nil {
		return report(formatter, err)
	}
	return formatter.Success(TreeResult{Sections: tree})
}
