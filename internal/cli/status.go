package cli

import (
	"github.com/spf13/cobra"
)

// StatusResult reports whether the templates match the stored schema.
type StatusResult struct {
	Dirty bool `json:"dirty" yaml:"dirty"`
}

// Text implements the human-readable output.
func (r StatusResult) Text() string {
	if r.Dirty {
		return "Templates changed since the last build. Run stencil build."
	}
	return "Schema is up to date."
}

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	SiteOptions

	// Check turns a dirty schema into a failing exit code.
	Check bool
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{SiteOptions: SiteOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Report whether the templates differ from the stored schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Check, "check", false, "exit 1 when the schema is dirty")
	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := openApp(&opts.SiteOptions)
	if err != nil {
		return report(formatter, err)
	}
	defer a.Close()

	if err := a.builder.Init(cmd.Context()); err != nil {
		return report(formatter, err)
	}
	dirty, err := a.builder.IsDirty()
	if err != nil {
		return report(formatter, err)
	}

	if err := formatter.Success(StatusResult{Dirty: dirty}); err != nil {
		return err
	}
	if dirty && opts.Check {
		return NewExitError(ExitFailure, ErrCodeDirty+": schema is dirty")
	}
	return nil
}
