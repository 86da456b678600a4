package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// UserOptions holds flags for user create.
type UserOptions struct {
	SiteOptions
	Password string
}

// UserResult reports a created user.
type UserResult struct {
	ID    int64  `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
}

// Text implements the human-readable output.
func (r UserResult) Text() string {
	return fmt.Sprintf("Created user %s (id %d)", r.Email, r.ID)
}

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{SiteOptions: SiteOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Long: `Create a dashboard user. The first user's email is the default
recipient of contact forms.

Example:
  stencil user create me@example.com --password secret`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runUserCreate(opts *UserOptions, email string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := openApp(&opts.SiteOptions)
	if err != nil {
		return report(formatter, err)
	}
	defer a.Close()

	user, err := a.store.CreateUser(cmd.Context(), email, opts.Password)
	if err != nil {
		return report(formatter, err)
	}
	return formatter.Success(UserResult{ID: user.ID, Email: user.Email})
}
