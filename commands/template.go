package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTemplateCmd prints or checks the generation skeleton for a data
// model.
func NewTemplateCmd(opts *RootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "template <dm_ct_id>",
		Short: "Print the generation skeleton for a data model",
		Long: `Template prints the placeholder skeleton instances are generated
from. With --check it only verifies that the skeleton covers every
field in the model description and reports drift.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := LoadEnv(opts)
			if err != nil {
				return err
			}

			// Load verifies placeholder coverage against the model.
			tmpl, err := env.TemplateStore().Load(args[0])
			if err != nil {
				return err
			}

			if check {
				fmt.Fprintf(cmd.OutOrStdout(), "dm-%s: skeleton covers all %d fields\n",
					args[0], len(tmpl.Model.Fields))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), tmpl.Skeleton)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Verify skeleton coverage without printing it")

	return cmd
}
