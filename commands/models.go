package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewModelsCmd lists the data models available in the template store.
func NewModelsCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available data models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := LoadEnv(opts)
			if err != nil {
				return err
			}

			store := env.TemplateStore()
			ctIDs, err := store.List()
			if err != nil {
				return fmt.Errorf("list templates: %w", err)
			}
			if len(ctIDs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no data models found in", env.Config.Templates.Dir)
				return nil
			}

			for _, ctID := range ctIDs {
				tmpl, err := store.Load(ctID)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "dm-%s: unloadable (%v)\n", ctID, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dm-%s: %s (%d fields)\n",
					ctID, tmpl.Model.Label, len(tmpl.Model.Fields))
			}
			return nil
		},
	}
}
