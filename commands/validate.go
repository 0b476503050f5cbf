package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// NewValidateCmd validates existing instance documents against a data
// model's schema without persisting anything.
func NewValidateCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dm_ct_id> <file.xml>...",
		Short: "Validate instance documents against the XSD schema",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := LoadEnv(opts)
			if err != nil {
				return err
			}

			oracle, err := env.Oracle(args[0])
			if err != nil {
				return fmt.Errorf("load schema for %s: %w", args[0], err)
			}

			invalid := 0
			for _, path := range args[1:] {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				result, err := oracle.Validate(string(content))
				if err != nil {
					return fmt.Errorf("validate %s: %w", path, err)
				}

				if result.IsValid {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
					continue
				}

				invalid++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid (%d components)\n", path, len(result.Errors))
				ctIDs := make([]string, 0, len(result.Errors))
				for ctID := range result.Errors {
					ctIDs = append(ctIDs, ctID)
				}
				sort.Strings(ctIDs)
				for _, ctID := range ctIDs {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", ctID, result.Errors[ctID])
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d documents invalid", invalid, len(args)-1)
			}
			return nil
		},
	}
}
