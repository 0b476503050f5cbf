package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/sdcpipeline/export"
	"github.com/c360studio/sdcpipeline/extract"
	"github.com/c360studio/sdcpipeline/storage"
)

// NewExportCmd renders an instance document as Turtle RDF or as the
// flattened JSON projection.
func NewExportCmd(opts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <dm_ct_id> <file.xml>",
		Short: "Export an instance as Turtle RDF or flattened JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := LoadEnv(opts)
			if err != nil {
				return err
			}

			tmpl, err := env.TemplateStore().Load(args[0])
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			switch format {
			case "turtle":
				instanceID := extract.NewQueryExtractor(env.Logger).Extract(string(content)).Metadata["instance_id"]
				turtle := export.NewRDFExtractor(tmpl.Model, env.Logger).Extract(
					string(content), instanceID, string(storage.StatusValid), nil)
				if turtle == "" {
					return fmt.Errorf("document could not be parsed")
				}
				fmt.Fprintln(cmd.OutOrStdout(), turtle)
			case "json":
				rendered, err := extract.NewInstanceGenerator(tmpl.Model, env.Logger).GenerateJSON(string(content))
				if err != nil {
					return fmt.Errorf("render JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
			default:
				return fmt.Errorf("unknown format %q (want turtle or json)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "turtle", "Output format (turtle, json)")

	return cmd
}
