package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/sdcpipeline/bulkimport"
)

// NewImportCmd ingests a directory or zip archive of instance
// documents through the pipeline.
func NewImportCmd(opts *RootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <dm_ct_id> <dir-or-zip>",
		Short: "Bulk import instance documents from a directory or zip archive",
		Long: `Import runs every .xml file in a directory, or every .xml member of a
zip archive, through the validation pipeline. Each document gets a fresh
instance id and creation timestamp. Failed files are reported in the
summary; one failure never stops the run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := LoadEnv(opts)
			if err != nil {
				return err
			}

			proc, closer, err := env.Processor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closer()

			importer := bulkimport.NewImporter(proc, env.Logger)

			var result *bulkimport.BulkResult
			if strings.EqualFold(filepath.Ext(args[1]), ".zip") {
				result = importer.ImportZip(cmd.Context(), args[0], args[1])
			} else {
				result = importer.ImportDirectory(cmd.Context(), args[0], args[1])
			}

			if jsonOut {
				encoded, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d/%d files (%.1f%%) in %s\n",
					result.Successful, result.TotalFiles, result.SuccessRate(), result.Duration().Round(time.Millisecond))
				for _, failure := range result.Failures() {
					fmt.Fprintf(cmd.OutOrStdout(), "  failed %s: %s\n", failure.Filename, failure.ErrorMessage)
				}
			}

			if result.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", result.Failed, result.TotalFiles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full result as JSON")

	return cmd
}
