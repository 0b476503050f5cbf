// Package main provides the sdcpipeline binary entry point.
// sdcpipeline builds, validates, imports, and exports SDC4 data
// instances and syncs their RDF projections to a GraphDB triplestore.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/c360studio/sdcpipeline/commands"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "sdcpipeline"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &commands.RootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "SDC4 instance pipeline",
		Long: `sdcpipeline generates XML data instances from SDC4 data model
templates, validates them against their XSD schemas, auto-corrects
invalid components into exceptional values, and persists the results.

It provides:
- Instance generation from placeholder skeletons
- XSD validation with exceptional-value auto-correction
- Bulk import from directories and zip archives
- Turtle RDF and flattened JSON export
- GraphDB named-graph synchronization`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		commands.NewBuildCmd(opts),
		commands.NewValidateCmd(opts),
		commands.NewImportCmd(opts),
		commands.NewExportCmd(opts),
		commands.NewModelsCmd(opts),
		commands.NewTemplateCmd(opts),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
