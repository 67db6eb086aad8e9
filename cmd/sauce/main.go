package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonemaro/sauce/cmd/sauce/app"
	"github.com/sonemaro/sauce/internal/config"
	"github.com/sonemaro/sauce/internal/version"
	"github.com/sonemaro/sauce/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sauce [flags] [path]",
		Short: "Search files and lines for keywords",
		Long: `sauce v` + version.Version + `
========================================

Walks a directory tree, keeps the files whose name matches the file terms,
and prints the lines of those files that match the line terms.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSearch,
	}

	flags := rootCmd.Flags()
	flags.StringP("from-yaml", "y", "", "use yaml file search parameters")
	flags.IntP("limit-lines", "l", config.UnlimitedLines, "limit number of line results to return from each file")
	flags.BoolP("walk-results", "w", false, "step through the results of each file")
	flags.BoolP("show-duplicates", "d", false, "show duplicate lines")
	flags.StringP("extract-tarfile", "t", "", "extract tarfile before searching")
	flags.String("extract-dir", ".", "directory the tarfile is extracted into")
	flags.StringP("lines-include", "j", "", "line terms to be matched (comma-separated)")
	flags.StringP("lines-exclude", "k", "", "line terms not to be matched (comma-separated)")
	flags.StringP("files-include", "x", "", "file name terms to be matched (comma-separated)")
	flags.StringP("files-exclude", "e", "", "file name terms not to be matched (comma-separated)")
	flags.Int("max-depth", config.UnlimitedDepth, "maximum directory depth (-1 for unlimited)")
	flags.StringSliceP("ignore", "i", nil, "glob patterns of paths to skip")
	flags.Bool("follow-symlinks", false, "descend into symlinked directories")
	flags.StringP("output", "o", string(config.OutputFormatText), "output format: text|json|yaml")
	flags.StringP("output-file", "f", "", "write output to file instead of stdout")
	flags.Bool("stats", false, "append run statistics to the report")
	flags.Int("rate-limit", 0, "maximum file reads per second (0 for unlimited)")
	flags.Int("buffer-size", config.DefaultBufferSize, "buffer size for file reading in bytes")
	flags.Bool("no-color", false, "disable colored output")
	flags.CountP("verbose", "v", "verbose output (can be used multiple times)")
	flags.BoolP("quiet", "q", false, "only log warnings and errors")

	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			full, _ := cmd.Flags().GetBool("full")
			if full {
				fmt.Fprint(cmd.OutOrStdout(), version.Full())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Short())
		},
	}
	cmd.Flags().Bool("full", false, "show full version information")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	log := logger.NewLogger(logger.Config{
		Verbosity: cfg.Verbose,
		Quiet:     cfg.Quiet,
		Output:    cmd.ErrOrStderr(),
	})

	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	log.WithFields(logger.Fields{
		"path":   path,
		"config": cfg.String(),
	}).Debug("Configuration loaded")

	ctx, stop := app.WithSignals(context.Background(), log)
	defer stop()

	return app.New(cfg, log, app.Options{
		Stdin:   cmd.InOrStdin(),
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
		LockDir: os.TempDir(),
	}).Run(ctx, path)
}
