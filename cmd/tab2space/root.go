package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stackvity/tab2space/internal/cli"
	"github.com/stackvity/tab2space/internal/cli/config"
	"github.com/stackvity/tab2space/internal/cli/hooks"
	"github.com/stackvity/tab2space/pkg/converter"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the tab2space command. A fresh instance per call keeps
// flag state from leaking between executions.
func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "tab2space <path>",
		Short: "Replaces tab characters with spaces in source files.",
		Long: `tab2space expands tab characters into the equivalent run of spaces,
keeping every character at the column it was displayed at.

By default the input is left untouched: a single file is written next to
itself with a .notab extension, and a folder is mirrored into a sibling
<folder>_notab directory. Use --overwrite to rewrite files in place.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, logger, err := config.LoadAndValidate(cfgFile, args[0], version, verbose, cmd.Flags(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var bar hooks.ProgressBar
			if opts.Progress && opts.Mode == converter.ModeFolder && term.IsTerminal(int(os.Stderr.Fd())) {
				bar = hooks.NewProgressBar(os.Stderr)
			}
			opts.EventHooks = hooks.NewCLIHooks(logger, opts.Verbose, bar)

			return cli.Run(ctx, opts, logger, cmd.OutOrStdout())
		},
	}
	cmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is search ., $HOME/.config/tab2space/)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables the progress bar)")

	// Conversion flags
	cmd.Flags().BoolP("is_folder", "f", false, "Treat <path> as a folder and convert every matching file beneath it")
	cmd.Flags().BoolP("overwrite", "o", false, "Rewrite files in place instead of writing .notab copies")
	cmd.Flags().BoolP("rtw", "s", false, "Remove trailing whitespace from every line")
	cmd.Flags().IntP("tab_width", "w", converter.DefaultTabWidth, "Number of columns between tab stops")
	cmd.Flags().StringSlice("ext", nil, "File extensions converted in folder mode, without the dot (default c,cc,h,py,cs)")

	// File handling flags
	cmd.Flags().String("out", "", "Explicit output file (file mode) or directory (folder mode)")
	cmd.Flags().StringArray("ignore", []string{}, "Gitignore-style patterns to skip in folder mode (can be specified multiple times)")
	cmd.Flags().String("encoding", converter.DefaultEncoding, "Text encoding of the input files")

	// Behavior & output flags
	cmd.Flags().Int("concurrency", converter.DefaultConcurrency, "Number of parallel workers (0 for auto-detect CPU cores)")
	cmd.Flags().String("output-format", string(converter.DefaultOutputFormat), `Folder summary format ("text", "json", "yaml")`)
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar even in a TTY")

	return cmd
}

// Execute runs the root command and exits non-zero when it fails.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
