package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is an optional YAML settings file. Flags below override it.
	Config string

	Database    string
	Schema      string
	Results     string
	GroundTruth string
	MetricsFile string
	Seed        uint64
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gwm CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with os.Args, reports any error in the selected
// format and returns the process exit code.
func Execute() int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	out := &OutputFormatter{Format: "text", Writer: cmd.ErrOrStderr()}
	if opts.Format == "json" {
		out = &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	}
	_ = out.Error(err)
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gwm",
		Short: "gwm - graph dataset watermarking",
		Long: `Watermark a property graph with pseudo-documents and measure how well
the mark survives deletion, modification and insertion attacks.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.Config, "config", "c", "", "YAML settings file")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite graph database")
	flags.StringVar(&opts.Schema, "schema", "", "CUE dataset schema file")
	flags.StringVar(&opts.Results, "results", "", "NDJSON results log")
	flags.StringVar(&opts.GroundTruth, "truth", "", "ground truth file")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.Uint64Var(&opts.Seed, "seed", 0, "random seed (default: unseeded)")

	// Add subcommands
	cmd.AddCommand(NewPopulateCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewWatermarkCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewAttackCommand(opts))
	cmd.AddCommand(NewExperimentCommand(opts))
	cmd.AddCommand(NewResultsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
