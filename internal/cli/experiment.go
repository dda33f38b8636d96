package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/harness"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/metrics"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
)

// ExperimentOptions holds flags for the experiment command.
type ExperimentOptions struct {
	*RootOptions
	Filter string // experiment filter (glob pattern)
}

// ExperimentResult holds the result of a single experiment file.
type ExperimentResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Carriers int      `json:"carriers"`
	Errors   []string `json:"errors,omitempty"`
}

// ExperimentReport holds the overall result.
type ExperimentReport struct {
	Experiments []ExperimentResult `json:"experiments"`
	Passed      int                `json:"passed"`
	Failed      int                `json:"failed"`
	Total       int                `json:"total"`
}

// Text implements Texter.
func (r ExperimentReport) Text() string {
	if r.Total == 0 {
		return "No experiments found."
	}
	var b strings.Builder
	for _, e := range r.Experiments {
		if e.Pass {
			fmt.Fprintf(&b, "✓ %s (%d carriers)\n", e.Name, e.Carriers)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", e.Name)
		for _, msg := range e.Errors {
			fmt.Fprintf(&b, "  %s\n", msg)
		}
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	return b.String()
}

// NewExperimentCommand creates the experiment command.
func NewExperimentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExperimentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "experiment <file-or-dir>",
		Short: "Run robustness experiments",
		Long: `Run experiment files. Each experiment generates a dataset in an isolated
in-memory database, watermarks it, runs its attacks and checks its
assertions. The database named by --db is not touched.

Records are appended to the results log only when --results is given.

Exit codes:
  0 - All experiments passed
  1 - One or more experiments failed
  2 - Command error (invalid paths, etc.)

Examples:
  gwm experiment ./experiments
  gwm experiment ./experiments --filter "deletion-*"
  gwm experiment ./experiments/robustness.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiments(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter experiments by glob pattern")

	return cmd
}

func runExperiments(opts *ExperimentOptions, path string, cmd *cobra.Command) (err error) {
	files, err := findExperimentFiles(path, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find experiments", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	m := metrics.New()
	hopts := harness.Options{
		Logger:  newLogger(opts.RootOptions, cmd),
		Metrics: m,
	}
	if cmd.Flags().Changed("results") {
		resultsLog, err := report.OpenLog(opts.Results)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open results log", err)
		}
		defer resultsLog.Close()
		hopts.Results = resultsLog
	}

	rep := ExperimentReport{
		Experiments: make([]ExperimentResult, 0, len(files)),
		Total:       len(files),
	}
	for _, file := range files {
		res := runExperiment(ctx, file, hopts)
		if res.Pass {
			rep.Passed++
		} else {
			rep.Failed++
		}
		rep.Experiments = append(rep.Experiments, res)
	}

	if opts.MetricsFile != "" {
		if err := m.WriteFile(opts.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Success(rep); err != nil {
		return err
	}
	if rep.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d experiments failed", rep.Failed, rep.Total))
	}
	return nil
}

// runExperiment loads and runs one file. Load and setup errors fail the
// experiment instead of the command.
func runExperiment(ctx context.Context, file string, opts harness.Options) ExperimentResult {
	exp, err := harness.LoadExperiment(file)
	if err != nil {
		return ExperimentResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load experiment: %v", err)},
		}
	}

	result, err := harness.Run(ctx, exp, opts)
	if err != nil {
		return ExperimentResult{
			Name:   exp.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	return ExperimentResult{
		Name:     result.Name,
		Pass:     result.Pass,
		Carriers: result.Carriers,
		Errors:   result.Errors,
	}
}

// findExperimentFiles returns path itself if it is a file, or every YAML
// file below it matching filter.
func findExperimentFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}
