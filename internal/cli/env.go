package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/config"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/metrics"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/store"
)

// env is everything a store-backed command needs. Close releases it.
type env struct {
	settings config.Settings
	schema   *config.Schema
	store    *store.Store
	sess     *session.Session
	log      *report.Log
	runs     *report.Memory
	metrics  *metrics.Metrics
	out      *OutputFormatter

	metricsFile string
}

// newLogger builds the stderr text logger, at debug level with --verbose.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}

// loadSettings reads --config and applies the flags that were set.
func loadSettings(opts *RootOptions, cmd *cobra.Command) (config.Settings, error) {
	s, err := config.Load(opts.Config)
	if err != nil {
		return s, WrapExitError(ExitCommandError, "failed to load settings", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		s.Database = opts.Database
	}
	if flags.Changed("schema") {
		s.Schema = opts.Schema
	}
	if flags.Changed("results") {
		s.Results = opts.Results
	}
	if flags.Changed("truth") {
		s.GroundTruth = opts.GroundTruth
	}
	if flags.Changed("seed") {
		seed := opts.Seed
		s.Seed = &seed
	}
	if err := s.Validate(); err != nil {
		return s, WrapExitError(ExitCommandError, "invalid settings", err)
	}
	return s, nil
}

// openEnv loads settings and the schema, opens the store and the results
// log and builds the session.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	settings, err := loadSettings(opts, cmd)
	if err != nil {
		return nil, err
	}

	schema, err := config.LoadSchema(settings.Schema)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	logger := newLogger(opts, cmd)

	logger.Debug("opening database", "path", settings.Database)
	st, err := store.Open(settings.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	resultsLog, err := report.OpenLog(settings.Results)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open results log", err)
	}

	var src sample.Source = sample.Default()
	if settings.Seed != nil {
		src = sample.New(*settings.Seed)
	}

	e := &env{
		settings:    settings,
		schema:      schema,
		store:       st,
		log:         resultsLog,
		runs:        &report.Memory{},
		metrics:     metrics.New(),
		out:         &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
		metricsFile: opts.MetricsFile,
	}
	e.sess = session.New(st,
		session.WithLogger(logger),
		session.WithResults(report.Tee{resultsLog, e.runs}),
		session.WithRand(src),
		session.WithMetrics(e.metrics),
	)
	return e, nil
}

// latestRunID returns the run id of the most recent record in runs.
func latestRunID(runs *report.Memory) string {
	records := runs.Records()
	if len(records) == 0 {
		return ""
	}
	return records[len(records)-1].Head().RunID
}

// Close writes the metrics file if requested and closes the results log
// and the store.
func (e *env) Close() error {
	var errs []error
	if e.metricsFile != "" {
		errs = append(errs, e.metrics.WriteFile(e.metricsFile))
	}
	errs = append(errs, e.log.Close(), e.store.Close())
	if err := errors.Join(errs...); err != nil {
		e.sess.Logger.Error("error closing environment", "error", err)
		return err
	}
	return nil
}

// closeEnv closes e and keeps the first error.
func closeEnv(e *env, err *error) {
	if cerr := e.Close(); cerr != nil && *err == nil {
		*err = WrapExitError(ExitCommandError, "failed to close", cerr)
	}
}

// signalContext returns the command context, cancelled on SIGINT or SIGTERM
// so long attacks stop cleanly and still write their record.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runFailure maps a core error to an exit code. Rejected arguments are
// command errors; everything else is a run failure.
func runFailure(message string, err error) *ExitError {
	if fault.IsInvalidArgument(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// loadGroundTruth reads the ground truth file named by the settings.
func (e *env) loadGroundTruth() (report.GroundTruth, error) {
	gt, err := report.LoadGroundTruth(e.settings.GroundTruth)
	if err != nil {
		return gt, WrapExitError(ExitCommandError, "failed to load ground truth", err)
	}
	if gt.Partial {
		e.sess.Logger.Warn("ground truth comes from a failed watermark run",
			"run_id", gt.RunID, "carriers", len(gt.Carriers))
	}
	return gt, nil
}
