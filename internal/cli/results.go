package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
)

// ResultsOptions holds flags for the results command.
type ResultsOptions struct {
	*RootOptions
	Action string
}

// ResultsListing is the filtered content of a results log.
type ResultsListing struct {
	Path    string         `json:"path"`
	Entries []report.Entry `json:"entries"`
}

// Text implements Texter with one line per record.
func (l ResultsListing) Text() string {
	if len(l.Entries) == 0 {
		return fmt.Sprintf("No records in %s.", l.Path)
	}
	var b strings.Builder
	for _, e := range l.Entries {
		status := "ok"
		if failed, _ := e["error"].(bool); failed {
			status = "error"
		}
		fmt.Fprintf(&b, "%v  %-20s  %v  %s", e["timestamp"], e.Action(), e["run_id"], status)
		if state, ok := e["state"].(string); ok {
			fmt.Fprintf(&b, "  %s", state)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d records", len(l.Entries))
	return b.String()
}

// NewResultsCommand creates the results command.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResultsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List records from the results log",
		Long: `List the records of the NDJSON results log, optionally only those of
one action (watermark, deletion_attack, modification_attack,
insertion_attack, deletion_attack_fast).

Examples:
  gwm results
  gwm results --action deletion_attack --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Action, "action", "a", "", "only show records of this action")

	return cmd
}

func runResults(opts *ResultsOptions, cmd *cobra.Command) error {
	settings, err := loadSettings(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	entries, err := report.ReadFile(settings.Results)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}
	if opts.Action != "" {
		entries = report.Filter(entries, report.Action(opts.Action))
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(ResultsListing{Path: settings.Results, Entries: entries})
}
