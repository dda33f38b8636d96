package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/dataset"
)

// ResetResult reports how many nodes reset removed.
type ResetResult struct {
	Database string `json:"database"`
	Deleted  int    `json:"deleted"`
}

// Text implements Texter.
func (r ResetResult) Text() string {
	return fmt.Sprintf("Reset %s: %d nodes deleted", r.Database, r.Deleted)
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every node and edge",
		Long: `Delete every node of the graph together with its fields and edges.
The results log and ground truth files are not touched.

Example:
  gwm reset --db ./gwm.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(rootOpts, cmd)
		},
	}
}

func runReset(opts *RootOptions, cmd *cobra.Command) (err error) {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	ctx, stop := signalContext(cmd)
	defer stop()

	deleted, err := dataset.Reset(ctx, e.store, e.sess.Logger)
	if err != nil {
		return WrapExitError(ExitFailure, "reset failed", err)
	}
	return e.out.Success(ResetResult{Database: e.settings.Database, Deleted: deleted})
}
